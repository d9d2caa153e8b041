// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	cfg "github.com/cnotch/loader"
	"github.com/cnotch/xlog"
)

// 服务名
const (
	Vendor  = "CAOHONGJU"
	Name    = "hevcplay"
	Version = "V1.0.0"
)

var (
	globalC *config
)

// InitConfig 初始化 Config
func InitConfig() {
	exe, err := os.Executable()
	if err != nil {
		xlog.Panic(err.Error())
	}

	configPath := filepath.Join(filepath.Dir(exe), Name+".conf")

	globalC = new(config)
	globalC.initFlags()

	// 创建或加载配置文件
	if err := cfg.Load(globalC,
		&cfg.JSONLoader{Path: configPath, CreatedIfNonExsit: true},
		&cfg.EnvLoader{Prefix: strings.ToUpper(Name)},
		&cfg.FlagLoader{}); err != nil {
		// 异常，直接退出
		xlog.Panic(err.Error())
	}

	// 码流文件也可以用尾随参数给出
	if globalC.File == "" && flag.NArg() > 0 {
		globalC.File = flag.Arg(0)
	}

	// 初始化日志
	globalC.Log.initLogger()
}

// File 播放的码流文件
func File() string {
	if globalC == nil {
		return ""
	}
	return globalC.File
}

// Loop 是否循环播放
func Loop() bool {
	if globalC == nil {
		return false
	}
	return globalC.Loop
}

// Frames 最多解码的图像数，0 表示不限制
func Frames() int {
	if globalC == nil {
		return 0
	}
	return globalC.Frames
}

// Delay 帧间显示延时
func Delay() time.Duration {
	if globalC == nil {
		return 0
	}
	return time.Duration(globalC.Delay) * time.Millisecond
}

// Engine 解码引擎名称
func Engine() string {
	if globalC == nil || globalC.Engine == "" {
		return "trace"
	}
	return globalC.Engine
}

// CraAsBla 是否把 CRA 图像按 BLA 处理
func CraAsBla() bool {
	if globalC == nil {
		return false
	}
	return globalC.CraAsBla
}

// StatsInterval 统计摘要的输出间隔
func StatsInterval() time.Duration {
	return time.Second * 10
}

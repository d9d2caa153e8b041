// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
)

// config 播放器配置
type config struct {
	File     string    `json:"file"`       // HEVC Annex B 裸流文件路径
	Loop     bool      `json:"loop"`       // 循环播放
	Frames   int       `json:"frames"`     // 最多解码图像数，0 不限制
	Delay    int       `json:"delay"`      // 帧间显示延时，毫秒
	Engine   string    `json:"engine"`     // 解码引擎名称
	CraAsBla bool      `json:"cra_as_bla"` // 把 CRA 图像按 BLA 处理
	Log      LogConfig `json:"log"`        // 日志配置
}

func (c *config) initFlags() {
	flag.StringVar(&c.File, "file", "", "Set the HEVC elementary stream file to play")
	flag.BoolVar(&c.Loop, "loop", false,
		"Determines if playback should restart at end of file")
	flag.IntVar(&c.Frames, "frames", 0,
		"Set the maximum number of frames to decode, 0 means no limit")
	flag.IntVar(&c.Delay, "delay", 0,
		"Set the delay in milliseconds between frames")
	flag.StringVar(&c.Engine, "engine", "trace", "Set the decode engine to use")
	flag.BoolVar(&c.CraAsBla, "cra-as-bla", false,
		"Determines if CRA pictures should be handled as BLA")

	// 初始化日志配置
	c.Log.initFlags()
}

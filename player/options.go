// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package player

import (
	"time"
)

// Option 配置 Session 的选项接口
type Option interface {
	apply(*Session)
}

// optionFunc 包装函数以便它满足 Option 接口
type optionFunc func(*Session)

func (f optionFunc) apply(s *Session) {
	f(s)
}

// Loop 循环播放选项
func Loop() Option {
	return optionFunc(func(s *Session) {
		s.loop = true
	})
}

// FrameLimit 最大解码帧数选项，0 表示不限制
func FrameLimit(n int) Option {
	return optionFunc(func(s *Session) {
		s.limit = n
	})
}

// Delay 帧间显示延时选项
func Delay(d time.Duration) Option {
	return optionFunc(func(s *Session) {
		s.delay = d
	})
}

// CraAsBla 把 CRA 图像按 BLA 处理的选项，用于从 CRA 起播
func CraAsBla() Option {
	return optionFunc(func(s *Session) {
		s.craAsBla = true
	})
}

// Writer 显示帧接收方选项
func Writer(w FrameWriter) Option {
	return optionFunc(func(s *Session) {
		s.writer = w
	})
}

// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// 全局变量
var (
	Playback = NewDecode() // 播放全程解码统计
)

// DecodeSample 解码统计采样
type DecodeSample struct {
	InBytes     int64 `json:"inbytes"`     // 读入的码流字节数
	OutBytes    int64 `json:"outbytes"`    // 提交解码引擎的字节数
	Units       int64 `json:"units"`       // 处理的 VCL 单元数
	Pictures    int64 `json:"pictures"`    // 解码的图像数
	Presented   int64 `json:"presented"`   // 交付显示的图像数
	Synthesized int64 `json:"synthesized"` // 生成的占位参考数
	RefMisses   int64 `json:"refmisses"`   // 参考图像查找未命中数
}

// Decode 解码统计接口
type Decode interface {
	AddIn(size int64)        // 增加码流读入
	AddOut(size int64)       // 增加引擎提交
	AddUnit()                // 增加 VCL 单元
	AddPicture()             // 增加解码图像
	AddPresented()           // 增加显示图像
	AddSynthesized(n int64)  // 增加占位参考
	AddRefMisses(n int64)    // 增加查找未命中
	GetSample() DecodeSample // 获取当前时点采样
}

func (s *DecodeSample) clone() DecodeSample {
	return DecodeSample{
		InBytes:     atomic.LoadInt64(&s.InBytes),
		OutBytes:    atomic.LoadInt64(&s.OutBytes),
		Units:       atomic.LoadInt64(&s.Units),
		Pictures:    atomic.LoadInt64(&s.Pictures),
		Presented:   atomic.LoadInt64(&s.Presented),
		Synthesized: atomic.LoadInt64(&s.Synthesized),
		RefMisses:   atomic.LoadInt64(&s.RefMisses),
	}
}

type decode struct {
	sample DecodeSample
}

// NewDecode 创建解码统计
func NewDecode() Decode {
	return &decode{}
}

func (d *decode) AddIn(size int64) {
	atomic.AddInt64(&d.sample.InBytes, size)
}

func (d *decode) AddOut(size int64) {
	atomic.AddInt64(&d.sample.OutBytes, size)
}

func (d *decode) AddUnit() {
	atomic.AddInt64(&d.sample.Units, 1)
}

func (d *decode) AddPicture() {
	atomic.AddInt64(&d.sample.Pictures, 1)
}

func (d *decode) AddPresented() {
	atomic.AddInt64(&d.sample.Presented, 1)
}

func (d *decode) AddSynthesized(n int64) {
	atomic.AddInt64(&d.sample.Synthesized, n)
}

func (d *decode) AddRefMisses(n int64) {
	atomic.AddInt64(&d.sample.RefMisses, n)
}

func (d *decode) GetSample() DecodeSample {
	return d.sample.clone()
}

type childDecode struct {
	parent Decode
	sample DecodeSample
}

// NewChildDecode 创建子统计，它会把自己的计数Add到parent上。
// 循环播放时每轮会话使用独立的子统计。
func NewChildDecode(parent Decode) Decode {
	return &childDecode{
		parent: parent,
	}
}

func (d *childDecode) AddIn(size int64) {
	atomic.AddInt64(&d.sample.InBytes, size)
	d.parent.AddIn(size)
}

func (d *childDecode) AddOut(size int64) {
	atomic.AddInt64(&d.sample.OutBytes, size)
	d.parent.AddOut(size)
}

func (d *childDecode) AddUnit() {
	atomic.AddInt64(&d.sample.Units, 1)
	d.parent.AddUnit()
}

func (d *childDecode) AddPicture() {
	atomic.AddInt64(&d.sample.Pictures, 1)
	d.parent.AddPicture()
}

func (d *childDecode) AddPresented() {
	atomic.AddInt64(&d.sample.Presented, 1)
	d.parent.AddPresented()
}

func (d *childDecode) AddSynthesized(n int64) {
	atomic.AddInt64(&d.sample.Synthesized, n)
	d.parent.AddSynthesized(n)
}

func (d *childDecode) AddRefMisses(n int64) {
	atomic.AddInt64(&d.sample.RefMisses, n)
	d.parent.AddRefMisses(n)
}

func (d *childDecode) GetSample() DecodeSample {
	return d.sample.clone()
}

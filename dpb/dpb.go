// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dpb 实现 H.265 解码图像缓冲区的参考图像管理，
// 包括 POC 解码、参考图像集合推导、图像移除与输出标志计算。
// 条款号均指 ITU-T H.265 标准文本。
package dpb

import (
	"github.com/cnotch/hevcplay/codec/hevc"
	"github.com/cnotch/xlog"
)

// PictureHandle 解码引擎持有的图像缓冲句柄，本包只登记不创建。
type PictureHandle uint32

// Mark 槽位中图像的参考标记；8.3.2。
type Mark uint8

// 参考标记取值
const (
	MarkUnused    Mark = iota // unused for reference
	MarkShortTerm             // used for short-term reference
	MarkLongTerm              // used for long-term reference
)

// A.4.1 level 5.1 的解码能力极限
const (
	maxLumaPs       = 8912896
	maxDpbPicBuf    = 6
	sqrtMaxLumaPsX8 = 8444 // Sqrt(MaxLumaPs*8)
)

// slot 缓冲区中的一个图像存储位
type slot struct {
	handle        PictureHandle
	hasHandle     bool
	poc           int32
	pocLsb        int32 // 短期查找可能仅按低位匹配
	mark          Mark
	outputPending bool
}

// follEntry Foll 集合中留存的一项参考；8.3.2。
// 未在缓冲区中命中的条目 resolved 为 false。
type follEntry struct {
	poc        int32
	msbPresent bool
	resolved   bool
	slot       int
}

// Context 一次码流解码会话的参考图像状态。
// 所有方法都只能在解码协程上调用。
type Context struct {
	maxDpbSize int
	fullness   int

	prevPocLsb int32 // 8.3.1 的 prevPicOrderCntLsb
	prevPocMsb int32

	firstPicture   bool
	handleCraAsBla bool

	// 逐图推导的标志，每个 VCL 单元重算
	noRaslOutputFlag    bool
	noOutputOfPriorPics bool

	slots [hevc.HEVC_MAX_DPB_SIZE]slot

	// 当前图像不引用但需为后续图像保留的两组集合
	stFoll    [hevc.HEVC_MAX_REFS]follEntry // RefPicSetStFoll
	ltFoll    [hevc.HEVC_MAX_REFS]follEntry // RefPicSetLtFoll
	numStFoll uint8
	numLtFoll uint8

	logger *xlog.Logger // 日志对象
}

// New 创建解码图像缓冲上下文。
func New(logger *xlog.Logger) *Context {
	if logger == nil {
		logger = xlog.L()
	}
	c := &Context{logger: logger}
	c.Reset()
	return c
}

// Reset 恢复到码流起始状态；循环播放复用同一实例。
// 配置项（handleCraAsBla）和已激活序列的 maxDpbSize 保留。
func (c *Context) Reset() {
	c.fullness = 0
	c.prevPocLsb = 0
	c.prevPocMsb = 0
	c.firstPicture = true
	c.noRaslOutputFlag = false
	c.noOutputOfPriorPics = false
	c.numStFoll = 0
	c.numLtFoll = 0
	for i := range c.slots {
		c.slots[i] = slot{}
	}
}

// SetHandleCraAsBla 设置把 CRA 当作 BLA 处理；8.1。
// 用于从 CRA 图像起播。
func (c *Context) SetHandleCraAsBla(v bool) {
	c.handleCraAsBla = v
}

// MarkSequenceEnd 处理序列结束单元，下一幅图像按首图处理。
func (c *Context) MarkSequenceEnd() {
	c.firstPicture = true
}

// ActivateSequence 在 SPS 生效时重算 maxDpbSize；A.4.1。
// 按 level 5.1 的图像尺寸分档。
func (c *Context) ActivateSequence(sps *hevc.H265RawSPS) {
	w := int(sps.Pic_width_in_luma_samples)
	h := int(sps.Pic_height_in_luma_samples)
	if w > sqrtMaxLumaPsX8 || h > sqrtMaxLumaPsX8 {
		c.logger.Errorf("picture size %dx%d is out of level 5.1 bounds", w, h)
	}

	picSizeInSamplesY := w * h
	switch {
	case picSizeInSamplesY <= maxLumaPs>>2:
		c.maxDpbSize = minInt(4*maxDpbPicBuf, hevc.HEVC_MAX_DPB_SIZE)
	case picSizeInSamplesY <= maxLumaPs>>1:
		c.maxDpbSize = minInt(2*maxDpbPicBuf, hevc.HEVC_MAX_DPB_SIZE)
	case picSizeInSamplesY <= (3*maxLumaPs)>>2:
		c.maxDpbSize = minInt(4*maxDpbPicBuf/3, hevc.HEVC_MAX_DPB_SIZE)
	default:
		c.maxDpbSize = maxDpbPicBuf
	}

	c.logger.Infof("sequence activated: %dx%d, maxDpbSize = %d",
		w, h, c.maxDpbSize)
}

// MaxDpbSize 当前序列的缓冲区容量
func (c *Context) MaxDpbSize() int { return c.maxDpbSize }

// Fullness 当前占用的槽位数
func (c *Context) Fullness() int { return c.fullness }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

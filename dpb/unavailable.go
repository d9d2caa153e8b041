// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dpb

import "github.com/cnotch/hevcplay/codec/hevc"

// PictureSynthesizer 由解码引擎实现，生成中性填充的占位图像；8.3.3.2。
type PictureSynthesizer interface {
	SynthesizePicture(poc int32) (PictureHandle, error)
}

// GenerateUnavailableReferences 为随机访问点声明、却不在缓冲区中的
// Foll 参考生成占位图像，返回生成的图像数；8.3.3。
// 仅对 BLA 图像或 NoRaslOutputFlag 置位的 CRA 图像执行。
// 合成失败或槽位不足只影响单个条目，不中断解码。
func (c *Context) GenerateUnavailableReferences(pic *PictureInfo, syn PictureSynthesizer) int {
	if !hevc.IsBlaType(pic.NalType) &&
		!(hevc.IsCraType(pic.NalType) && c.noRaslOutputFlag) {
		return 0
	}

	generated := 0
	for i := uint8(0); i < c.numStFoll; i++ {
		if !c.stFoll[i].resolved && c.synthesizeReference(&c.stFoll[i], MarkShortTerm, pic, syn) {
			generated++
		}
	}
	for i := uint8(0); i < c.numLtFoll; i++ {
		if !c.ltFoll[i].resolved && c.synthesizeReference(&c.ltFoll[i], MarkLongTerm, pic, syn) {
			generated++
		}
	}
	return generated
}

// synthesizeReference 占用一个空闲槽位存放占位图像，并把 Foll 条目
// 指向该槽。生成的图像不参与输出。
func (c *Context) synthesizeReference(e *follEntry, mark Mark, pic *PictureInfo, syn PictureSynthesizer) bool {
	target := -1
	for i := 0; i < len(c.slots) && i < c.maxDpbSize; i++ {
		if c.slots[i].mark == MarkUnused {
			target = i
			break
		}
	}
	if target < 0 {
		c.logger.Warnf("no unused slot for unavailable reference with POC: %d", e.poc)
		return false
	}

	handle, err := syn.SynthesizePicture(e.poc)
	if err != nil {
		c.logger.Warnf("synthesize reference with POC %d failed; %v", e.poc, err)
		return false
	}

	s := &c.slots[target]
	s.handle = handle
	s.hasHandle = true
	s.poc = e.poc
	s.pocLsb = e.poc
	if pic.maxPocLsb > 0 {
		s.pocLsb = e.poc & (pic.maxPocLsb - 1)
	}
	s.mark = mark
	s.outputPending = false
	c.fullness++

	e.resolved = true
	e.slot = target

	c.logger.Infof("generated unavailable reference with POC %d in slot %d", e.poc, target)
	return true
}

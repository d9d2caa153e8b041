// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dpb

import "github.com/cnotch/hevcplay/codec/hevc"

// RemovePictures 把不再需要的图像移出缓冲区；C.3.2。
// 必须紧随 DeriveReferencePictureSet 之后调用。
func (c *Context) RemovePictures(pic *PictureInfo, slice *hevc.H265RawSliceHeader) error {
	if pic.IdrPicFlag && c.noRaslOutputFlag {
		// 1. 推导 NoOutputOfPriorPicsFlag
		switch {
		case hevc.IsCraType(pic.NalType) && !c.firstPicture:
			c.noOutputOfPriorPics = true
		case c.firstPicture:
			// 标准未定义首图取值，在此按整体清空处理
			c.noOutputOfPriorPics = true
		default:
			c.noOutputOfPriorPics = slice.No_output_of_prior_pics_flag != 0
		}

		// 2. 应用：清空全部槽位
		if c.noOutputOfPriorPics {
			for i := range c.slots {
				c.slots[i] = slot{}
			}
			c.fullness = 0
		}
	}

	// 不再用于参考且没有输出义务的图像让出槽位
	for i := range c.slots {
		s := &c.slots[i]
		if s.hasHandle && s.mark == MarkUnused && !s.outputPending {
			s.handle = 0
			s.hasHandle = false
			c.fullness--
			if c.fullness < 0 {
				c.logger.Error("dpb fullness should not be negative")
				return ErrFullnessUnderflow
			}
		}
	}

	return nil
}

// AllocateSlot 为当前解码图像挑选存储位并标记占用；C.3.4。
// 总是返回编号最小的空闲槽位，并把片头的 POC 低位登记到槽上。
func (c *Context) AllocateSlot(pic *PictureInfo) (int, error) {
	for i := 0; i < len(c.slots) && i < c.maxDpbSize; i++ {
		if c.slots[i].mark == MarkUnused {
			c.slots[i].mark = MarkShortTerm
			c.slots[i].pocLsb = pic.PicOrderCntLsb
			c.fullness++
			return i, nil
		}
	}
	return 0, ErrDpbExhausted
}

// FinishPicture 解码完成后把图像的 POC 和句柄登记进槽位。
// 此后当前图像可作为后续图像的参考。
func (c *Context) FinishPicture(pic *PictureInfo, target int, handle PictureHandle) {
	c.slots[target].poc = pic.PicOrderCntVal
	c.slots[target].handle = handle
	c.slots[target].hasHandle = true
	c.firstPicture = false
}

// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dpb

import "github.com/cnotch/hevcplay/codec/hevc"

// DecodePictureOrderCount 计算当前图像的完整 POC；8.3.1。
// prevPocLsb/prevPocMsb 仅由最底时间子层的图像更新。
func (c *Context) DecodePictureOrderCount(pic *PictureInfo, slice *hevc.H265RawSliceHeader) {
	maxPocLsb := slice.SPS().MaxPicOrderCntLsb()
	lsb := int32(slice.Slice_pic_order_cnt_lsb)

	if pic.IdrPicFlag {
		c.prevPocLsb = 0
		c.prevPocMsb = 0
	}

	var msb int32
	switch {
	case pic.RapPicFlag && c.noRaslOutputFlag:
		msb = 0
	case lsb < c.prevPocLsb && c.prevPocLsb-lsb >= maxPocLsb/2:
		// (8-1) 低位回绕，高位进位
		msb = c.prevPocMsb + maxPocLsb
	case lsb > c.prevPocLsb && lsb-c.prevPocLsb > maxPocLsb/2:
		msb = c.prevPocMsb - maxPocLsb
	default:
		msb = c.prevPocMsb
	}

	// (8-2)
	pic.PicOrderCntVal = lsb + msb
	pic.PicOrderCntLsb = lsb
	pic.maxPocLsb = maxPocLsb

	if pic.TemporalID == 0 {
		c.prevPocLsb = lsb
		c.prevPocMsb = msb
	}
}

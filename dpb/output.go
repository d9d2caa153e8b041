// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dpb

import "github.com/cnotch/hevcplay/codec/hevc"

// CalculateOutputFlag 决定图像是否参与显示输出；8.1 第 2 步。
// NoRaslOutputFlag 置位时 RASL 图像被丢弃，不产生输出。
func (c *Context) CalculateOutputFlag(pic *PictureInfo, slice *hevc.H265RawSliceHeader, target int) {
	flag := slice.Pic_output_flag != 0
	if hevc.IsRaslType(pic.NalType) && c.noRaslOutputFlag {
		flag = false
	}

	c.slots[target].outputPending = flag
	pic.OutputFlag = flag
}

// ReleaseOutput 在图像交付显示环节后解除槽位的输出义务；C.3.3。
// 之后该槽位一旦不再用于参考即可被移除。
func (c *Context) ReleaseOutput(target int) {
	if target >= 0 && target < len(c.slots) {
		c.slots[target].outputPending = false
	}
}

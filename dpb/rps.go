// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dpb

import "github.com/cnotch/hevcplay/codec/hevc"

// DeriveReferencePictureSet 推导当前图像的参考图像集合；8.3.2。
// 生成 PocStCurrBefore、PocStCurrAfter、PocLtCurr 三组交给解码引擎的
// 列表，并把 StFoll、LtFoll 两组留存于上下文，供后续图像的移除判定
// 和不可用参考生成使用。作为副作用更新每个槽位的参考标记。
func (c *Context) DeriveReferencePictureSet(pic *PictureInfo, slice *hevc.H265RawSliceHeader) {
	if pic.IdrPicFlag && c.noRaslOutputFlag {
		for i := range c.slots {
			c.slots[i].mark = MarkUnused
		}
	}

	// (8-5) 五组 POC 列表；(7-43) 统计 NumPocTotalCurr
	var (
		pocStCurrBefore [hevc.HEVC_MAX_REFS]int32
		pocStCurrAfter  [hevc.HEVC_MAX_REFS]int32
		pocStFoll       [hevc.HEVC_MAX_REFS]int32
		pocLtCurr       [hevc.HEVC_MAX_REFS]int32
		pocLtFoll       [hevc.HEVC_MAX_REFS]int32
		currMsbPresent  [hevc.HEVC_MAX_REFS]bool
		follMsbPresent  [hevc.HEVC_MAX_REFS]bool
	)
	var numStCurrBefore, numStCurrAfter, numStFoll uint8
	var numLtCurr, numLtFoll uint8
	var numTotalCurr uint8

	stRPS := slice.ShortTermRPS()

	if !pic.IdrPicFlag {
		if stRPS != nil {
			// 负增量按序拆入 Before/Foll，正增量拆入 After/Foll
			for i := uint8(0); i < stRPS.NumNegativePics; i++ {
				poc := pic.PicOrderCntVal + stRPS.DeltaPocS0[i]
				if stRPS.UsedByCurrPicS0[i] != 0 {
					pocStCurrBefore[numStCurrBefore] = poc
					numStCurrBefore++
					numTotalCurr++
				} else {
					pocStFoll[numStFoll] = poc
					numStFoll++
				}
			}
			for i := uint8(0); i < stRPS.NumPositivePics; i++ {
				poc := pic.PicOrderCntVal + stRPS.DeltaPocS1[i]
				if stRPS.UsedByCurrPicS1[i] != 0 {
					pocStCurrAfter[numStCurrAfter] = poc
					numStCurrAfter++
					numTotalCurr++
				} else {
					pocStFoll[numStFoll] = poc
					numStFoll++
				}
			}
		}

		// 7.4.7.1 PocLsbLt 与 UsedByCurrPicLt 已在片头解码时就位，
		// SPS 条目在前、片头条目在后
		for i, n := 0, slice.NumLongTerm(); i < n; i++ {
			pocLt := int32(slice.PocLsbLt[i])
			if slice.Delta_poc_msb_present_flag[i] != 0 {
				// (8-5)，delta_poc_msb_cycle_lt 按语法原值参与计算
				pocLt += pic.PicOrderCntVal -
					int32(slice.Delta_poc_msb_cycle_lt[i])*pic.maxPocLsb -
					pic.PicOrderCntLsb
			}

			if slice.UsedByCurrPicLt[i] != 0 {
				pocLtCurr[numLtCurr] = pocLt
				currMsbPresent[numLtCurr] = slice.Delta_poc_msb_present_flag[i] != 0
				numLtCurr++
				numTotalCurr++
			} else {
				pocLtFoll[numLtFoll] = pocLt
				follMsbPresent[numLtFoll] = slice.Delta_poc_msb_present_flag[i] != 0
				numLtFoll++
			}
		}
	}

	// 第 1 步：长期参考的定位；(8-6)。
	// 带 MSB 修正的条目按完整 POC 匹配，否则仅按 POC 低位匹配。
	pic.LtCurr = RefList{Specified: numLtCurr}
	for i := uint8(0); i < numLtCurr; i++ {
		if idx, ok := c.findPicture(pic, pocLtCurr[i], false, !currMsbPresent[i]); ok {
			pic.LtCurr.Slots = append(pic.LtCurr.Slots, idx)
		}
	}
	for i := uint8(0); i < numLtFoll; i++ {
		e := follEntry{poc: pocLtFoll[i], msbPresent: follMsbPresent[i]}
		if idx, ok := c.findPicture(pic, pocLtFoll[i], false, !follMsbPresent[i]); ok {
			e.resolved = true
			e.slot = idx
		}
		c.ltFoll[i] = e
	}
	c.numLtFoll = numLtFoll

	// 第 2 步：长期参考标记，Curr 和 Foll 的命中都记入保留集合
	var inUse [hevc.HEVC_MAX_DPB_SIZE]bool
	for _, idx := range pic.LtCurr.Slots {
		c.slots[idx].mark = MarkLongTerm
		inUse[idx] = true
	}
	for i := uint8(0); i < c.numLtFoll; i++ {
		if c.ltFoll[i].resolved {
			c.slots[c.ltFoll[i].slot].mark = MarkLongTerm
			inUse[c.ltFoll[i].slot] = true
		}
	}

	// 第 3 步：短期参考的定位；(8-7)。匹配限定短期标记和完整 POC。
	pic.StCurrBefore = RefList{Specified: numStCurrBefore}
	for i := uint8(0); i < numStCurrBefore; i++ {
		if idx, ok := c.findPicture(pic, pocStCurrBefore[i], true, false); ok {
			pic.StCurrBefore.Slots = append(pic.StCurrBefore.Slots, idx)
			inUse[idx] = true
		}
	}

	pic.StCurrAfter = RefList{Specified: numStCurrAfter}
	for i := uint8(0); i < numStCurrAfter; i++ {
		if idx, ok := c.findPicture(pic, pocStCurrAfter[i], true, false); ok {
			pic.StCurrAfter.Slots = append(pic.StCurrAfter.Slots, idx)
			inUse[idx] = true
		}
	}

	for i := uint8(0); i < numStFoll; i++ {
		e := follEntry{poc: pocStFoll[i]}
		if idx, ok := c.findPicture(pic, pocStFoll[i], true, false); ok {
			e.resolved = true
			e.slot = idx
			inUse[idx] = true
		}
		c.stFoll[i] = e
	}
	c.numStFoll = numStFoll

	// 第 4 步：未被五组列表中任何一组选中的参考置为未用
	for i := 0; i < c.maxDpbSize && i < len(c.slots); i++ {
		if !inUse[i] {
			c.slots[i].mark = MarkUnused
		}
	}

	pic.NumPocTotalCurr = numTotalCurr
	if stRPS != nil {
		pic.NumDeltaPocsOfRefRpsIdx = stRPS.NumDeltaPocs()
	}
}

// findPicture 在缓冲区中查找持有指定 POC 的参考图像；(8-6)、(8-7)。
// shortTermOnly 限定仅匹配短期参考，lsbOnly 按 slice_pic_order_cnt_lsb
// 比较。未找到时记入 pic.LookupMisses 并返回 ok 为 false。
func (c *Context) findPicture(pic *PictureInfo, poc int32, shortTermOnly, lsbOnly bool) (int, bool) {
	for i := 0; i < len(c.slots) && i < c.maxDpbSize; i++ {
		s := &c.slots[i]
		if s.mark == MarkUnused {
			continue
		}
		if shortTermOnly && s.mark != MarkShortTerm {
			continue
		}

		v := s.poc
		if lsbOnly {
			v = s.pocLsb
		}
		if v == poc {
			return i, true
		}
	}

	c.logger.Warnf("unable to find pic in DPB with POC: %d", poc)
	pic.LookupMisses++
	return 0, false
}

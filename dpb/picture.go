// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dpb

import "github.com/cnotch/hevcplay/codec/hevc"

// RefList 一组解析后的参考图像列表。
// Specified 是码流声明的条目数；Slots 仅收录在缓冲区中命中的槽位，
// 未命中的条目被跳过，因此 len(Slots) 可能小于 Specified。
type RefList struct {
	Specified uint8
	Slots     []int
}

// PictureInfo 当前解码图像的逐图信息。
// 由 BeginPicture 创建，随解码流程逐步填充，最终交给解码引擎。
type PictureInfo struct {
	NalType    uint8
	TemporalID uint8

	IdrPicFlag bool // IDR_W_RADL 或 IDR_N_LP；7.4.2.2
	RapPicFlag bool // BLA_W_LP..RSV_IRAP_VCL23

	PicOrderCntVal int32 // 8.3.1 的输出
	PicOrderCntLsb int32 // slice_pic_order_cnt_lsb
	maxPocLsb      int32

	// 交给解码引擎的三组 Curr 列表；8.3.2
	StCurrBefore RefList // RefPicSetStCurrBefore
	StCurrAfter  RefList // RefPicSetStCurrAfter
	LtCurr       RefList // RefPicSetLtCurr

	NumPocTotalCurr         uint8 // (7-43)
	NumDeltaPocsOfRefRpsIdx uint8

	// 本图推导过程中未在缓冲区命中的参考条目数
	LookupMisses uint32

	OutputFlag bool
}

// BeginPicture 开始处理一幅新图像，分类 NAL 类型并推导
// 本图的 NoRaslOutputFlag；8.1。
func (c *Context) BeginPicture(nalType, temporalID uint8) *PictureInfo {
	pic := &PictureInfo{
		NalType:    nalType,
		TemporalID: temporalID,
		IdrPicFlag: hevc.IsIdrType(nalType),
		RapPicFlag: hevc.IsRapType(nalType),
	}

	switch {
	case pic.IdrPicFlag || hevc.IsBlaType(nalType) || c.firstPicture:
		// 首图包括码流起始和序列结束单元之后的第一幅图像
		c.noRaslOutputFlag = true
	case c.handleCraAsBla:
		c.noRaslOutputFlag = true
	default:
		c.noRaslOutputFlag = false
	}

	return pic
}

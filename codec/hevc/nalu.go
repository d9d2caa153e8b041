// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"github.com/cnotch/hevcplay/utils/bits"
)

// H265RawNALUnitHeader NAL 单元头；7.3.1.2。
type H265RawNALUnitHeader struct {
	Nal_unit_type         uint8
	Nuh_layer_id          uint8
	Nuh_temporal_id_plus1 uint8
}

func (h *H265RawNALUnitHeader) decode(r *bits.Reader) (err error) {
	r.Skip(1) //forbidden_zero_bit
	h.Nal_unit_type = r.ReadUint8(6)
	h.Nuh_layer_id = r.ReadUint8(6)
	h.Nuh_temporal_id_plus1 = r.ReadUint8(3)
	return
}

// TemporalID 时域子层标识 TemporalId；7.4.2.2。
func (h *H265RawNALUnitHeader) TemporalID() uint8 {
	return h.Nuh_temporal_id_plus1 - 1
}

// NALUnit 字节流中提取的单个 NAL 单元。
// Data 含 2 字节单元头，防竞争字节未去除。
type NALUnit struct {
	Header H265RawNALUnitHeader
	Data   []byte
}

// Type NAL 单元类型
func (n NALUnit) Type() uint8 { return n.Header.Nal_unit_type }

// IsVCL 是否视频编码层单元；Table 7-1。
func (n NALUnit) IsVCL() bool { return n.Header.Nal_unit_type < NalVps }

// FirstSliceSegmentInPic 片头首个语法元素
// first_slice_segment_in_pic_flag；7.3.6.1。
func (n NALUnit) FirstSliceSegmentInPic() bool {
	return len(n.Data) > 2 && n.Data[2]&0x80 != 0
}

// IsIdrType IDR 图像；7.4.2.2。
func IsIdrType(nalType uint8) bool {
	return nalType == NalIdrWRadl || nalType == NalIdrNLp
}

// IsBlaType BLA 图像
func IsBlaType(nalType uint8) bool {
	return nalType >= NalBlaWLp && nalType <= NalBlaNLp
}

// IsCraType CRA 图像
func IsCraType(nalType uint8) bool {
	return nalType == NalCraNut
}

// IsRaslType RASL 图像
func IsRaslType(nalType uint8) bool {
	return nalType == NalRaslN || nalType == NalRaslR
}

// IsRapType IRAP 图像（BLA、IDR、CRA 及保留的 IRAP 类型）
func IsRapType(nalType uint8) bool {
	return nalType >= NalBlaWLp && nalType <= NalIrapVcl23
}

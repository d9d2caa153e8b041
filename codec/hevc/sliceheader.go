// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/cnotch/hevcplay/utils/bits"
)

// H265RawSliceHeader 片段头中图像级参考管理所需的前缀；7.3.6.1。
// 长期参考块之后的字段（TMVP、SAO、加权预测表等）不再解析。
//
// PocLsbLt/UsedByCurrPicLt 是按 7.4.7.1 合并 SPS 表与片内条目
// 后的导出数组，下标为长期参考的全局序号。
type H265RawSliceHeader struct {
	Nal_unit_header H265RawNALUnitHeader

	First_slice_segment_in_pic_flag uint8
	No_output_of_prior_pics_flag    uint8
	Slice_pic_parameter_set_id      uint8

	Dependent_slice_segment_flag uint8
	Slice_segment_address        uint32

	Slice_type      uint8
	Pic_output_flag uint8
	Colour_plane_id uint8

	Slice_pic_order_cnt_lsb uint16

	Short_term_ref_pic_set_sps_flag uint8
	Short_term_ref_pic_set          H265RawSTRefPicSet
	Short_term_ref_pic_set_idx      uint8

	Num_long_term_sps          uint8
	Num_long_term_pics         uint8
	Lt_idx_sps                 [HEVC_MAX_REFS]uint8
	Poc_lsb_lt                 [HEVC_MAX_REFS]uint16
	Used_by_curr_pic_lt_flag   [HEVC_MAX_REFS]uint8
	Delta_poc_msb_present_flag [HEVC_MAX_REFS]uint8
	Delta_poc_msb_cycle_lt     [HEVC_MAX_REFS]uint32

	PocLsbLt        [HEVC_MAX_REFS]uint16
	UsedByCurrPicLt [HEVC_MAX_REFS]uint8

	NumShortTermPictureSliceHeaderBits uint32
	NumLongTermPictureSliceHeaderBits  uint32
	NumDeltaPocsOfRefRpsIdx            uint8

	sps *H265RawSPS
	pps *H265RawPPS
}

// Type NAL 单元类型
func (sh *H265RawSliceHeader) Type() uint8 {
	return sh.Nal_unit_header.Nal_unit_type
}

// SPS 片头激活的序列参数集
func (sh *H265RawSliceHeader) SPS() *H265RawSPS { return sh.sps }

// PPS 片头引用的图像参数集
func (sh *H265RawSliceHeader) PPS() *H265RawPPS { return sh.pps }

// NumLongTerm 长期参考条目总数 num_long_term_sps + num_long_term_pics
func (sh *H265RawSliceHeader) NumLongTerm() int {
	return int(sh.Num_long_term_sps) + int(sh.Num_long_term_pics)
}

// ShortTermRPS 片头生效的短期参考图像集。
// IDR 图像或集合不可用时返回 nil，视为空集。
func (sh *H265RawSliceHeader) ShortTermRPS() *H265RawSTRefPicSet {
	if IsIdrType(sh.Nal_unit_header.Nal_unit_type) {
		return nil
	}
	if sh.Short_term_ref_pic_set_sps_flag == 1 {
		if sh.sps == nil || int(sh.Short_term_ref_pic_set_idx) >= len(sh.sps.St_ref_pic_set) {
			return nil
		}
		return &sh.sps.St_ref_pic_set[sh.Short_term_ref_pic_set_idx]
	}
	return &sh.Short_term_ref_pic_set
}

// Decode 从 VCL NAL 字节序列中解码片段头前缀。
// 参数集从 pool 中按片头引用解析。
func (sh *H265RawSliceHeader) Decode(data []byte, pool *ParameterSetPool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("RawSliceHeader decode panic；r = %v \n %s", r, debug.Stack())
		}
	}()

	slcWEB := RemoveEmulationBytes(data)
	if len(slcWEB) < 3 {
		return errors.New("The data is not enough")
	}

	r := bits.NewReader(slcWEB)
	if err = sh.Nal_unit_header.decode(r); err != nil {
		return
	}

	nut := sh.Nal_unit_header.Nal_unit_type
	if nut >= NalVps {
		return errors.New("not is slice NAL UNIT")
	}

	sh.First_slice_segment_in_pic_flag = r.ReadBit()
	if IsRapType(nut) {
		sh.No_output_of_prior_pics_flag = r.ReadBit()
	}

	sh.Slice_pic_parameter_set_id = r.ReadUe8()
	sps, pps, err := pool.ActiveParameterSets(sh.Slice_pic_parameter_set_id)
	if err != nil {
		return err
	}
	sh.sps, sh.pps = sps, pps

	if sh.First_slice_segment_in_pic_flag == 0 {
		if pps.Dependent_slice_segments_enabled_flag == 1 {
			sh.Dependent_slice_segment_flag = r.ReadBit()
		}
		sh.Slice_segment_address = r.Read(ceilLog2(sps.PicSizeInCtbsY()))
	} else {
		sh.Dependent_slice_segment_flag = 0
	}

	if sh.Dependent_slice_segment_flag == 1 {
		// 依赖片段沿用所在图像首个独立片段的图像级字段
		return
	}

	r.Skip(int(pps.Num_extra_slice_header_bits)) // slice_reserved_flag

	sh.Slice_type = r.ReadUe8()
	if sh.Slice_type > SliceI {
		return fmt.Errorf("Invalid slice_type: %d", sh.Slice_type)
	}

	if pps.Output_flag_present_flag == 1 {
		sh.Pic_output_flag = r.ReadBit()
	} else {
		sh.Pic_output_flag = 1
	}

	if sps.Separate_colour_plane_flag == 1 {
		sh.Colour_plane_id = r.ReadUint8(2)
	}

	if IsIdrType(nut) {
		return
	}

	sh.Slice_pic_order_cnt_lsb = r.ReadUint16(sps.PocLsbBits())

	sh.Short_term_ref_pic_set_sps_flag = r.ReadBit()
	if sh.Short_term_ref_pic_set_sps_flag == 0 {
		stStart := r.Offset()
		if err = sh.Short_term_ref_pic_set.decode(r, sps.Num_short_term_ref_pic_sets, sps); err != nil {
			return
		}
		sh.NumShortTermPictureSliceHeaderBits = uint32(r.Offset() - stStart)

		if sh.Short_term_ref_pic_set.Inter_ref_pic_set_prediction_flag == 1 {
			refIdx := sps.Num_short_term_ref_pic_sets -
				(sh.Short_term_ref_pic_set.Delta_idx_minus1 + 1)
			sh.NumDeltaPocsOfRefRpsIdx = sps.St_ref_pic_set[refIdx].NumDeltaPocs()
		}
	} else if sps.Num_short_term_ref_pic_sets > 1 {
		sh.Short_term_ref_pic_set_idx =
			uint8(r.Read(ceilLog2(int(sps.Num_short_term_ref_pic_sets))))
		if sh.Short_term_ref_pic_set_idx >= sps.Num_short_term_ref_pic_sets {
			return fmt.Errorf("Invalid short_term_ref_pic_set_idx: %d",
				sh.Short_term_ref_pic_set_idx)
		}
	}

	if sps.Long_term_ref_pics_present_flag == 1 {
		ltStart := r.Offset()

		if sps.Num_long_term_ref_pics_sps > 0 {
			sh.Num_long_term_sps = r.ReadUe8()
			if sh.Num_long_term_sps > sps.Num_long_term_ref_pics_sps {
				return fmt.Errorf("Invalid num_long_term_sps: %d", sh.Num_long_term_sps)
			}
		}
		sh.Num_long_term_pics = r.ReadUe8()
		if sh.NumLongTerm() > HEVC_MAX_REFS {
			return fmt.Errorf("Invalid stream: %d long-term references", sh.NumLongTerm())
		}

		for i := 0; i < sh.NumLongTerm(); i++ {
			if i < int(sh.Num_long_term_sps) {
				if sps.Num_long_term_ref_pics_sps > 1 {
					sh.Lt_idx_sps[i] =
						uint8(r.Read(ceilLog2(int(sps.Num_long_term_ref_pics_sps))))
					if sh.Lt_idx_sps[i] >= sps.Num_long_term_ref_pics_sps {
						return fmt.Errorf("Invalid lt_idx_sps: %d", sh.Lt_idx_sps[i])
					}
				}
				sh.PocLsbLt[i] = sps.Lt_ref_pic_poc_lsb_sps[sh.Lt_idx_sps[i]]
				sh.UsedByCurrPicLt[i] = sps.Used_by_curr_pic_lt_sps_flag[sh.Lt_idx_sps[i]]
			} else {
				sh.Poc_lsb_lt[i] = r.ReadUint16(sps.PocLsbBits())
				sh.Used_by_curr_pic_lt_flag[i] = r.ReadBit()
				sh.PocLsbLt[i] = sh.Poc_lsb_lt[i]
				sh.UsedByCurrPicLt[i] = sh.Used_by_curr_pic_lt_flag[i]
			}
			sh.Delta_poc_msb_present_flag[i] = r.ReadBit()
			if sh.Delta_poc_msb_present_flag[i] == 1 {
				sh.Delta_poc_msb_cycle_lt[i] = r.ReadUe()
			}
		}

		sh.NumLongTermPictureSliceHeaderBits = uint32(r.Offset() - ltStart)
	}

	// 后续字段与参考管理无关，不再消费

	return
}

// ceilLog2 Ceil(Log2(n))，u(v) 语法元素的位宽计算
func ceilLog2(n int) int {
	b := 0
	for (1 << b) < n {
		b++
	}
	return b
}

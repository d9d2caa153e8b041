// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
//
// Translate from FFmpeg cbs_h265.h cbs_h265_syntax_template.c
//
package hevc

import (
	"encoding/base64"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/cnotch/hevcplay/utils/bits"
)

type H265RawScalingList struct {
	scaling_list_pred_mode_flag       [4][6]uint8
	scaling_list_pred_matrix_id_delta [4][6]uint8
	scaling_list_dc_coef_minus8       [4][6]int16
	scaling_list_delta_coeff          [4][6][64]int8
}

func (sl *H265RawScalingList) decode(r *bits.Reader) error {
	for sizeId := 0; sizeId < 4; sizeId++ {
		step := 1 // (sizeId == 3 ? 3 : 1)
		if sizeId == 3 {
			step = 3
		}
		for matrixId := 0; matrixId < 6; matrixId += step {
			sl.scaling_list_pred_mode_flag[sizeId][matrixId] = r.ReadBit()
			if sl.scaling_list_pred_mode_flag[sizeId][matrixId] == 0 {
				sl.scaling_list_pred_matrix_id_delta[sizeId][matrixId] = r.ReadUe8()
			} else {
				n := 1 << (4 + (sizeId << 1))
				if n > 64 {
					n = 64
				}
				if sizeId > 1 {
					sl.scaling_list_dc_coef_minus8[sizeId-2][matrixId] = r.ReadSe16()
				}
				for i := 0; i < n; i++ {
					sl.scaling_list_delta_coeff[sizeId][matrixId][i] = r.ReadSe8()
				}
			}
		}
	}
	return nil
}

// H265RawProfileTierLevel profile_tier_level 中回放关心的部分；7.3.3。
// 约束标志位只按位宽跳过。
type H265RawProfileTierLevel struct {
	General_profile_space uint8
	General_tier_flag     uint8
	General_profile_idc   uint8

	GeneralProfileCompatibilityFlags uint32 // shortcut flags 32bits

	General_progressive_source_flag    uint8
	General_interlaced_source_flag     uint8
	General_non_packed_constraint_flag uint8
	General_frame_only_constraint_flag uint8

	General_level_idc uint8

	Sub_layer_profile_present_flag [HEVC_MAX_SUB_LAYERS]uint8
	Sub_layer_level_present_flag   [HEVC_MAX_SUB_LAYERS]uint8
	Sub_layer_level_idc            [HEVC_MAX_SUB_LAYERS]uint8
}

func (ptl *H265RawProfileTierLevel) decode(r *bits.Reader,
	profile_present_flag bool, max_num_sub_layers_minus1 int) (err error) {

	if profile_present_flag {
		ptl.General_profile_space = r.ReadUint8(2)
		ptl.General_tier_flag = r.ReadBit()
		ptl.General_profile_idc = r.ReadUint8(5)

		ptl.GeneralProfileCompatibilityFlags = uint32(r.Peek(32))
		r.Skip(32)

		ptl.General_progressive_source_flag = r.ReadBit()
		ptl.General_interlaced_source_flag = r.ReadBit()
		ptl.General_non_packed_constraint_flag = r.ReadBit()
		ptl.General_frame_only_constraint_flag = r.ReadBit()

		// 约束标志与保留位合计 44 bit，与 profile 分支无关
		r.Skip(44)
	}

	ptl.General_level_idc = r.ReadUint8(8)

	for i := 0; i < max_num_sub_layers_minus1; i++ {
		ptl.Sub_layer_profile_present_flag[i] = r.ReadBit()
		ptl.Sub_layer_level_present_flag[i] = r.ReadBit()
	}

	if max_num_sub_layers_minus1 > 0 {
		for i := max_num_sub_layers_minus1; i < 8; i++ {
			r.Skip(2) // reserved_zero_2bits
		}
	}

	for i := 0; i < max_num_sub_layers_minus1; i++ {
		if ptl.Sub_layer_profile_present_flag[i] == 1 {
			r.Skip(88) // sub_layer profile 块定长 88 bit
		}
		if ptl.Sub_layer_level_present_flag[i] == 1 {
			ptl.Sub_layer_level_idc[i] = r.ReadUint8(8)
		}
	}
	return
}

// H265RawVUI VUI 中到定时信息为止的部分；E.2.1。
// 其后的 HRD 与码流限制字段与回放无关，不再解析。
type H265RawVUI struct {
	Aspect_ratio_info_present_flag uint8
	Aspect_ratio_idc               uint8
	Sar_width                      uint16
	Sar_height                     uint16

	Overscan_info_present_flag uint8
	Overscan_appropriate_flag  uint8

	Video_signal_type_present_flag  uint8
	Video_format                    uint8
	Video_full_range_flag           uint8
	Colour_description_present_flag uint8
	Colour_primaries                uint8
	Transfer_characteristics        uint8
	Matrix_coefficients             uint8

	Chroma_loc_info_present_flag        uint8
	Chroma_sample_loc_type_top_field    uint8
	Chroma_sample_loc_type_bottom_field uint8

	Neutral_chroma_indication_flag uint8
	Field_seq_flag                 uint8
	Frame_field_info_present_flag  uint8

	Default_display_window_flag uint8
	Def_disp_win_left_offset    uint16
	Def_disp_win_right_offset   uint16
	Def_disp_win_top_offset     uint16
	Def_disp_win_bottom_offset  uint16

	Vui_timing_info_present_flag        uint8
	Vui_num_units_in_tick               uint32
	Vui_time_scale                      uint32
	Vui_poc_proportional_to_timing_flag uint8
	Vui_num_ticks_poc_diff_one_minus1   uint32
}

func (vui *H265RawVUI) setDefault(sps *H265RawSPS) {
	vui.Aspect_ratio_idc = 0

	vui.Video_format = 5
	vui.Video_full_range_flag = 0
	vui.Colour_primaries = 2
	vui.Transfer_characteristics = 2
	vui.Matrix_coefficients = 2

	vui.Chroma_sample_loc_type_top_field = 0
	vui.Chroma_sample_loc_type_bottom_field = 0
}

func (vui *H265RawVUI) decode(r *bits.Reader, sps *H265RawSPS) error {
	vui.Aspect_ratio_info_present_flag = r.ReadBit()
	if vui.Aspect_ratio_info_present_flag == 1 {
		vui.Aspect_ratio_idc = r.ReadUint8(8)
		if vui.Aspect_ratio_idc == 255 {
			vui.Sar_width = r.ReadUint16(16)
			vui.Sar_height = r.ReadUint16(16)
		}
	} else {
		vui.Aspect_ratio_idc = 0
	}

	vui.Overscan_info_present_flag = r.ReadBit()
	if vui.Overscan_info_present_flag == 1 {
		vui.Overscan_appropriate_flag = r.ReadBit()
	}

	vui.Video_signal_type_present_flag = r.ReadBit()
	if vui.Video_signal_type_present_flag == 1 {
		vui.Video_format = r.ReadUint8(3)
		vui.Video_full_range_flag = r.ReadBit()
		vui.Colour_description_present_flag = r.ReadBit()
		if vui.Colour_description_present_flag == 1 {
			vui.Colour_primaries = r.ReadUint8(8)
			vui.Transfer_characteristics = r.ReadUint8(8)
			vui.Matrix_coefficients = r.ReadUint8(8)
		} else {
			vui.Colour_primaries = 2
			vui.Transfer_characteristics = 2
			vui.Matrix_coefficients = 2
		}
	} else {
		vui.Video_format = 5
		vui.Video_full_range_flag = 0
		vui.Colour_primaries = 2
		vui.Transfer_characteristics = 2
		vui.Matrix_coefficients = 2
	}

	vui.Chroma_loc_info_present_flag = r.ReadBit()
	if vui.Chroma_loc_info_present_flag == 1 {
		vui.Chroma_sample_loc_type_top_field = r.ReadUe8()
		vui.Chroma_sample_loc_type_bottom_field = r.ReadUe8()
	} else {
		vui.Chroma_sample_loc_type_top_field = 0
		vui.Chroma_sample_loc_type_bottom_field = 0
	}

	vui.Neutral_chroma_indication_flag = r.ReadBit()
	vui.Field_seq_flag = r.ReadBit()
	vui.Frame_field_info_present_flag = r.ReadBit()

	vui.Default_display_window_flag = r.ReadBit()
	if vui.Default_display_window_flag == 1 {
		vui.Def_disp_win_left_offset = r.ReadUe16()
		vui.Def_disp_win_right_offset = r.ReadUe16()
		vui.Def_disp_win_top_offset = r.ReadUe16()
		vui.Def_disp_win_bottom_offset = r.ReadUe16()
	}

	vui.Vui_timing_info_present_flag = r.ReadBit()
	if vui.Vui_timing_info_present_flag == 1 {
		vui.Vui_num_units_in_tick = r.ReadUint32(32)
		vui.Vui_time_scale = r.ReadUint32(32)
		vui.Vui_poc_proportional_to_timing_flag = r.ReadBit()
		if vui.Vui_poc_proportional_to_timing_flag == 1 {
			vui.Vui_num_ticks_poc_diff_one_minus1 = r.ReadUe()
		}
	}

	// 后续 HRD、bitstream_restriction 不再消费
	return nil
}

// H265RawSTRefPicSet 短期参考图像集；7.3.7。
// 无论码流采用直接形式还是集合间预测，解码后统一保存
// 7.4.8 推导完成的 DeltaPoc 形式。
type H265RawSTRefPicSet struct {
	Inter_ref_pic_set_prediction_flag uint8

	Delta_idx_minus1     uint8
	Delta_rps_sign       uint8
	Abs_delta_rps_minus1 uint16

	NumNegativePics uint8
	NumPositivePics uint8
	DeltaPocS0      [HEVC_MAX_REFS]int32
	UsedByCurrPicS0 [HEVC_MAX_REFS]uint8
	DeltaPocS1      [HEVC_MAX_REFS]int32
	UsedByCurrPicS1 [HEVC_MAX_REFS]uint8
}

// NumDeltaPocs 集合中的图像总数；7.4.8。
func (ps *H265RawSTRefPicSet) NumDeltaPocs() uint8 {
	return ps.NumNegativePics + ps.NumPositivePics
}

func (ps *H265RawSTRefPicSet) decode(r *bits.Reader, st_rps_idx uint8, sps *H265RawSPS) error {
	if st_rps_idx != 0 {
		ps.Inter_ref_pic_set_prediction_flag = r.ReadBit()
	} else {
		ps.Inter_ref_pic_set_prediction_flag = 0
	}

	if ps.Inter_ref_pic_set_prediction_flag == 1 {
		var used_by_curr_pic_flag, use_delta_flag [HEVC_MAX_REFS + 1]uint8

		if st_rps_idx == sps.Num_short_term_ref_pic_sets {
			ps.Delta_idx_minus1 = r.ReadUe8()
		} else {
			ps.Delta_idx_minus1 = 0
		}
		if ps.Delta_idx_minus1+1 > st_rps_idx {
			return errors.New("Invalid stream: delta_idx_minus1 out of range")
		}

		ref_rps_idx := st_rps_idx - (ps.Delta_idx_minus1 + 1)
		ref := &sps.St_ref_pic_set[ref_rps_idx]
		num_delta_pocs := int(ref.NumDeltaPocs())

		ps.Delta_rps_sign = r.ReadBit()
		ps.Abs_delta_rps_minus1 = r.ReadUe16()
		delta_rps := (1 - 2*int32(ps.Delta_rps_sign)) * int32(ps.Abs_delta_rps_minus1+1)

		num_ref_pics := 0
		for j := 0; j <= num_delta_pocs; j++ {
			used_by_curr_pic_flag[j] = r.ReadBit()
			if used_by_curr_pic_flag[j] == 0 {
				use_delta_flag[j] = r.ReadBit()
			} else {
				use_delta_flag[j] = 1
			}
			if use_delta_flag[j] == 1 {
				num_ref_pics++
			}
		}
		if num_ref_pics >= HEVC_MAX_DPB_SIZE {
			return errors.New("Invalid stream: short-term ref pic set contains too many pictures")
		}

		// 7.4.8 的集合间预测推导，直接产出按 |DeltaPoc| 升序的两组
		i := 0
		for j := int(ref.NumPositivePics) - 1; j >= 0; j-- {
			dPoc := ref.DeltaPocS1[j] + delta_rps
			if dPoc < 0 && use_delta_flag[int(ref.NumNegativePics)+j] == 1 {
				ps.DeltaPocS0[i] = dPoc
				ps.UsedByCurrPicS0[i] = used_by_curr_pic_flag[int(ref.NumNegativePics)+j]
				i++
			}
		}
		if delta_rps < 0 && use_delta_flag[num_delta_pocs] == 1 {
			ps.DeltaPocS0[i] = delta_rps
			ps.UsedByCurrPicS0[i] = used_by_curr_pic_flag[num_delta_pocs]
			i++
		}
		for j := 0; j < int(ref.NumNegativePics); j++ {
			dPoc := ref.DeltaPocS0[j] + delta_rps
			if dPoc < 0 && use_delta_flag[j] == 1 {
				ps.DeltaPocS0[i] = dPoc
				ps.UsedByCurrPicS0[i] = used_by_curr_pic_flag[j]
				i++
			}
		}
		ps.NumNegativePics = uint8(i)

		i = 0
		for j := int(ref.NumNegativePics) - 1; j >= 0; j-- {
			dPoc := ref.DeltaPocS0[j] + delta_rps
			if dPoc > 0 && use_delta_flag[j] == 1 {
				ps.DeltaPocS1[i] = dPoc
				ps.UsedByCurrPicS1[i] = used_by_curr_pic_flag[j]
				i++
			}
		}
		if delta_rps > 0 && use_delta_flag[num_delta_pocs] == 1 {
			ps.DeltaPocS1[i] = delta_rps
			ps.UsedByCurrPicS1[i] = used_by_curr_pic_flag[num_delta_pocs]
			i++
		}
		for j := 0; j < int(ref.NumPositivePics); j++ {
			dPoc := ref.DeltaPocS1[j] + delta_rps
			if dPoc > 0 && use_delta_flag[int(ref.NumNegativePics)+j] == 1 {
				ps.DeltaPocS1[i] = dPoc
				ps.UsedByCurrPicS1[i] = used_by_curr_pic_flag[int(ref.NumNegativePics)+j]
				i++
			}
		}
		ps.NumPositivePics = uint8(i)
	} else {
		ps.NumNegativePics = r.ReadUe8()
		ps.NumPositivePics = r.ReadUe8()
		if int(ps.NumNegativePics)+int(ps.NumPositivePics) > HEVC_MAX_REFS {
			return errors.New("Invalid stream: short-term ref pic set contains too many pictures")
		}

		dPoc := int32(0)
		for i := 0; i < int(ps.NumNegativePics); i++ {
			dPoc -= int32(r.ReadUe16()) + 1 // delta_poc_s0_minus1
			ps.DeltaPocS0[i] = dPoc
			ps.UsedByCurrPicS0[i] = r.ReadBit()
		}
		dPoc = 0
		for i := 0; i < int(ps.NumPositivePics); i++ {
			dPoc += int32(r.ReadUe16()) + 1 // delta_poc_s1_minus1
			ps.DeltaPocS1[i] = dPoc
			ps.UsedByCurrPicS1[i] = r.ReadBit()
		}
	}

	return nil
}

type H265RawSPS struct {
	Nal_unit_header H265RawNALUnitHeader

	Sps_video_parameter_set_id uint8

	Sps_max_sub_layers_minus1    uint8
	Sps_temporal_id_nesting_flag uint8

	Profile_tier_level H265RawProfileTierLevel

	Sps_seq_parameter_set_id uint8

	Chroma_format_idc          uint8
	Separate_colour_plane_flag uint8

	Pic_width_in_luma_samples  uint16
	Pic_height_in_luma_samples uint16

	Conformance_window_flag uint8
	Conf_win_left_offset    uint16
	Conf_win_right_offset   uint16
	Conf_win_top_offset     uint16
	Conf_win_bottom_offset  uint16

	Bit_depth_luma_minus8   uint8
	Bit_depth_chroma_minus8 uint8

	Log2_max_pic_order_cnt_lsb_minus4 uint8

	Sps_sub_layer_ordering_info_present_flag uint8
	Sps_max_dec_pic_buffering_minus1         [HEVC_MAX_SUB_LAYERS]uint8
	Sps_max_num_reorder_pics                 [HEVC_MAX_SUB_LAYERS]uint8
	Sps_max_latency_increase_plus1           [HEVC_MAX_SUB_LAYERS]uint32

	Log2_min_luma_coding_block_size_minus3      uint8
	Log2_diff_max_min_luma_coding_block_size    uint8
	Log2_min_luma_transform_block_size_minus2   uint8
	Log2_diff_max_min_luma_transform_block_size uint8
	Max_transform_hierarchy_depth_inter         uint8
	Max_transform_hierarchy_depth_intra         uint8

	Scaling_list_enabled_flag          uint8
	Sps_scaling_list_data_present_flag uint8
	Scaling_list                       *H265RawScalingList

	Amp_enabled_flag                    uint8
	Sample_adaptive_offset_enabled_flag uint8

	Pcm_enabled_flag                             uint8
	Pcm_sample_bit_depth_luma_minus1             uint8
	Pcm_sample_bit_depth_chroma_minus1           uint8
	Log2_min_pcm_luma_coding_block_size_minus3   uint8
	Log2_diff_max_min_pcm_luma_coding_block_size uint8
	Pcm_loop_filter_disabled_flag                uint8

	Num_short_term_ref_pic_sets uint8
	St_ref_pic_set              []H265RawSTRefPicSet

	Long_term_ref_pics_present_flag uint8
	Num_long_term_ref_pics_sps      uint8
	Lt_ref_pic_poc_lsb_sps          [HEVC_MAX_LONG_TERM_REF_PICS]uint16
	Used_by_curr_pic_lt_sps_flag    [HEVC_MAX_LONG_TERM_REF_PICS]uint8

	Sps_temporal_mvp_enabled_flag       uint8
	Strong_intra_smoothing_enabled_flag uint8

	Vui_parameters_present_flag uint8
	Vui                         H265RawVUI
}

// Width 视频宽度（像素）
func (sps *H265RawSPS) Width() int {
	return int(sps.Pic_width_in_luma_samples)
}

// Height 视频高度（像素）
func (sps *H265RawSPS) Height() int {
	return int(sps.Pic_height_in_luma_samples)
}

// FrameRate Video frame rate
func (sps *H265RawSPS) FrameRate() float64 {
	if sps.Vui.Vui_num_units_in_tick == 0 {
		return 0.0
	}
	return float64(sps.Vui.Vui_time_scale) / float64(sps.Vui.Vui_num_units_in_tick)
}

// MaxPicOrderCntLsb 2^(log2_max_pic_order_cnt_lsb_minus4+4)；7.4.3.2.1。
func (sps *H265RawSPS) MaxPicOrderCntLsb() int32 {
	return 1 << (sps.Log2_max_pic_order_cnt_lsb_minus4 + 4)
}

// PocLsbBits slice_pic_order_cnt_lsb 的位宽
func (sps *H265RawSPS) PocLsbBits() int {
	return int(sps.Log2_max_pic_order_cnt_lsb_minus4) + 4
}

// CtbLog2SizeY 编码树块亮度尺寸的对数；7.4.3.2.1。
func (sps *H265RawSPS) CtbLog2SizeY() uint {
	return uint(sps.Log2_min_luma_coding_block_size_minus3) + 3 +
		uint(sps.Log2_diff_max_min_luma_coding_block_size)
}

// PicSizeInCtbsY 图像包含的编码树块总数；7.4.3.2.1。
func (sps *H265RawSPS) PicSizeInCtbsY() int {
	ctbSize := 1 << sps.CtbLog2SizeY()
	w := (int(sps.Pic_width_in_luma_samples) + ctbSize - 1) / ctbSize
	h := (int(sps.Pic_height_in_luma_samples) + ctbSize - 1) / ctbSize
	return w * h
}

// DecodeString 从 base64 字串解码 sps NAL
func (sps *H265RawSPS) DecodeString(b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return err
	}
	return sps.Decode(data)
}

// Decode 从字节序列中解码 sps NAL
func (sps *H265RawSPS) Decode(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("RawSPS decode panic；r = %v \n %s", r, debug.Stack())
		}
	}()

	spsWEB := RemoveEmulationBytes(data)
	if len(spsWEB) < 4 {
		return errors.New("The data is not enough")
	}

	r := bits.NewReader(spsWEB)
	if err = sps.Nal_unit_header.decode(r); err != nil {
		return
	}

	if sps.Nal_unit_header.Nal_unit_type != NalSps {
		return errors.New("not is sps NAL UNIT")
	}

	sps.Sps_video_parameter_set_id = r.ReadUint8(4)

	sps.Sps_max_sub_layers_minus1 = r.ReadUint8(3)
	sps.Sps_temporal_id_nesting_flag = r.ReadBit()
	if err = sps.Profile_tier_level.decode(r, true, int(sps.Sps_max_sub_layers_minus1)); err != nil {
		return
	}

	sps.Sps_seq_parameter_set_id = r.ReadUe8()

	sps.Chroma_format_idc = r.ReadUe8()
	if sps.Chroma_format_idc == 3 {
		sps.Separate_colour_plane_flag = r.ReadBit()
	}

	sps.Pic_width_in_luma_samples = r.ReadUe16()
	sps.Pic_height_in_luma_samples = r.ReadUe16()

	sps.Conformance_window_flag = r.ReadBit()
	if sps.Conformance_window_flag == 1 {
		sps.Conf_win_left_offset = r.ReadUe16()
		sps.Conf_win_right_offset = r.ReadUe16()
		sps.Conf_win_top_offset = r.ReadUe16()
		sps.Conf_win_bottom_offset = r.ReadUe16()
	}

	sps.Bit_depth_luma_minus8 = r.ReadUe8()
	sps.Bit_depth_chroma_minus8 = r.ReadUe8()

	sps.Log2_max_pic_order_cnt_lsb_minus4 = r.ReadUe8()
	if sps.Log2_max_pic_order_cnt_lsb_minus4 > 12 {
		return fmt.Errorf("Invalid log2_max_pic_order_cnt_lsb_minus4: %d",
			sps.Log2_max_pic_order_cnt_lsb_minus4)
	}

	sps.Sps_sub_layer_ordering_info_present_flag = r.ReadBit()
	loopStart := uint8(0)
	if sps.Sps_sub_layer_ordering_info_present_flag == 1 {
		loopStart = sps.Sps_max_sub_layers_minus1
	}
	for i := loopStart; i <= sps.Sps_max_sub_layers_minus1; i++ {
		sps.Sps_max_dec_pic_buffering_minus1[i] = r.ReadUe8()
		sps.Sps_max_num_reorder_pics[i] = r.ReadUe8()
		sps.Sps_max_latency_increase_plus1[i] = r.ReadUe()
	}

	if sps.Sps_sub_layer_ordering_info_present_flag == 0 {
		for i := uint8(0); i < sps.Sps_max_sub_layers_minus1; i++ {

			sps.Sps_max_dec_pic_buffering_minus1[i] =
				sps.Sps_max_dec_pic_buffering_minus1[sps.Sps_max_sub_layers_minus1]
			sps.Sps_max_num_reorder_pics[i] =
				sps.Sps_max_num_reorder_pics[sps.Sps_max_sub_layers_minus1]
			sps.Sps_max_latency_increase_plus1[i] =
				sps.Sps_max_latency_increase_plus1[sps.Sps_max_sub_layers_minus1]
		}
	}

	sps.Log2_min_luma_coding_block_size_minus3 = r.ReadUe8()
	min_cb_log2_size_y := sps.Log2_min_luma_coding_block_size_minus3 + 3

	sps.Log2_diff_max_min_luma_coding_block_size = r.ReadUe8()
	ctb_log2_size_y := min_cb_log2_size_y + sps.Log2_diff_max_min_luma_coding_block_size
	if ctb_log2_size_y < HEVC_MIN_LOG2_CTB_SIZE || ctb_log2_size_y > HEVC_MAX_LOG2_CTB_SIZE {
		return fmt.Errorf("Invalid CtbLog2SizeY: %v (must be in [%v,%v])",
			ctb_log2_size_y, HEVC_MIN_LOG2_CTB_SIZE, HEVC_MAX_LOG2_CTB_SIZE)
	}

	min_cb_size_y := uint16(1) << min_cb_log2_size_y
	if (sps.Pic_width_in_luma_samples%min_cb_size_y) > 0 ||
		(sps.Pic_height_in_luma_samples%min_cb_size_y) > 0 {
		return fmt.Errorf("Invalid dimensions: %v%v not divisible by MinCbSizeY = %v.\n",
			sps.Pic_width_in_luma_samples,
			sps.Pic_height_in_luma_samples,
			min_cb_size_y)
	}

	sps.Log2_min_luma_transform_block_size_minus2 = r.ReadUe8()
	sps.Log2_diff_max_min_luma_transform_block_size = r.ReadUe8()

	sps.Max_transform_hierarchy_depth_inter = r.ReadUe8()
	sps.Max_transform_hierarchy_depth_intra = r.ReadUe8()

	sps.Scaling_list_enabled_flag = r.ReadBit()
	if sps.Scaling_list_enabled_flag == 1 {
		sps.Sps_scaling_list_data_present_flag = r.ReadBit()
		if sps.Sps_scaling_list_data_present_flag == 1 {
			sps.Scaling_list = new(H265RawScalingList)
			sps.Scaling_list.decode(r)
		}
	}

	sps.Amp_enabled_flag = r.ReadBit()
	sps.Sample_adaptive_offset_enabled_flag = r.ReadBit()

	sps.Pcm_enabled_flag = r.ReadBit()
	if sps.Pcm_enabled_flag == 1 {
		sps.Pcm_sample_bit_depth_luma_minus1 = r.ReadUint8(4)
		sps.Pcm_sample_bit_depth_chroma_minus1 = r.ReadUint8(4)

		sps.Log2_min_pcm_luma_coding_block_size_minus3 = r.ReadUe8()
		sps.Log2_diff_max_min_pcm_luma_coding_block_size = r.ReadUe8()

		sps.Pcm_loop_filter_disabled_flag = r.ReadBit()
	}

	sps.Num_short_term_ref_pic_sets = r.ReadUe8()
	if sps.Num_short_term_ref_pic_sets > HEVC_MAX_SHORT_TERM_REF_PIC_SETS {
		return fmt.Errorf("Invalid num_short_term_ref_pic_sets: %d",
			sps.Num_short_term_ref_pic_sets)
	}
	if sps.Num_short_term_ref_pic_sets > 0 {
		sps.St_ref_pic_set = make([]H265RawSTRefPicSet, sps.Num_short_term_ref_pic_sets)
		for i := uint8(0); i < sps.Num_short_term_ref_pic_sets; i++ {
			if err = sps.St_ref_pic_set[i].decode(r, i, sps); err != nil {
				return
			}
		}
	}

	sps.Long_term_ref_pics_present_flag = r.ReadBit()
	if sps.Long_term_ref_pics_present_flag == 1 {
		sps.Num_long_term_ref_pics_sps = r.ReadUe8()
		if sps.Num_long_term_ref_pics_sps > HEVC_MAX_LONG_TERM_REF_PICS {
			return fmt.Errorf("Invalid num_long_term_ref_pics_sps: %d",
				sps.Num_long_term_ref_pics_sps)
		}
		for i := uint8(0); i < sps.Num_long_term_ref_pics_sps; i++ {
			sps.Lt_ref_pic_poc_lsb_sps[i] = r.ReadUint16(sps.PocLsbBits())
			sps.Used_by_curr_pic_lt_sps_flag[i] = r.ReadBit()
		}
	}

	sps.Sps_temporal_mvp_enabled_flag = r.ReadBit()
	sps.Strong_intra_smoothing_enabled_flag = r.ReadBit()

	sps.Vui_parameters_present_flag = r.ReadBit()
	if sps.Vui_parameters_present_flag == 1 {
		sps.Vui.decode(r, sps)
	} else {
		sps.Vui.setDefault(sps)
	}

	// 扩展标志及其后字段与回放无关，不再消费

	return
}

// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

// bitWriter 按语法元素顺序构造测试码流。
type bitWriter struct {
	buf  []byte
	nbit uint
}

// u 写入 v 的低 n 位（MSB 在前）
func (w *bitWriter) u(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		bit := byte(v>>uint(i)) & 1
		if w.nbit&7 == 0 {
			w.buf = append(w.buf, 0)
		}
		w.buf[len(w.buf)-1] |= bit << (7 - w.nbit&7)
		w.nbit++
	}
}

// ue 写入 ue(v) 指数哥伦布编码
func (w *bitWriter) ue(v uint32) {
	n := 0
	for (1 << uint(n+1)) <= int(v)+1 {
		n++
	}
	w.u(0, n)
	w.u(1, 1)
	w.u(uint32(int(v)+1-(1<<uint(n))), n)
}

// se 写入 se(v) 指数哥伦布编码
func (w *bitWriter) se(v int32) {
	if v > 0 {
		w.ue(uint32(2*v - 1))
	} else {
		w.ue(uint32(-2 * v))
	}
}

// bytes 返回 rbsp_stop_one_bit 补齐后的字节序列
func (w *bitWriter) bytes() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	if w.nbit&7 != 0 {
		out[len(out)-1] |= 1 << (7 - w.nbit&7)
	} else {
		out = append(out, 0x80)
	}
	return out
}

// nal 插入防竞争字节后返回完整 EBSP 单元
func (w *bitWriter) nal() []byte {
	raw := w.bytes()
	out := make([]byte, 0, len(raw)+4)
	zeros := 0
	for _, b := range raw {
		if zeros >= 2 && b <= 3 {
			out = append(out, 3)
			zeros = 0
		}
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
		out = append(out, b)
	}
	return out
}

// nalHeader 写入 2 字节 NAL 单元头
func (w *bitWriter) nalHeader(nalType uint32) {
	w.u(0, 1)       // forbidden_zero_bit
	w.u(nalType, 6) // nal_unit_type
	w.u(0, 6)       // nuh_layer_id
	w.u(1, 3)       // nuh_temporal_id_plus1
}

// testSPS 组装测试用 SPS 的可调参数。
// 产出 64x64、CTB 32x32 的序列，默认 MaxPicOrderCntLsb=16。
type testSPS struct {
	spsID               uint32
	log2MaxPocLsbMinus4 uint32
	stSets              []testSTSet
	ltPocLsbs           []uint32
	ltUsed              []uint32
}

// testSTSet 直接形式的短期参考集。
// 集合间预测形式由测试自行写入预测字段。
type testSTSet struct {
	negDeltas []uint32 // delta_poc_s0_minus1
	negUsed   []uint32
	posDeltas []uint32 // delta_poc_s1_minus1
	posUsed   []uint32
}

// writeDirect 写入直接形式的 st_ref_pic_set
func (s testSTSet) writeDirect(w *bitWriter, stRpsIdx int) {
	if stRpsIdx != 0 {
		w.u(0, 1) // inter_ref_pic_set_prediction_flag
	}
	w.ue(uint32(len(s.negDeltas)))
	w.ue(uint32(len(s.posDeltas)))
	for i, d := range s.negDeltas {
		w.ue(d)
		w.u(s.negUsed[i], 1)
	}
	for i, d := range s.posDeltas {
		w.ue(d)
		w.u(s.posUsed[i], 1)
	}
}

// build 产出完整 SPS NAL（含单元头与防竞争字节）
func (t testSPS) build() []byte {
	w := &bitWriter{}
	w.nalHeader(NalSps)

	w.u(0, 4) // sps_video_parameter_set_id
	w.u(0, 3) // sps_max_sub_layers_minus1
	w.u(1, 1) // sps_temporal_id_nesting_flag

	// profile_tier_level
	w.u(0, 2)           // general_profile_space
	w.u(0, 1)           // general_tier_flag
	w.u(1, 5)           // general_profile_idc: Main
	w.u(0x60000000, 32) // general_profile_compatibility_flag
	w.u(1, 1)           // general_progressive_source_flag
	w.u(0, 1)           // general_interlaced_source_flag
	w.u(0, 1)           // general_non_packed_constraint_flag
	w.u(1, 1)           // general_frame_only_constraint_flag
	w.u(0, 32)
	w.u(0, 12) // 44 bit 约束与保留位
	w.u(93, 8) // general_level_idc: 3.1

	w.ue(t.spsID) // sps_seq_parameter_set_id
	w.ue(1)       // chroma_format_idc
	w.ue(64)      // pic_width_in_luma_samples
	w.ue(64)      // pic_height_in_luma_samples
	w.u(0, 1)     // conformance_window_flag
	w.ue(0)       // bit_depth_luma_minus8
	w.ue(0)       // bit_depth_chroma_minus8

	w.ue(t.log2MaxPocLsbMinus4) // log2_max_pic_order_cnt_lsb_minus4

	w.u(1, 1) // sps_sub_layer_ordering_info_present_flag
	w.ue(3)   // sps_max_dec_pic_buffering_minus1
	w.ue(0)   // sps_max_num_reorder_pics
	w.ue(0)   // sps_max_latency_increase_plus1

	w.ue(0)   // log2_min_luma_coding_block_size_minus3
	w.ue(2)   // log2_diff_max_min_luma_coding_block_size
	w.ue(0)   // log2_min_luma_transform_block_size_minus2
	w.ue(2)   // log2_diff_max_min_luma_transform_block_size
	w.ue(0)   // max_transform_hierarchy_depth_inter
	w.ue(0)   // max_transform_hierarchy_depth_intra
	w.u(0, 1) // scaling_list_enabled_flag
	w.u(0, 1) // amp_enabled_flag
	w.u(0, 1) // sample_adaptive_offset_enabled_flag
	w.u(0, 1) // pcm_enabled_flag

	w.ue(uint32(len(t.stSets))) // num_short_term_ref_pic_sets
	for i, s := range t.stSets {
		s.writeDirect(w, i)
	}

	if len(t.ltPocLsbs) > 0 {
		w.u(1, 1) // long_term_ref_pics_present_flag
		w.ue(uint32(len(t.ltPocLsbs)))
		for i, lsb := range t.ltPocLsbs {
			w.u(lsb, int(t.log2MaxPocLsbMinus4)+4) // lt_ref_pic_poc_lsb_sps
			w.u(t.ltUsed[i], 1)                    // used_by_curr_pic_lt_sps_flag
		}
	} else {
		w.u(0, 1)
	}

	w.u(0, 1) // sps_temporal_mvp_enabled_flag
	w.u(0, 1) // strong_intra_smoothing_enabled_flag
	w.u(0, 1) // vui_parameters_present_flag

	return w.nal()
}

// buildTestPPS 产出最简 PPS NAL
func buildTestPPS(ppsID, spsID uint32, outputFlagPresent bool) []byte {
	w := &bitWriter{}
	w.nalHeader(NalPps)

	w.ue(ppsID)
	w.ue(spsID)
	w.u(0, 1) // dependent_slice_segments_enabled_flag
	if outputFlagPresent {
		w.u(1, 1)
	} else {
		w.u(0, 1)
	}
	w.u(0, 3) // num_extra_slice_header_bits
	w.u(0, 1) // sign_data_hiding_enabled_flag
	w.u(0, 1) // cabac_init_present_flag
	w.ue(0)   // num_ref_idx_l0_default_active_minus1
	w.ue(0)   // num_ref_idx_l1_default_active_minus1
	w.se(0)   // init_qp_minus26
	w.u(0, 1) // constrained_intra_pred_flag
	w.u(0, 1) // transform_skip_enabled_flag
	w.u(0, 1) // cu_qp_delta_enabled_flag
	w.se(0)   // pps_cb_qp_offset
	w.se(0)   // pps_cr_qp_offset
	w.u(0, 1) // pps_slice_chroma_qp_offsets_present_flag
	w.u(0, 1) // weighted_pred_flag
	w.u(0, 1) // weighted_bipred_flag
	w.u(0, 1) // transquant_bypass_enabled_flag
	w.u(0, 1) // tiles_enabled_flag
	w.u(0, 1) // entropy_coding_sync_enabled_flag

	return w.nal()
}

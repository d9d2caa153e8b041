// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dpb

import (
	"errors"
	"testing"

	"github.com/cnotch/hevcplay/codec/hevc"
)

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
func (w *bitWriter) nalHeader(nalType, tidPlus1 uint32) {
	w.u(0, 1)        // forbidden_zero_bit
	w.u(nalType, 6)  // nal_unit_type
	w.u(0, 6)        // nuh_layer_id
	w.u(tidPlus1, 3) // nuh_temporal_id_plus1
}

// ceilLog2 Ceil(Log2(n))
func ceilLog2(n int) int {
	b := 0
	for (1 << b) < n {
		b++
	}
	return b
}

// testSPS 组装测试用 SPS 的可调参数。
// 产出 64x64 的序列，log2MaxPocLsbMinus4=0 时 MaxPicOrderCntLsb=16。
type testSPS struct {
	spsID               uint32
	log2MaxPocLsbMinus4 uint32
	stSets              []testSTSet
	ltPocLsbs           []uint32 // lt_ref_pic_poc_lsb_sps
	ltUsed              []uint32
	ltPresent           bool // 表为空但片头仍携带长期条目时置位
}

// testSTSet 直接形式的短期参考集
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
	w.nalHeader(hevc.NalSps, 1)

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

	if t.ltPresent || len(t.ltPocLsbs) > 0 {
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
	w.nalHeader(hevc.NalPps, 1)

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
	w.ue(0)   // init_qp_minus26
	w.u(0, 1) // constrained_intra_pred_flag
	w.u(0, 1) // transform_skip_enabled_flag
	w.u(0, 1) // cu_qp_delta_enabled_flag
	w.ue(0)   // pps_cb_qp_offset
	w.ue(0)   // pps_cr_qp_offset
	w.u(0, 1) // pps_slice_chroma_qp_offsets_present_flag
	w.u(0, 1) // weighted_pred_flag
	w.u(0, 1) // weighted_bipred_flag
	w.u(0, 1) // transquant_bypass_enabled_flag
	w.u(0, 1) // tiles_enabled_flag
	w.u(0, 1) // entropy_coding_sync_enabled_flag

	return w.nal()
}

// testSlice 组装测试用片头 NAL 的可调参数。
// 长期条目次序与 7.4.7.1 一致：SPS 表条目在前，片头条目在后。
type testSlice struct {
	nalType        uint32
	tidPlus1       uint32 // 0 视为 1
	noPriorOut     uint32 // no_output_of_prior_pics_flag
	suppressOutput bool   // pic_output_flag 写 0
	pocLsb         uint32

	useSpsSet bool
	spsSetIdx uint32
	inlineSet *testSTSet

	ltSpsIdx     []uint32 // lt_idx_sps
	ltSliceLsbs  []uint32 // poc_lsb_lt
	ltSliceUsed  []uint32 // used_by_curr_pic_lt_flag
	ltMsbPresent []uint32 // 全体条目的 delta_poc_msb_present_flag
	ltMsbCycle   []uint32 // delta_poc_msb_cycle_lt（按条目对齐）
}

// build 产出完整片头 NAL 前缀（解码所需字段止于长期参考块）
func (s testSlice) build(cfg testSPS, ppsID uint32, outputFlagPresent bool) []byte {
	w := &bitWriter{}
	tid := s.tidPlus1
	if tid == 0 {
		tid = 1
	}
	w.nalHeader(s.nalType, tid)

	w.u(1, 1) // first_slice_segment_in_pic_flag
	if hevc.IsRapType(uint8(s.nalType)) {
		w.u(s.noPriorOut, 1)
	}
	w.ue(ppsID) // slice_pic_parameter_set_id

	if hevc.IsIdrType(uint8(s.nalType)) {
		w.ue(hevc.SliceI)
		if outputFlagPresent {
			w.u(1, 1)
		}
		return w.nal()
	}

	w.ue(hevc.SliceP) // slice_type
	if outputFlagPresent {
		if s.suppressOutput {
			w.u(0, 1)
		} else {
			w.u(1, 1)
		}
	}

	lsbBits := int(cfg.log2MaxPocLsbMinus4) + 4
	w.u(s.pocLsb, lsbBits)

	if s.useSpsSet {
		w.u(1, 1) // short_term_ref_pic_set_sps_flag
		if len(cfg.stSets) > 1 {
			w.u(s.spsSetIdx, ceilLog2(len(cfg.stSets)))
		}
	} else {
		w.u(0, 1)
		set := s.inlineSet
		if set == nil {
			set = &testSTSet{}
		}
		set.writeDirect(w, len(cfg.stSets))
	}

	if cfg.ltPresent || len(cfg.ltPocLsbs) > 0 {
		if len(cfg.ltPocLsbs) > 0 {
			w.ue(uint32(len(s.ltSpsIdx))) // num_long_term_sps
		}
		w.ue(uint32(len(s.ltSliceLsbs))) // num_long_term_pics

		n := len(s.ltSpsIdx) + len(s.ltSliceLsbs)
		for i := 0; i < n; i++ {
			if i < len(s.ltSpsIdx) {
				if len(cfg.ltPocLsbs) > 1 {
					w.u(s.ltSpsIdx[i], ceilLog2(len(cfg.ltPocLsbs)))
				}
			} else {
				w.u(s.ltSliceLsbs[i-len(s.ltSpsIdx)], lsbBits)
				w.u(s.ltSliceUsed[i-len(s.ltSpsIdx)], 1)
			}
			w.u(s.ltMsbPresent[i], 1)
			if s.ltMsbPresent[i] != 0 {
				w.ue(s.ltMsbCycle[i])
			}
		}
	}

	return w.nal()
}

// fakeSynthesizer 记录占位图像请求并派发递增句柄
type fakeSynthesizer struct {
	next PictureHandle
	pocs []int32
	fail bool
}

func (s *fakeSynthesizer) SynthesizePicture(poc int32) (PictureHandle, error) {
	if s.fail {
		return 0, errors.New("synthesize failed")
	}
	s.pocs = append(s.pocs, poc)
	s.next++
	return s.next, nil
}

// harness 按会话的固定次序驱动核心，模拟完整的逐片流程。
type harness struct {
	t          *testing.T
	pool       *hevc.ParameterSetPool
	ctx        *Context
	syn        *fakeSynthesizer
	nextHandle PictureHandle
}

func newHarness(t *testing.T, cfg testSPS, outputFlagPresent bool) *harness {
	h := &harness{
		t:    t,
		pool: &hevc.ParameterSetPool{},
		ctx:  New(nil),
		syn:  &fakeSynthesizer{next: 1000},
	}

	var sps hevc.H265RawSPS
	if err := sps.Decode(cfg.build()); err != nil {
		t.Fatalf("decode test SPS: %v", err)
	}
	h.pool.AddSPS(&sps)
	h.ctx.ActivateSequence(&sps)

	var pps hevc.H265RawPPS
	if err := pps.Decode(buildTestPPS(0, cfg.spsID, outputFlagPresent)); err != nil {
		t.Fatalf("decode test PPS: %v", err)
	}
	h.pool.AddPPS(&pps)

	return h
}

// parse 只解码片头，不推进缓冲状态
func (h *harness) parse(nalData []byte) *hevc.H265RawSliceHeader {
	var slice hevc.H265RawSliceHeader
	if err := slice.Decode(nalData, h.pool); err != nil {
		h.t.Fatalf("decode slice header: %v", err)
	}
	return &slice
}

// step 按固定次序完成一幅图像的全部簿记并返回目标槽位
func (h *harness) step(nalData []byte) (*PictureInfo, int) {
	slice := h.parse(nalData)

	pic := h.ctx.BeginPicture(slice.Type(), slice.Nal_unit_header.TemporalID())
	h.ctx.DecodePictureOrderCount(pic, slice)
	h.ctx.DeriveReferencePictureSet(pic, slice)
	if err := h.ctx.RemovePictures(pic, slice); err != nil {
		h.t.Fatalf("remove pictures: %v", err)
	}
	h.ctx.GenerateUnavailableReferences(pic, h.syn)

	target, err := h.ctx.AllocateSlot(pic)
	if err != nil {
		h.t.Fatalf("allocate slot: %v", err)
	}
	h.ctx.CalculateOutputFlag(pic, slice, target)

	h.nextHandle++
	h.ctx.FinishPicture(pic, target, h.nextHandle)
	if pic.OutputFlag {
		h.ctx.ReleaseOutput(target)
	}
	return pic, target
}

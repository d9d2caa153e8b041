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

// H265RawPPS 图像参数集中片头解析及参考管理所需的前缀；7.3.2.3.1。
// entropy_coding_sync_enabled_flag 之后的字段不再解析。
type H265RawPPS struct {
	Nal_unit_header H265RawNALUnitHeader

	Pps_pic_parameter_set_id uint8
	Pps_seq_parameter_set_id uint8

	Dependent_slice_segments_enabled_flag uint8
	Output_flag_present_flag              uint8
	Num_extra_slice_header_bits           uint8

	Sign_data_hiding_enabled_flag uint8
	Cabac_init_present_flag       uint8

	Num_ref_idx_l0_default_active_minus1 uint8
	Num_ref_idx_l1_default_active_minus1 uint8

	Init_qp_minus26 int8

	Constrained_intra_pred_flag uint8
	Transform_skip_enabled_flag uint8

	Cu_qp_delta_enabled_flag uint8
	Diff_cu_qp_delta_depth   uint8

	Pps_cb_qp_offset int8
	Pps_cr_qp_offset int8

	Pps_slice_chroma_qp_offsets_present_flag uint8

	Weighted_pred_flag   uint8
	Weighted_bipred_flag uint8

	Transquant_bypass_enabled_flag   uint8
	Tiles_enabled_flag               uint8
	Entropy_coding_sync_enabled_flag uint8
}

// Decode 从字节序列中解码 pps NAL
func (pps *H265RawPPS) Decode(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("RawPPS decode panic；r = %v \n %s", r, debug.Stack())
		}
	}()

	ppsWEB := RemoveEmulationBytes(data)
	if len(ppsWEB) < 3 {
		return errors.New("The data is not enough")
	}

	r := bits.NewReader(ppsWEB)
	if err = pps.Nal_unit_header.decode(r); err != nil {
		return
	}

	if pps.Nal_unit_header.Nal_unit_type != NalPps {
		return errors.New("not is pps NAL UNIT")
	}

	pps.Pps_pic_parameter_set_id = r.ReadUe8()
	if pps.Pps_pic_parameter_set_id >= HEVC_MAX_PPS_COUNT {
		return fmt.Errorf("Invalid pps_pic_parameter_set_id: %d",
			pps.Pps_pic_parameter_set_id)
	}
	pps.Pps_seq_parameter_set_id = r.ReadUe8()
	if pps.Pps_seq_parameter_set_id >= HEVC_MAX_SPS_COUNT {
		return fmt.Errorf("Invalid pps_seq_parameter_set_id: %d",
			pps.Pps_seq_parameter_set_id)
	}

	pps.Dependent_slice_segments_enabled_flag = r.ReadBit()
	pps.Output_flag_present_flag = r.ReadBit()
	pps.Num_extra_slice_header_bits = r.ReadUint8(3)

	pps.Sign_data_hiding_enabled_flag = r.ReadBit()
	pps.Cabac_init_present_flag = r.ReadBit()

	pps.Num_ref_idx_l0_default_active_minus1 = r.ReadUe8()
	pps.Num_ref_idx_l1_default_active_minus1 = r.ReadUe8()

	pps.Init_qp_minus26 = r.ReadSe8()

	pps.Constrained_intra_pred_flag = r.ReadBit()
	pps.Transform_skip_enabled_flag = r.ReadBit()

	pps.Cu_qp_delta_enabled_flag = r.ReadBit()
	if pps.Cu_qp_delta_enabled_flag == 1 {
		pps.Diff_cu_qp_delta_depth = r.ReadUe8()
	}

	pps.Pps_cb_qp_offset = r.ReadSe8()
	pps.Pps_cr_qp_offset = r.ReadSe8()

	pps.Pps_slice_chroma_qp_offsets_present_flag = r.ReadBit()

	pps.Weighted_pred_flag = r.ReadBit()
	pps.Weighted_bipred_flag = r.ReadBit()

	pps.Transquant_bypass_enabled_flag = r.ReadBit()
	pps.Tiles_enabled_flag = r.ReadBit()
	pps.Entropy_coding_sync_enabled_flag = r.ReadBit()

	// tile 划分及其后字段与参考管理无关，不再消费

	return
}

// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import "errors"

// 片头引用了尚未收到的参数集
var ErrParameterSetMissing = errors.New("hevc: referenced parameter set not received")

// ParameterSetPool 按 id 维护已接收的 SPS/PPS。
// 同 id 重复到达时整体替换。
type ParameterSetPool struct {
	sps [HEVC_MAX_SPS_COUNT]*H265RawSPS
	pps [HEVC_MAX_PPS_COUNT]*H265RawPPS
}

// AddSPS 登记一个解码完成的 SPS
func (p *ParameterSetPool) AddSPS(sps *H265RawSPS) {
	p.sps[sps.Sps_seq_parameter_set_id&(HEVC_MAX_SPS_COUNT-1)] = sps
}

// AddPPS 登记一个解码完成的 PPS
func (p *ParameterSetPool) AddPPS(pps *H265RawPPS) {
	p.pps[int(pps.Pps_pic_parameter_set_id)%HEVC_MAX_PPS_COUNT] = pps
}

// SPS 返回指定 id 的 SPS；未收到返回 nil。
func (p *ParameterSetPool) SPS(id uint8) *H265RawSPS {
	if int(id) >= HEVC_MAX_SPS_COUNT {
		return nil
	}
	return p.sps[id]
}

// PPS 返回指定 id 的 PPS；未收到返回 nil。
func (p *ParameterSetPool) PPS(id uint8) *H265RawPPS {
	if int(id) >= HEVC_MAX_PPS_COUNT {
		return nil
	}
	return p.pps[id]
}

// ActiveParameterSets 返回片头引用的 PPS 及其激活的 SPS。
func (p *ParameterSetPool) ActiveParameterSets(ppsID uint8) (*H265RawSPS, *H265RawPPS, error) {
	pps := p.PPS(ppsID)
	if pps == nil {
		return nil, nil, ErrParameterSetMissing
	}
	sps := p.SPS(pps.Pps_seq_parameter_set_id)
	if sps == nil {
		return nil, nil, ErrParameterSetMissing
	}
	return sps, pps, nil
}

// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package player

import (
	"fmt"
	"sync/atomic"

	"github.com/cnotch/hevcplay/codec/hevc"
	"github.com/cnotch/hevcplay/dpb"
	"github.com/cnotch/xlog"
)

// DecodeRequest 提交给解码引擎的一幅完整图像。
// Units 是该图像的全部片层单元，首个片段在前。
type DecodeRequest struct {
	Target int                      // 解码输出的槽位序号
	Info   *dpb.PictureInfo         // 图像级参考信息
	Slice  *hevc.H265RawSliceHeader // 首个片段的片头
	Units  [][]byte                 // 图像的全部 VCL 单元
}

// Engine 解码引擎。
// 除解码图像外还为不可用参考生成占位图像。
type Engine interface {
	dpb.PictureSynthesizer
	DecodePicture(req *DecodeRequest) (dpb.PictureHandle, error)
}

// NewEngine 按名称创建解码引擎。
func NewEngine(name string, logger *xlog.Logger) (Engine, error) {
	if logger == nil {
		logger = xlog.L()
	}

	switch name {
	case "trace":
		return newTraceEngine(logger), nil
	}
	return nil, fmt.Errorf("unknown decode engine: %s", name)
}

// traceEngine 只登记请求并发放句柄的空转引擎
type traceEngine struct {
	nextHandle uint32

	logger *xlog.Logger // 日志对象
}

func newTraceEngine(logger *xlog.Logger) *traceEngine {
	return &traceEngine{logger: logger}
}

func (e *traceEngine) DecodePicture(req *DecodeRequest) (dpb.PictureHandle, error) {
	handle := dpb.PictureHandle(atomic.AddUint32(&e.nextHandle, 1))

	size := 0
	for _, unit := range req.Units {
		size += len(unit)
	}
	e.logger.Debugf("decode picture: poc = %d, slot = %d, units = %d(%dB), refs = %d+%d+%d",
		req.Info.PicOrderCntVal, req.Target, len(req.Units), size,
		len(req.Info.StCurrBefore.Slots), len(req.Info.StCurrAfter.Slots),
		len(req.Info.LtCurr.Slots))
	return handle, nil
}

func (e *traceEngine) SynthesizePicture(poc int32) (dpb.PictureHandle, error) {
	handle := dpb.PictureHandle(atomic.AddUint32(&e.nextHandle, 1))
	e.logger.Debugf("synthesize picture: poc = %d", poc)
	return handle, nil
}

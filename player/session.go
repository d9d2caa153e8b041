// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package player 驱动 HEVC Annex B 码流的解码与显示会话。
package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cnotch/hevcplay/codec/hevc"
	"github.com/cnotch/hevcplay/dpb"
	"github.com/cnotch/hevcplay/stats"
	"github.com/cnotch/xlog"
)

// Session 一路码流的播放会话。
// 逐单元扫描码流，按图像推导参考集合并提交解码引擎，
// 带输出标志的图像交给显示环节。
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc

	scanner *hevc.Scanner
	pool    *hevc.ParameterSetPool
	buffer  *dpb.Context
	engine  Engine

	presenter *Presenter
	writer    FrameWriter
	stats     stats.Decode

	loop     bool
	limit    int
	delay    time.Duration
	craAsBla bool

	frameSeq int64

	logger *xlog.Logger // 日志对象
}

// NewSession 创建播放会话。
// data 是完整的 Annex B 字节流，engine 是解码引擎。
func NewSession(ctx context.Context, data []byte, engine Engine, logger *xlog.Logger, options ...Option) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = xlog.L()
	}

	s := &Session{
		scanner: hevc.NewScanner(data),
		pool:    &hevc.ParameterSetPool{},
		engine:  engine,
		logger:  logger,
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, o := range options {
		o.apply(s)
	}

	s.stats = stats.NewChildDecode(stats.Playback)
	s.buffer = dpb.New(logger)
	s.buffer.SetHandleCraAsBla(s.craAsBla)
	s.presenter = NewPresenter(s.writer, s.delay, s.stats, logger)
	return s
}

// Play 播放码流直到结束、达到帧数上限或会话被关闭。
// 循环播放时每轮之间回绕码流并复位缓冲区。
func (s *Session) Play() error {
	defer s.Close()

	for {
		if err := s.runPass(); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if s.limitReached() || !s.loop {
			break
		}

		select {
		case <-s.ctx.Done():
			return nil
		default:
		}

		s.scanner.Rewind()
		s.buffer.Reset()
		s.logger.Info("rewind bitstream, start next round")
	}

	s.drain()
	return nil
}

// Close 终止会话并停止显示环节。
func (s *Session) Close() error {
	s.cancel()
	return s.presenter.Close()
}

// Frames 会话累计解码的图像数
func (s *Session) Frames() int64 {
	return s.frameSeq
}

// runPass 播放一轮码流，至流尾或帧数上限为止。
func (s *Session) runPass() error {
	for {
		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		default:
		}

		unit, ok := s.scanner.Next()
		if !ok {
			s.buffer.MarkSequenceEnd()
			return nil
		}
		s.stats.AddIn(int64(len(unit.Data)))

		switch {
		case unit.IsVCL():
			if !unit.FirstSliceSegmentInPic() {
				// 所属图像的首片段未被接受，无从归属
				s.logger.Warnf("orphan slice segment: nal type %d, skipped", unit.Type())
				continue
			}
			if err := s.decodePicture(unit); err != nil {
				return err
			}
			if s.limitReached() {
				return nil
			}
		case unit.Type() == hevc.NalSps:
			s.activateSPS(unit)
		case unit.Type() == hevc.NalPps:
			s.activatePPS(unit)
		case unit.Type() == hevc.NalEosNut:
			s.buffer.MarkSequenceEnd()
		default:
			// VPS、SEI 等单元与参考管理无关
		}
	}
}

// decodePicture 处理以 first 开始的一幅图像。
// 片头解析失败只丢弃该图像，参考簿记错误终止会话。
func (s *Session) decodePicture(first hevc.NALUnit) error {
	s.stats.AddUnit()

	slice := new(hevc.H265RawSliceHeader)
	if err := slice.Decode(first.Data, s.pool); err != nil {
		s.logger.Errorf("decode slice header error - %s", err.Error())
		return nil
	}

	pic := s.buffer.BeginPicture(first.Type(), first.Header.TemporalID())
	s.buffer.DecodePictureOrderCount(pic, slice)
	s.buffer.DeriveReferencePictureSet(pic, slice)

	if err := s.buffer.RemovePictures(pic, slice); err != nil {
		return err
	}

	generated := s.buffer.GenerateUnavailableReferences(pic, s.engine)
	s.stats.AddSynthesized(int64(generated))
	s.stats.AddRefMisses(int64(pic.LookupMisses))

	target, err := s.buffer.AllocateSlot(pic)
	if err != nil {
		return err
	}
	s.buffer.CalculateOutputFlag(pic, slice, target)

	units := s.collectPictureUnits(first)
	size := 0
	for _, u := range units {
		size += len(u)
	}
	s.stats.AddOut(int64(size))

	handle, err := s.engine.DecodePicture(&DecodeRequest{
		Target: target,
		Info:   pic,
		Slice:  slice,
		Units:  units,
	})
	if err != nil {
		return fmt.Errorf("decode picture poc %d: %w", pic.PicOrderCntVal, err)
	}

	s.buffer.FinishPicture(pic, target, handle)
	s.stats.AddPicture()
	s.frameSeq++

	if pic.OutputFlag {
		s.presenter.Present(&Frame{
			Seq:    s.frameSeq,
			POC:    pic.PicOrderCntVal,
			Handle: handle,
		})
		s.buffer.ReleaseOutput(target)
	}
	return nil
}

// collectPictureUnits 取走当前图像的后续片段单元。
func (s *Session) collectPictureUnits(first hevc.NALUnit) [][]byte {
	units := [][]byte{first.Data}
	for {
		next, ok := s.scanner.Peek()
		if !ok || !next.IsVCL() || next.FirstSliceSegmentInPic() {
			return units
		}
		s.scanner.Next()
		s.stats.AddIn(int64(len(next.Data)))
		s.stats.AddUnit()
		units = append(units, next.Data)
	}
}

func (s *Session) activateSPS(unit hevc.NALUnit) {
	sps := new(hevc.H265RawSPS)
	if err := sps.Decode(unit.Data); err != nil {
		s.logger.Errorf("decode sps error - %s", err.Error())
		return
	}
	s.pool.AddSPS(sps)
	s.buffer.ActivateSequence(sps)
}

func (s *Session) activatePPS(unit hevc.NALUnit) {
	pps := new(hevc.H265RawPPS)
	if err := pps.Decode(unit.Data); err != nil {
		s.logger.Errorf("decode pps error - %s", err.Error())
		return
	}
	s.pool.AddPPS(pps)
}

func (s *Session) limitReached() bool {
	return s.limit > 0 && s.frameSeq >= int64(s.limit)
}

// drain 等待显示队列消化完毕
func (s *Session) drain() {
	for s.presenter.Pending() > 0 {
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package player

import (
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/cnotch/hevcplay/dpb"
	"github.com/cnotch/hevcplay/stats"
	"github.com/cnotch/queue"
	"github.com/cnotch/xlog"
)

// Frame 按输出次序交付显示的一帧图像。
type Frame struct {
	Seq    int64             // 会话内解码序号
	POC    int32             // 图像顺序号
	Handle dpb.PictureHandle // 引擎侧图像句柄
}

// FrameWriter 显示帧的接收方
type FrameWriter interface {
	WriteFrame(frame *Frame) error
}

type emptyFrameWriter struct{}

func (emptyFrameWriter) WriteFrame(frame *Frame) error { return nil }

// Presenter 显示环节，把输出图像逐帧交给 FrameWriter。
type Presenter struct {
	recvQueue *queue.SyncQueue
	writer    FrameWriter
	delay     time.Duration
	closed    bool
	pushed    int64
	presented int64
	stats     stats.Decode

	logger *xlog.Logger // 日志对象
}

// NewPresenter 创建显示环节并启动消费协程。
// delay 大于 0 时按该间隔简易控速。
func NewPresenter(writer FrameWriter, delay time.Duration, st stats.Decode, logger *xlog.Logger) *Presenter {
	if writer == nil {
		writer = emptyFrameWriter{}
	}
	if st == nil {
		st = stats.NewDecode()
	}
	if logger == nil {
		logger = xlog.L()
	}

	p := &Presenter{
		recvQueue: queue.NewSyncQueue(),
		writer:    writer,
		delay:     delay,
		closed:    false,
		stats:     st,
		logger:    logger,
	}

	go p.consume()
	return p
}

// Present 投递一帧待显示图像。
func (p *Presenter) Present(frame *Frame) {
	atomic.AddInt64(&p.pushed, 1)
	p.recvQueue.Push(frame)
}

// Presented 已交付显示的帧数
func (p *Presenter) Presented() int64 {
	return atomic.LoadInt64(&p.presented)
}

// Pending 已投递但尚未交付的帧数
func (p *Presenter) Pending() int64 {
	return atomic.LoadInt64(&p.pushed) - atomic.LoadInt64(&p.presented)
}

// Close 停止显示环节。
func (p *Presenter) Close() error {
	if p.closed {
		return nil
	}

	p.closed = true
	p.recvQueue.Signal()
	return nil
}

func (p *Presenter) consume() {
	defer func() {
		defer func() { // 避免 handler 再 panic
			recover()
		}()

		if r := recover(); r != nil {
			p.logger.Errorf("presenter routine panic；r = %v \n %s", r, debug.Stack())
		}

		// 尽早通知GC，回收内存
		p.recvQueue.Reset()
	}()

	for !p.closed {
		f := p.recvQueue.Pop()
		if f == nil {
			if !p.closed {
				p.logger.Warn("presenter:receive nil frame")
			}
			continue
		}

		frame := f.(*Frame)
		if err := p.writer.WriteFrame(frame); err != nil {
			p.logger.Errorf("presenter: write frame error - %s", err.Error())
		}
		p.logger.Debugf("present frame: seq = %d, poc = %d, handle = %d",
			frame.Seq, frame.POC, frame.Handle)

		atomic.AddInt64(&p.presented, 1)
		p.stats.AddPresented()

		if p.delay > 0 {
			time.Sleep(p.delay)
		}
	}
}

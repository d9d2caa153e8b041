// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package service 播放服务的组装与生命周期管理。
package service

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"

	"github.com/cnotch/hevcplay/config"
	"github.com/cnotch/hevcplay/player"
	"github.com/cnotch/hevcplay/stats"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
)

// Service 播放服务对象(服务的入口)
type Service struct {
	context context.Context
	cancel  context.CancelFunc
	logger  *xlog.Logger
	session *player.Session
}

// NewService 创建服务
func NewService(ctx context.Context, l *xlog.Logger) (s *Service, err error) {
	ctx, cancel := context.WithCancel(ctx)
	s = &Service{
		context: ctx,
		cancel:  cancel,
		logger:  l,
	}

	path := config.File()
	if path == "" {
		cancel()
		return nil, errors.New("no bitstream file specified")
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		cancel()
		return nil, err
	}
	if len(data) == 0 {
		cancel()
		return nil, fmt.Errorf("bitstream file is empty: %s", path)
	}

	// 播放管线的日志统一携带文件标识
	playLogger := l.With(xlog.Fields(xlog.F("file", path)))
	engine, err := player.NewEngine(config.Engine(), playLogger)
	if err != nil {
		cancel()
		return nil, err
	}

	var options []player.Option
	if config.Loop() {
		options = append(options, player.Loop())
	}
	if n := config.Frames(); n > 0 {
		options = append(options, player.FrameLimit(n))
	}
	if d := config.Delay(); d > 0 {
		options = append(options, player.Delay(d))
	}
	if config.CraAsBla() {
		options = append(options, player.CraAsBla())
	}
	s.session = player.NewSession(ctx, data, engine, playLogger, options...)

	// 启动定时输出播放统计
	interval := config.StatsInterval()
	scheduler.PeriodFunc(interval, interval, func() {
		sample := stats.Playback.GetSample()
		proc := stats.MeasureRuntime()
		s.logger.Infof("playback stats: pictures = %d, presented = %d, units = %d, synthesized = %d, misses = %d; cpu = %.1f%%, priv = %dKB",
			sample.Pictures, sample.Presented, sample.Units,
			sample.Synthesized, sample.RefMisses, proc.CPU, proc.Priv)
	}, "The task of periodic output of playback statistics(10s)")

	s.logger.Info("service configured")
	return s, nil
}

// Run starts the playback and blocks until it finishes.
func (s *Service) Run() error {
	defer s.Close()
	s.hookSignals()

	s.logger.Infof("service started(%s), file = %s.", config.Version, config.File())
	if err := s.session.Play(); err != nil {
		return err
	}

	sample := stats.Playback.GetSample()
	s.logger.Infof("playback finished: pictures = %d, presented = %d, synthesized = %d, misses = %d, in = %dKB, out = %dKB",
		sample.Pictures, sample.Presented, sample.Synthesized,
		sample.RefMisses, sample.InBytes/1024, sample.OutBytes/1024)
	return nil
}

// Close closes gracefully the service.
func (s *Service) Close() {
	if s.cancel != nil {
		s.cancel()
	}

	// 停止计划任务
	jobs := scheduler.Jobs()
	for _, job := range jobs {
		job.Cancel()
	}

	s.session.Close()
}

// hookSignals starts the signal processing.
func (s *Service) hookSignals() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range c {
			s.onSignal(sig)
		}
	}()
}

// onSignal will be called when a OS-level signal is received.
func (s *Service) onSignal(sig os.Signal) {
	switch sig {
	case syscall.SIGTERM:
		fallthrough
	case syscall.SIGINT:
		// 取消会话让 Play 正常返回，退出前还能输出累计统计
		s.logger.Warn(fmt.Sprintf("received signal %s, exiting...", sig.String()))
		s.session.Close()
	}
}

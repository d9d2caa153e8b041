// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"bytes"

	"github.com/cnotch/hevcplay/utils/bits"
)

// RemoveEmulationBytes A general routine for making a copy of a
// (H.264 or H.265) NAL unit, removing 'emulation' bytes from the copy
// copy from live555
func RemoveEmulationBytes(from []byte) []byte {
	from = RemoveNaluSeparator(from)
	to := make([]byte, len(from))
	toMaxSize := len(to)
	fromSize := len(from)
	toSize := 0
	i := 0
	for i < fromSize && toSize+1 < toMaxSize {
		if i+2 < fromSize && from[i] == 0 && from[i+1] == 0 && from[i+2] == 3 {
			to[toSize] = 0
			to[toSize+1] = 0
			toSize += 2
			i += 3
		} else {
			to[toSize] = from[i]
			toSize++
			i++
		}
	}

	// 如果剩余最后一个字节，拷贝它
	if i < fromSize && toSize < toMaxSize {
		to[toSize] = from[i]
		toSize++
		i++
	}

	return to[:toSize]
}

// RemoveNaluSeparator 移除 NALU 分隔符 0x00000001 或 0x000001
func RemoveNaluSeparator(nalu []byte) []byte {
	if bytes.HasPrefix(nalu, []byte{0x0, 0x0, 0x0, 0x1}) {
		return nalu[4:]
	}
	if bytes.HasPrefix(nalu, []byte{0x0, 0x0, 0x1}) {
		return nalu[3:]
	}
	return nalu
}

// Scanner 顺序提取 Annex B 字节流中的 NAL 单元。
// 起始码 0x000001 前的零字节（零填充或 4 字节起始码前缀）视为分隔符。
type Scanner struct {
	data []byte
	pos  int
}

// NewScanner 在内存字节流上创建扫描器
func NewScanner(data []byte) *Scanner {
	return &Scanner{data: data}
}

// Next 返回下一个 NAL 单元并前移；流结束返回 false。
func (s *Scanner) Next() (NALUnit, bool) {
	unit, next, ok := s.scan(s.pos)
	s.pos = next
	return unit, ok
}

// Peek 返回下一个 NAL 单元但不前移。
func (s *Scanner) Peek() (NALUnit, bool) {
	unit, _, ok := s.scan(s.pos)
	return unit, ok
}

// Rewind 重置到流的开始
func (s *Scanner) Rewind() {
	s.pos = 0
}

func (s *Scanner) scan(from int) (unit NALUnit, next int, ok bool) {
	data := s.data
	for {
		start := -1
		zeros := 0
		for i := from; i < len(data); i++ {
			b := data[i]
			if b == 1 && zeros >= 2 {
				start = i + 1
				break
			}
			if b == 0 {
				zeros++
			} else {
				zeros = 0
			}
		}
		if start < 0 || start >= len(data) {
			return unit, len(data), false
		}

		// 单元在下一个起始码的前导零之前结束
		end := len(data)
		zeros = 0
		delim := 0
		for i := start; i < len(data); i++ {
			b := data[i]
			if b == 1 && zeros >= 2 {
				end = delim
				break
			}
			if b == 0 {
				if zeros == 0 {
					delim = i
				}
				zeros++
			} else {
				zeros = 0
			}
		}

		// 不足单元头长度的碎片直接丢弃
		if end-start < 2 {
			from = end
			continue
		}

		unit.Data = data[start:end]
		r := bits.NewReader(unit.Data)
		unit.Header.decode(r)
		return unit, end, true
	}
}

// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dpb

import "errors"

// 错误定义
var (
	// ErrDpbExhausted 缓冲区没有空闲槽位可供分配
	ErrDpbExhausted = errors.New("dpb: no unused slot available")
	// ErrFullnessUnderflow 占用计数出现负值，移除逻辑与码流不一致
	ErrFullnessUnderflow = errors.New("dpb: fullness became negative")
)

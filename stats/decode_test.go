// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"testing"
)

func TestDecode(t *testing.T) {
	total := NewDecode()
	session1 := NewChildDecode(total)
	session2 := NewChildDecode(total)

	t.Run("", func(t *testing.T) {
		session1.AddIn(100)
		session1.AddUnit()
		session1.AddPicture()
		sample := session1.GetSample()
		if sample.InBytes != 100 {
			t.Error("InBytes not is 100")
		}
		if sample.Pictures != 1 {
			t.Error("Pictures not is 1")
		}

		session2.AddIn(200)
		session2.AddRefMisses(3)
		sample = total.GetSample()
		if sample.InBytes != 300 {
			t.Error("InBytes not is 300")
		}
		if sample.Units != 1 {
			t.Error("Units not is 1")
		}
		if sample.RefMisses != 3 {
			t.Error("RefMisses not is 3")
		}
	})
}

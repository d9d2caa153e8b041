// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"testing"
)

func TestH265RawSPS_DecodeString(t *testing.T) {
	tests := []struct {
		name    string
		b64     string
		wantW   int
		wantH   int
		wantFR  float64
		wantErr bool
	}{
		{
			"base64_1",
			"QgEBAWAAAAMAkAAAAwAAAwBdoAKAgC0WWVmkkyuAQAAA+kAAF3AC",
			1280,
			720,
			float64(24000) / float64(1001),
			false,
		},
		{
			"base64_2",
			"QgEBBAgAAAMAnQgAAAMAAF2wAoCALRZZWaSTK4BAAAADAEAAAAeC",
			1280,
			720,
			30,
			false,
		},
		{
			"tpl500-265",
			"AAAAAUIBAQFgAAADAAADAAADAAADAJagAWggBln3ja5JMmuWMAgAAAMACAAAAwB4QA==",
			2880,
			1620,
			15,
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sps := &H265RawSPS{}
			if err := sps.DecodeString(tt.b64); (err != nil) != tt.wantErr {
				t.Errorf("RawSPS.Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if sps.Width() != tt.wantW {
				t.Errorf("RawSPS.Parse() Width = %v, wantWidth %v", sps.Width(), tt.wantW)
			}
			if sps.Height() != tt.wantH {
				t.Errorf("RawSPS.Parse() Height = %v, wantHeight %v", sps.Height(), tt.wantH)
			}
			if sps.FrameRate() != tt.wantFR {
				t.Errorf("RawSPS.Parse() FrameRate = %v, wantFrameRate %v", sps.FrameRate(), tt.wantFR)
			}
		})
	}
}

func TestH265RawSPS_Decode_RefPicSets(t *testing.T) {
	src := testSPS{
		stSets: []testSTSet{
			{
				negDeltas: []uint32{3, 3}, // DeltaPocS0: -4, -8
				negUsed:   []uint32{1, 0},
				posDeltas: []uint32{1}, // DeltaPocS1: +2
				posUsed:   []uint32{1},
			},
		},
		ltPocLsbs: []uint32{5, 9},
		ltUsed:    []uint32{1, 0},
	}

	sps := &H265RawSPS{}
	if err := sps.Decode(src.build()); err != nil {
		t.Fatalf("RawSPS.Decode() error = %v", err)
	}

	if got := sps.MaxPicOrderCntLsb(); got != 16 {
		t.Errorf("MaxPicOrderCntLsb() = %v, want 16", got)
	}
	if got := sps.PicSizeInCtbsY(); got != 4 {
		t.Errorf("PicSizeInCtbsY() = %v, want 4", got)
	}

	if sps.Num_short_term_ref_pic_sets != 1 {
		t.Fatalf("num_short_term_ref_pic_sets = %v, want 1", sps.Num_short_term_ref_pic_sets)
	}
	st := &sps.St_ref_pic_set[0]
	if st.NumNegativePics != 2 || st.NumPositivePics != 1 {
		t.Fatalf("st set sizes = (%v,%v), want (2,1)", st.NumNegativePics, st.NumPositivePics)
	}
	wantS0 := []int32{-4, -8}
	wantS0Used := []uint8{1, 0}
	for i := range wantS0 {
		if st.DeltaPocS0[i] != wantS0[i] || st.UsedByCurrPicS0[i] != wantS0Used[i] {
			t.Errorf("DeltaPocS0[%d] = (%v,%v), want (%v,%v)",
				i, st.DeltaPocS0[i], st.UsedByCurrPicS0[i], wantS0[i], wantS0Used[i])
		}
	}
	if st.DeltaPocS1[0] != 2 || st.UsedByCurrPicS1[0] != 1 {
		t.Errorf("DeltaPocS1[0] = (%v,%v), want (2,1)", st.DeltaPocS1[0], st.UsedByCurrPicS1[0])
	}
	if st.NumDeltaPocs() != 3 {
		t.Errorf("NumDeltaPocs() = %v, want 3", st.NumDeltaPocs())
	}

	if sps.Long_term_ref_pics_present_flag != 1 || sps.Num_long_term_ref_pics_sps != 2 {
		t.Fatalf("lt table = (%v,%v), want (1,2)",
			sps.Long_term_ref_pics_present_flag, sps.Num_long_term_ref_pics_sps)
	}
	if sps.Lt_ref_pic_poc_lsb_sps[0] != 5 || sps.Used_by_curr_pic_lt_sps_flag[0] != 1 {
		t.Errorf("lt[0] = (%v,%v), want (5,1)",
			sps.Lt_ref_pic_poc_lsb_sps[0], sps.Used_by_curr_pic_lt_sps_flag[0])
	}
	if sps.Lt_ref_pic_poc_lsb_sps[1] != 9 || sps.Used_by_curr_pic_lt_sps_flag[1] != 0 {
		t.Errorf("lt[1] = (%v,%v), want (9,0)",
			sps.Lt_ref_pic_poc_lsb_sps[1], sps.Used_by_curr_pic_lt_sps_flag[1])
	}
}

func TestH265RawSTRefPicSet_InterPrediction(t *testing.T) {
	// 集合 0 直接形式，集合 1 以 deltaRps=-4 预测自集合 0
	src := testSPS{
		stSets: []testSTSet{
			{
				negDeltas: []uint32{3, 3},
				negUsed:   []uint32{1, 0},
				posDeltas: []uint32{1},
				posUsed:   []uint32{1},
			},
		},
	}

	w := &bitWriter{}
	w.nalHeader(NalSps)
	w.u(0, 4)
	w.u(0, 3)
	w.u(1, 1)
	w.u(0, 2)
	w.u(0, 1)
	w.u(1, 5)
	w.u(0x60000000, 32)
	w.u(1, 1)
	w.u(0, 1)
	w.u(0, 1)
	w.u(1, 1)
	w.u(0, 32)
	w.u(0, 12)
	w.u(93, 8)
	w.ue(0)
	w.ue(1)
	w.ue(64)
	w.ue(64)
	w.u(0, 1)
	w.ue(0)
	w.ue(0)
	w.ue(0)
	w.u(1, 1)
	w.ue(3)
	w.ue(0)
	w.ue(0)
	w.ue(0)
	w.ue(2)
	w.ue(0)
	w.ue(2)
	w.ue(0)
	w.ue(0)
	w.u(0, 1)
	w.u(0, 1)
	w.u(0, 1)
	w.u(0, 1)

	w.ue(2) // num_short_term_ref_pic_sets
	src.stSets[0].writeDirect(w, 0)
	// 集合 1：inter_ref_pic_set_prediction_flag=1
	w.u(1, 1)
	w.u(1, 1) // delta_rps_sign
	w.ue(3)   // abs_delta_rps_minus1 -> deltaRps=-4
	// used/use_delta flags，j=0..3
	w.u(1, 1)
	w.u(0, 1)
	w.u(1, 1)
	w.u(1, 1)
	w.u(1, 1)

	w.u(0, 1) // long_term_ref_pics_present_flag
	w.u(0, 1)
	w.u(0, 1)
	w.u(0, 1)

	sps := &H265RawSPS{}
	if err := sps.Decode(w.nal()); err != nil {
		t.Fatalf("RawSPS.Decode() error = %v", err)
	}

	st := &sps.St_ref_pic_set[1]
	if st.NumNegativePics != 4 {
		t.Fatalf("NumNegativePics = %v, want 4", st.NumNegativePics)
	}
	if st.NumPositivePics != 0 {
		t.Fatalf("NumPositivePics = %v, want 0", st.NumPositivePics)
	}
	wantS0 := []int32{-2, -4, -8, -12}
	wantUsed := []uint8{1, 1, 1, 0}
	for i := range wantS0 {
		if st.DeltaPocS0[i] != wantS0[i] {
			t.Errorf("DeltaPocS0[%d] = %v, want %v", i, st.DeltaPocS0[i], wantS0[i])
		}
		if st.UsedByCurrPicS0[i] != wantUsed[i] {
			t.Errorf("UsedByCurrPicS0[%d] = %v, want %v", i, st.UsedByCurrPicS0[i], wantUsed[i])
		}
	}
}

func Benchmark_SPSDecode(b *testing.B) {
	spsstr := "QgEBAWAAAAMAkAAAAwAAAwBdoAKAgC0WWVmkkyuAQAAA+kAAF3AC"

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			sps := &H265RawSPS{}
			_ = sps.DecodeString(spsstr)
		}
	})
}

// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package interval_test

import (
	"testing"
	"time"

	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/interval"
	"github.com/wearable-lab/wdk/test"
)

type bout struct {
	participant string
	start, end  string
	steps       interface{}
}

func bouts(t *testing.T, bs ...bout) *wdk.Table {
	at := test.Clock(t, "2024-03-01")
	ps := make([]interface{}, len(bs))
	starts := make([]interface{}, len(bs))
	ends := make([]interface{}, len(bs))
	steps := make([]interface{}, len(bs))
	for i, b := range bs {
		ps[i] = b.participant
		starts[i] = at(b.start)
		ends[i] = at(b.end)
		steps[i] = b.steps
	}
	return test.MustTable(t, "sleep",
		wdk.NewColumn("participant", ps...),
		wdk.NewColumn("start", starts...),
		wdk.NewColumn("end", ends...),
		wdk.NewColumn("steps", steps...),
	)
}

func clocks(t *testing.T, tbl *wdk.Table, column string) []string {
	vals := test.Values(t, tbl, column)
	ret := make([]string, len(vals))
	for i, v := range vals {
		ret[i] = v.(time.Time).Format("15:04")
	}
	return ret
}

func TestMergeFragmentsAbsorbsContinuations(t *testing.T) {
	tbl := bouts(t,
		bout{"a", "00:00", "00:10", 1},
		bout{"a", "00:15", "00:20", 2},
		bout{"a", "04:00", "04:30", 4},
	)
	cfg := interval.Config{
		Gap:          time.Hour,
		Aggregations: []interval.Aggregation{{Column: "steps", Func: wdk.AggSum}},
	}
	out, err := (&interval.MergeFragments{Config: cfg}).Process(tbl)
	test.ErrNil(t, err, "MergeFragments")
	res := out[0]
	test.MustBe(t, clocks(t, res, "start"), []string{"00:00", "04:00"})
	test.MustBe(t, clocks(t, res, "end"), []string{"00:20", "04:30"})
	test.MustBe(t, test.Values(t, res, "steps"), []interface{}{3.0, 4.0})
	test.MustBe(t, tbl.Len(), 3, "input untouched")
}

func TestMergeVariantsAnchorDifferently(t *testing.T) {
	tbl := bouts(t,
		bout{"a", "00:00", "00:10", 1},
		bout{"a", "02:10", "02:20", 2},
		bout{"a", "02:25", "02:40", 3},
		bout{"a", "02:45", "03:00", 4},
	)
	cfg := interval.Config{
		Gap:          time.Hour,
		Aggregations: []interval.Aggregation{{Column: "steps", Func: wdk.AggSum}},
	}
	tests := []struct {
		op     wdk.Operator
		starts []string
		ends   []string
		steps  []interface{}
	}{
		{
			op:     &interval.MergeFragments{Config: cfg},
			starts: []string{"00:00", "02:10"},
			ends:   []string{"00:10", "03:00"},
			steps:  []interface{}{1.0, 9.0},
		},
		{
			op:     &interval.FillGaps{Config: cfg},
			starts: []string{"00:00", "02:45"},
			ends:   []string{"02:40", "03:00"},
			steps:  []interface{}{6.0, 4.0},
		},
	}
	for _, tst := range tests {
		out, err := tst.op.Process(tbl)
		test.ErrNil(t, err, wdk.NameOf(tst.op))
		res := out[0]
		test.MustBe(t, clocks(t, res, "start"), tst.starts, wdk.NameOf(tst.op))
		test.MustBe(t, clocks(t, res, "end"), tst.ends, wdk.NameOf(tst.op))
		test.MustBe(t, test.Values(t, res, "steps"), tst.steps, wdk.NameOf(tst.op))
	}
}

func TestMergeGapColumn(t *testing.T) {
	tbl := bouts(t,
		bout{"a", "00:00", "00:10", 1},
		bout{"a", "00:15", "00:20", 2},
		bout{"a", "04:00", "04:30", 4},
	)
	cfg := interval.Config{Gap: time.Hour, GapColumn: "gap"}

	out, err := (&interval.MergeFragments{Config: cfg}).Process(tbl)
	test.ErrNil(t, err, "MergeFragments")
	test.MustBe(t, test.Values(t, out[0], "gap"), []interface{}{(3*time.Hour + 40*time.Minute).Seconds(), nil}, "gap after the last row of each span")

	out, err = (&interval.FillGaps{Config: cfg}).Process(tbl)
	test.ErrNil(t, err, "FillGaps")
	test.MustBe(t, clocks(t, out[0], "start"), []string{"00:00", "00:15", "04:00"}, "boundaries start runs")
	test.MustBe(t, test.Values(t, out[0], "gap"), []interface{}{(5 * time.Minute).Seconds(), (3*time.Hour + 40*time.Minute).Seconds(), nil}, "gap after the anchor")
}

func TestMergePerParticipantUnsorted(t *testing.T) {
	tbl := bouts(t,
		bout{"b", "01:00", "01:30", 1},
		bout{"a", "02:00", "02:10", 1},
		bout{"a", "01:00", "01:50", 1},
		bout{"b", "01:40", "02:00", 1},
		bout{"a", "05:00", "05:10", 1},
	)
	cfg := interval.Config{
		Gap:          10 * time.Minute,
		Aggregations: []interval.Aggregation{{Column: "steps", Func: wdk.AggCount, Output: "fragments"}},
	}
	tests := []struct {
		op           wdk.Operator
		participants []interface{}
		starts       []string
		ends         []string
		fragments    []interface{}
	}{
		{
			op:           &interval.MergeFragments{Config: cfg},
			participants: []interface{}{"a", "a", "b"},
			starts:       []string{"01:00", "05:00", "01:00"},
			ends:         []string{"02:10", "05:10", "02:00"},
			fragments:    []interface{}{int64(2), int64(1), int64(2)},
		},
		{
			op:           &interval.FillGaps{Config: cfg},
			participants: []interface{}{"a", "a", "a", "b", "b"},
			starts:       []string{"01:00", "02:00", "05:00", "01:00", "01:40"},
			ends:         []string{"01:50", "02:10", "05:10", "01:30", "02:00"},
			fragments:    []interface{}{int64(1), int64(1), int64(1), int64(1), int64(1)},
		},
	}
	for _, tst := range tests {
		name := wdk.NameOf(tst.op)
		out, err := tst.op.Process(tbl)
		test.ErrNil(t, err, name)
		res := out[0]
		test.MustBe(t, test.Values(t, res, "participant"), tst.participants, name)
		test.MustBe(t, clocks(t, res, "start"), tst.starts, name)
		test.MustBe(t, clocks(t, res, "end"), tst.ends, name)
		test.MustBe(t, test.Values(t, res, "fragments"), tst.fragments, name)
		steps := test.Values(t, res, "steps")
		for i := range steps {
			test.MustBe(t, int64(1), steps[i], "unaggregated columns come from the first row")
		}
	}
}

func TestMergeThresholdIsInclusive(t *testing.T) {
	tbl := bouts(t,
		bout{"a", "00:00", "00:10", 1},
		bout{"a", "00:20", "00:30", 1},
	)
	out, err := (&interval.MergeFragments{Config: interval.Config{Gap: 10 * time.Minute}}).Process(tbl)
	test.ErrNil(t, err, "exact gap")
	test.MustBe(t, out[0].Len(), 1, "a gap equal to the threshold merges")

	out, err = (&interval.MergeFragments{Config: interval.Config{Gap: 9 * time.Minute}}).Process(tbl)
	test.ErrNil(t, err, "longer gap")
	test.MustBe(t, out[0].Len(), 2)
}

func TestMergeErrors(t *testing.T) {
	tbl := bouts(t, bout{"a", "00:00", "00:10", 1})
	tbl.DropColumn("end")
	if _, err := (&interval.FillGaps{}).Process(tbl); !wdk.IsMissingColumn(err) {
		t.Fatalf("expected missing column error, got %v", err)
	}

	bad := test.MustTable(t, "bad",
		wdk.NewColumn("participant", "a"),
		wdk.NewColumn("start", "00:00"),
		wdk.NewColumn("end", "00:10"),
	)
	if _, err := (&interval.MergeFragments{}).Process(bad); !wdk.IsValidation(err) {
		t.Fatalf("expected validation error for string times, got %v", err)
	}

	cfg := interval.Config{Aggregations: []interval.Aggregation{{Column: "steps"}}}
	if _, err := (&interval.MergeFragments{Config: cfg}).Process(bouts(t, bout{"a", "00:00", "00:10", 1})); err == nil {
		t.Fatal("expected error for aggregation without a function")
	}
}

func TestMergeEmpty(t *testing.T) {
	tbl := test.MustTable(t, "empty",
		wdk.NewColumn("participant"),
		wdk.NewColumn("start"),
		wdk.NewColumn("end"),
	)
	out, err := (&interval.FillGaps{}).Process(tbl)
	test.ErrNil(t, err, "FillGaps")
	test.MustBe(t, out[0].Len(), 0)
}

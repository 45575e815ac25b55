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

package validate_test

import (
	"testing"
	"time"

	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/mock"
	"github.com/wearable-lab/wdk/test"
	"github.com/wearable-lab/wdk/validate"
)

type epoch struct {
	participant string
	day, hour   int
	steps       interface{}
}

func epochs(t *testing.T, es ...epoch) *wdk.Table {
	ps := make([]interface{}, len(es))
	ts := make([]interface{}, len(es))
	steps := make([]interface{}, len(es))
	for i, e := range es {
		ps[i] = e.participant
		ts[i] = time.Date(2024, 3, e.day, e.hour, 0, 0, 0, time.UTC)
		steps[i] = e.steps
	}
	return test.MustTable(t, "epochs",
		wdk.NewColumn("participant", ps...),
		wdk.NewColumn("timestamp", ts...),
		wdk.NewColumn("steps", steps...),
	)
}

func codes(t *testing.T, tbl *wdk.Table) []validate.Code {
	cs, err := validate.RowCodes(tbl, validate.Config{})
	test.ErrNil(t, err, "RowCodes")
	return cs
}

func process(t *testing.T, op wdk.Operator, tbl *wdk.Table) *wdk.Table {
	out, err := op.Process(tbl)
	test.ErrNil(t, err, wdk.NameOf(op))
	test.MustBe(t, len(out), 1, wdk.NameOf(op))
	return out[0]
}

func TestInitIdempotent(t *testing.T) {
	tbl := epochs(t, epoch{"a", 1, 10, 5}, epoch{"a", 2, 10, 6}, epoch{"b", 5, 3, 1})
	once, err := validate.Init(tbl, validate.Config{})
	test.ErrNil(t, err, "Init")
	twice, err := validate.Init(once, validate.Config{})
	test.ErrNil(t, err, "Init again")
	test.MustBe(t, twice.Columns(), once.Columns())
	test.MustBe(t, test.Values(t, twice, "_experiment_day"), []interface{}{int64(0), int64(1), int64(0)})
	test.MustBe(t, test.Values(t, twice, "_invalid"), []interface{}{int64(0), int64(0), int64(0)})
	test.MustBe(t, tbl.HasColumn("_invalid"), false, "input untouched")
}

func TestEpochThreshold(t *testing.T) {
	tbl := epochs(t, epoch{"a", 1, 10, 5}, epoch{"a", 1, 11, 1}, epoch{"a", 1, 12, nil})
	v := &validate.EpochThreshold{Column: "steps", Threshold: 2}
	out := process(t, v, tbl)
	test.MustBe(t, codes(t, out), []validate.Code{0, validate.EpochBelowThreshold, 0})

	again := process(t, v, out)
	test.MustBe(t, codes(t, again), codes(t, out), "validators are idempotent")

	bad := epochs(t, epoch{"a", 1, 10, "many"})
	if _, err := v.Process(bad); !wdk.IsValidation(err) {
		t.Fatalf("expected validation error for non-numeric steps, got %v", err)
	}
	missing := &validate.EpochThreshold{Column: "hr", Threshold: 2}
	if _, err := missing.Process(tbl); !wdk.IsMissingColumn(err) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestEpochNull(t *testing.T) {
	tbl := epochs(t, epoch{"a", 1, 10, 5}, epoch{"a", 1, 11, nil})
	out := process(t, &validate.EpochNull{}, tbl)
	test.MustBe(t, codes(t, out), []validate.Code{0, validate.EpochNullValue})
}

func TestRepeatedValidatorKeepsFlags(t *testing.T) {
	tbl := epochs(t,
		epoch{"a", 1, 10, 5}, epoch{"a", 1, 11, 1}, epoch{"a", 1, 12, nil},
		epoch{"a", 2, 10, 8}, epoch{"a", 2, 11, 9},
		epoch{"a", 4, 10, 1},
		epoch{"b", 1, 10, 20}, epoch{"b", 1, 11, 1},
	)
	flagged := process(t, &validate.EpochThreshold{Column: "steps", Threshold: 2}, tbl)
	before := codes(t, flagged)

	dayAgg, err := validate.NewDayAggregate("steps", wdk.AggSum, 10)
	test.ErrNil(t, err, "NewDayAggregate")
	validators := []wdk.Operator{
		&validate.EpochThreshold{Column: "steps", Threshold: 6},
		&validate.EpochNull{},
		&validate.DayValidEpochs{MinEpochs: 2},
		&validate.DayInvalidEpochs{MaxInvalid: 0},
		dayAgg,
		&validate.ParticipantDays{MinDays: 2, OnlyValid: true},
		&validate.ConsecutiveDays{MinDays: 2},
	}
	for _, v := range validators {
		name := wdk.NameOf(v)
		once := process(t, v, flagged)
		twice := process(t, v, once)
		c0, c1, c2 := before, codes(t, once), codes(t, twice)
		for i := range c1 {
			if c1[i]&c0[i] != c0[i] {
				t.Fatalf("%s dropped flags on row %d: %v -> %v", name, i, c0[i], c1[i])
			}
			if c2[i]&c1[i] != c1[i] {
				t.Fatalf("%s dropped flags on row %d when applied again: %v -> %v", name, i, c1[i], c2[i])
			}
		}
	}
}

func TestFlagsAccumulate(t *testing.T) {
	tbl := epochs(t, epoch{"a", 1, 10, 1}, epoch{"a", 1, 11, nil})
	seq, err := wdk.NewSequence(
		&validate.EpochThreshold{Column: "steps", Threshold: 2},
		&validate.EpochNull{Columns: []string{"steps"}},
		&validate.DayValidEpochs{MinEpochs: 1},
	)
	test.ErrNil(t, err, "NewSequence")
	out, err := seq.Process(tbl)
	test.ErrNil(t, err, "Process")
	cs := codes(t, out[0])
	test.MustBe(t, cs[0], validate.EpochBelowThreshold|validate.DayNotEnoughValidEpochs)
	test.MustBe(t, cs[1], validate.EpochNullValue|validate.DayNotEnoughValidEpochs)
}

func TestDayValidAndInvalidEpochs(t *testing.T) {
	tbl := epochs(t,
		epoch{"a", 1, 10, 5}, epoch{"a", 1, 11, 0}, epoch{"a", 1, 12, 0},
		epoch{"a", 2, 10, 5}, epoch{"a", 2, 11, 5}, epoch{"a", 2, 12, 0},
	)
	flagged := process(t, &validate.EpochThreshold{Column: "steps", Threshold: 1}, tbl)

	valid := process(t, &validate.DayValidEpochs{MinEpochs: 2}, flagged)
	cs := codes(t, valid)
	for i := 0; i < 3; i++ {
		if !cs[i].Has(validate.DayNotEnoughValidEpochs) {
			t.Errorf("row %d of day 1 should be flagged, has %v", i, cs[i])
		}
	}
	for i := 3; i < 6; i++ {
		if cs[i].Has(validate.DayNotEnoughValidEpochs) {
			t.Errorf("row %d of day 2 shouldn't be flagged, has %v", i, cs[i])
		}
	}

	tooMany := process(t, &validate.DayInvalidEpochs{MaxInvalid: 1}, flagged)
	cs = codes(t, tooMany)
	test.MustBe(t, cs[0], validate.DayTooManyInvalidEpochs)
	test.MustBe(t, cs[3], validate.Valid)
	test.MustBe(t, cs[5], validate.EpochBelowThreshold)
}

func TestDayAggregate(t *testing.T) {
	tbl := epochs(t,
		epoch{"a", 1, 10, 500}, epoch{"a", 1, 11, 600},
		epoch{"a", 2, 10, 100}, epoch{"a", 2, 11, nil},
		epoch{"a", 3, 10, nil},
	)
	v, err := validate.NewDayAggregate("steps", wdk.AggSum, 1000)
	test.ErrNil(t, err, "NewDayAggregate")
	cs := codes(t, process(t, v, tbl))
	test.MustBe(t, cs, []validate.Code{0, 0, validate.DayBelowThreshold, validate.DayBelowThreshold, validate.DayBelowThreshold})

	mean := &validate.DayAggregate{Column: "steps", Aggregate: wdk.AggMean, Threshold: 100}
	cs = codes(t, process(t, mean, tbl))
	test.MustBe(t, cs, []validate.Code{0, 0, 0, 0, validate.DayBelowThreshold}, "a day without values is flagged")

	if _, err := validate.NewDayAggregate("steps", wdk.Aggregate(99), 1); err == nil {
		t.Fatal("expected error for unknown aggregate")
	}
}

func TestParticipantDays(t *testing.T) {
	tbl := epochs(t,
		epoch{"a", 1, 10, 5}, epoch{"a", 2, 10, 5},
		epoch{"b", 1, 10, 5}, epoch{"b", 2, 10, 0},
	)
	flagged := process(t, &validate.EpochThreshold{Column: "steps", Threshold: 1}, tbl)

	cs := codes(t, process(t, &validate.ParticipantDays{MinDays: 2}, flagged))
	test.MustBe(t, cs[2], validate.Valid, "all days count")

	cs = codes(t, process(t, &validate.ParticipantDays{MinDays: 2, OnlyValid: true}, flagged))
	test.MustBe(t, cs[0], validate.Valid)
	test.MustBe(t, cs[2], validate.ParticipantNotEnoughDays)
	test.MustBe(t, cs[3], validate.EpochBelowThreshold|validate.ParticipantNotEnoughDays)
}

func TestConsecutiveDays(t *testing.T) {
	var es []epoch
	for _, d := range []int{1, 2, 3, 5, 6, 9} {
		es = append(es, epoch{"a", d, 12, 10})
	}
	out := process(t, &validate.ConsecutiveDays{MinDays: 2}, epochs(t, es...))
	cs := codes(t, out)
	for i := 0; i < 5; i++ {
		test.MustBe(t, cs[i], validate.Valid)
	}
	test.MustBe(t, cs[5], validate.DayNotEnoughConsecutiveDays, "day 9 stands alone")

	valid, err := validate.ValidDays(out, validate.Config{})
	test.ErrNil(t, err, "ValidDays")
	byP := valid.ByParticipant()
	test.MustBe(t, byP["a"], []int{0, 1, 2, 4, 5})
}

func TestPruneRoundTrip(t *testing.T) {
	tbl := epochs(t,
		epoch{"a", 1, 10, 0}, epoch{"a", 1, 11, 0},
		epoch{"a", 2, 10, 0}, epoch{"a", 2, 11, 7},
		epoch{"b", 1, 10, 9},
	)
	flagged := process(t, &validate.EpochThreshold{Column: "steps", Threshold: 1}, tbl)
	pruned := process(t, &validate.Prune{}, flagged)
	test.MustBe(t, pruned.Len(), 3)
	test.MustBe(t, test.Values(t, pruned, "steps"), []interface{}{int64(0), int64(7), int64(9)}, "flagged epoch of a valid day survives")

	invalid, err := validate.InvalidDays(pruned, validate.Config{})
	test.ErrNil(t, err, "InvalidDays")
	test.MustBe(t, len(invalid), 0)

	again := process(t, &validate.Prune{}, pruned)
	test.MustBe(t, again.Len(), pruned.Len(), "pruning is idempotent")
}

func TestReport(t *testing.T) {
	tbl := epochs(t,
		epoch{"a", 1, 10, 0}, epoch{"a", 1, 11, nil},
		epoch{"a", 2, 10, 0},
		epoch{"a", 3, 10, 5},
	)
	seq, err := wdk.NewSequence(
		&validate.EpochThreshold{Column: "steps", Threshold: 1},
		&validate.EpochNull{Columns: []string{"steps"}},
	)
	test.ErrNil(t, err, "NewSequence")
	out, err := seq.Process(tbl)
	test.ErrNil(t, err, "Process")

	rep, err := validate.NewReport(out[0], validate.Config{})
	test.ErrNil(t, err, "NewReport")
	test.MustBe(t, rep.InvalidDays, 2)
	test.MustBe(t, rep.Days[validate.EpochBelowThreshold], 2)
	test.MustBe(t, rep.Days[validate.EpochNullValue], 1)
	test.MustBe(t, rep.Total, 3)

	rt := rep.AsTable()
	test.MustBe(t, rt.Len(), len(validate.Codes()))
	test.MustBe(t, rt.Value("code", 0), "epoch-below-threshold")
	test.MustBe(t, rt.Value("days", 0), int64(2))

	v := wdk.NewVariable("reports")
	log := &mock.RecordingLogger{}
	passed, err := (&validate.Reporter{Variable: v, Log: log}).Process(out...)
	test.ErrNil(t, err, "Reporter")
	test.MustBe(t, passed, out, "reporter passes inputs through")
	stored, ok := v.Get()
	test.MustBe(t, ok, true)
	test.MustBe(t, len(stored.([]*validate.Report)), 1)
	test.MustBe(t, len(v.Tables()), 1)
	test.MustBe(t, len(log.Lines), 1)
}

func TestCodeString(t *testing.T) {
	c := validate.EpochNullValue | validate.DayBelowThreshold
	test.MustBe(t, c.String(), "epoch-null-value|day-below-threshold")
	parsed, err := validate.ParseCode(c.String())
	test.ErrNil(t, err, "ParseCode")
	test.MustBe(t, parsed, c)
	test.MustBe(t, validate.Valid.String(), "valid")
	test.MustBe(t, validate.Valid.Has(validate.Valid), false)
	if _, err := validate.ParseCode("bogus"); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

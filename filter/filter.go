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

// Package filter selects participants, epochs and days from epoch tables.
package filter

import (
	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/days"
)

// DayFilter applies up to three stages, always in this order:
//
//  1. participants, by an explicit id list;
//  2. epochs, by a predicate over each row;
//  3. days, by a predicate over an aggregate of one column per participant
//     calendar day, optionally followed by a constraint on the length of runs
//     of consecutive kept days.
//
// A stage is enabled by setting its list or predicate. Include keeps what the
// stage selects and Exclude keeps the rest.
//
// The run constraint uses days.Between: a run must be longer than Min and at
// most Max days. This is deliberately not the inclusive minimum used by
// validate.ConsecutiveDays.
type DayFilter struct {
	Participants    []string
	ParticipantMode Mode

	Epoch     Predicate
	EpochMode Mode

	DayColumn    string
	DayAggregate wdk.Aggregate
	Day          ValuePredicate
	DayMode      Mode
	Consecutive  *days.Between

	// StartHour shifts the start of a calendar day.
	StartHour int
}

// Name implements wdk.Namer.
func (f *DayFilter) Name() string { return "day-filter" }

// Process implements wdk.Operator.
func (f *DayFilter) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	out := make([]*wdk.Table, len(tables))
	for i, t := range tables {
		if t == nil {
			return nil, wdk.NewValidationError(f.Name(), "input %d is not a table", i)
		}
		res, err := f.filter(t)
		if err != nil {
			return nil, errors.Wrapf(err, "day-filter: '%s'", t.Name)
		}
		out[i] = res
	}
	return out, nil
}

func (f *DayFilter) filter(t *wdk.Table) (*wdk.Table, error) {
	if len(f.Participants) > 0 {
		ps, err := days.Participants(t)
		if err != nil {
			return nil, err
		}
		listed := make(map[string]struct{}, len(f.Participants))
		for _, p := range f.Participants {
			listed[p] = struct{}{}
		}
		keep := make([]bool, len(ps))
		for r, p := range ps {
			_, ok := listed[p]
			keep[r] = f.ParticipantMode.keeps(ok)
		}
		t = t.Filter(keep)
	}

	if f.Epoch != nil {
		keep := make([]bool, t.Len())
		for r := range keep {
			keep[r] = f.EpochMode.keeps(f.Epoch(t.Row(r)))
		}
		t = t.Filter(keep)
	}

	if f.Day != nil || f.Consecutive != nil {
		return f.filterDays(t)
	}
	return t, nil
}

func (f *DayFilter) filterDays(t *wdk.Table) (*wdk.Table, error) {
	ps, err := days.Participants(t)
	if err != nil {
		return nil, err
	}
	cal, err := days.Calendar(t, f.StartHour)
	if err != nil {
		return nil, err
	}
	keys := make([]days.Key, len(ps))
	rowsOf := make(map[days.Key][]int)
	for r := range ps {
		keys[r] = days.Key{Participant: ps[r], Day: cal[r]}
		rowsOf[keys[r]] = append(rowsOf[keys[r]], r)
	}

	kept := make(days.Set, len(rowsOf))
	if f.Day != nil {
		col, ok := t.Column(f.DayColumn)
		if !ok {
			return nil, &wdk.MissingColumnError{Operator: f.Name(), Table: t.Name, Column: f.DayColumn}
		}
		agg := f.DayAggregate
		if agg == 0 {
			agg = wdk.AggSum
		}
		reduce, err := agg.Reducer()
		if err != nil {
			return nil, wdk.NewValidationError(f.Name(), "%v", err)
		}
		for k, rows := range rowsOf {
			vals := make([]interface{}, len(rows))
			for i, r := range rows {
				vals[i] = col.Values[r]
			}
			v, err := reduce(vals)
			if err != nil {
				return nil, errors.Wrapf(err, "aggregating '%s' for %v", f.DayColumn, k)
			}
			fv, ok := wdk.ToFloat(v)
			if f.DayMode.keeps(ok && f.Day(fv)) {
				kept.Add(k)
			}
		}
	} else {
		for k := range rowsOf {
			kept.Add(k)
		}
	}

	if f.Consecutive != nil {
		kept = days.Acceptable(kept.ByParticipant(), *f.Consecutive)
	}

	keep := make([]bool, len(keys))
	for r, k := range keys {
		keep[r] = kept.Has(k)
	}
	return t.Filter(keep), nil
}

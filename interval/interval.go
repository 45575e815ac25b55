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

// Package interval merges fragmented activity intervals (sleep logs, exercise
// bouts...) which are separated by short gaps.
//
// Both merges work per participant on intervals sorted by start time. The gap
// of an interval is the time from its end to the start of the participant's
// next interval; the participant's last interval has no next and so never
// merges forward. An interval whose gap exceeds the configured threshold is a
// boundary.
//
// MergeFragments stitches each interval together with the following ones up
// to and including the next boundary. FillGaps attaches each gap to the
// interval after it instead, and starts a new run at every interval preceded
// by a long gap; a run's first interval absorbs the rest of the run up to,
// but not including, the next interval preceded by a long gap.
//
// In both cases the surviving row is the first of the merged rows, its end is
// replaced by the end of the last merged row and the configured aggregations
// are computed over the merged rows in their original order. Inputs are never
// modified.
package interval

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// Aggregation describes how one column is combined over merged rows. Reducer,
// if set, takes precedence over Func. The result is written to Output, or
// back to Column if Output is empty.
type Aggregation struct {
	Column  string
	Func    wdk.Aggregate
	Reducer wdk.Reducer
	Output  string
}

// Config is shared by both merges.
type Config struct {
	// Participant defaults to the table's participant key.
	Participant string
	// Start and End default to "start" and "end".
	Start string
	End   string

	// Gap is the largest gap which still counts as the same activity.
	Gap time.Duration

	Aggregations []Aggregation

	// GapColumn, if set, receives the gap in seconds attached to each
	// output row. It is missing where there is no neighbouring interval.
	GapColumn string
}

// noGap is the sentinel gap of an interval without a neighbour.
const noGap = time.Duration(math.MaxInt64)

type prepared struct {
	t      *wdk.Table
	starts []time.Time
	ends   []time.Time
	groups []wdk.Group
	aggs   []Aggregation
	funcs  []wdk.Reducer
	cfg    Config
}

func prepare(name string, cfg Config, t *wdk.Table) (*prepared, error) {
	if t == nil {
		return nil, wdk.NewValidationError(name, "input is not a table")
	}
	if cfg.Participant == "" {
		cfg.Participant = t.Keys.Participant
	}
	if cfg.Start == "" {
		cfg.Start = "start"
	}
	if cfg.End == "" {
		cfg.End = "end"
	}
	if err := t.Require(name, cfg.Participant, cfg.Start, cfg.End); err != nil {
		return nil, err
	}
	p := &prepared{cfg: cfg, aggs: cfg.Aggregations}
	for _, a := range cfg.Aggregations {
		if err := t.Require(name, a.Column); err != nil {
			return nil, err
		}
		r := a.Reducer
		if r == nil {
			var err error
			if r, err = a.Func.Reducer(); err != nil {
				return nil, errors.Wrapf(err, "%s: aggregation of '%s'", name, a.Column)
			}
		}
		p.funcs = append(p.funcs, r)
	}
	sorted, err := t.SortBy(cfg.Participant, cfg.Start)
	if err != nil {
		return nil, errors.Wrap(err, "sorting intervals")
	}
	p.t = sorted
	p.starts, err = times(name, sorted, cfg.Start)
	if err != nil {
		return nil, err
	}
	p.ends, err = times(name, sorted, cfg.End)
	if err != nil {
		return nil, err
	}
	p.groups, err = sorted.GroupBy(cfg.Participant)
	if err != nil {
		return nil, errors.Wrap(err, "grouping by participant")
	}
	return p, nil
}

func times(name string, t *wdk.Table, column string) ([]time.Time, error) {
	col, _ := t.Column(column)
	ret := make([]time.Time, len(col.Values))
	for i, v := range col.Values {
		ts, ok := wdk.ToTime(v)
		if !ok {
			return nil, wdk.NewValidationError(name, "row %d of '%s' is not a timestamp: %v", i, column, v)
		}
		ret[i] = ts
	}
	return ret, nil
}

// nextGaps returns, for each row of a participant's rows, the gap to the next
// row's start.
func (p *prepared) nextGaps(rows []int) []time.Duration {
	gaps := make([]time.Duration, len(rows))
	for i := range rows {
		if i == len(rows)-1 {
			gaps[i] = noGap
			continue
		}
		gaps[i] = p.starts[rows[i+1]].Sub(p.ends[rows[i]])
	}
	return gaps
}

// span is an inclusive window of row positions in the sorted table.
type span struct {
	first, last int
	gap         time.Duration
}

// build turns spans into the output table: one row per span, anchored on its
// first row.
func (p *prepared) build(spans []span) (*wdk.Table, error) {
	anchors := make([]int, len(spans))
	for i, s := range spans {
		anchors[i] = s.first
	}
	out := p.t.Take(anchors)

	endCol, _ := p.t.Column(p.cfg.End)
	ends := make([]interface{}, len(spans))
	for i, s := range spans {
		ends[i] = endCol.Values[s.last]
	}
	if err := out.SetColumn(p.cfg.End, endCol.Kind, ends); err != nil {
		return nil, errors.Wrap(err, "setting merged ends")
	}

	for ai, a := range p.aggs {
		src, _ := p.t.Column(a.Column)
		vals := make([]interface{}, len(spans))
		for i, s := range spans {
			v, err := p.funcs[ai](src.Values[s.first : s.last+1])
			if err != nil {
				return nil, errors.Wrapf(err, "aggregating '%s' over rows %d-%d", a.Column, s.first, s.last)
			}
			vals[i] = v
		}
		name := a.Output
		if name == "" {
			name = a.Column
		}
		if err := out.AddColumn(wdk.NewColumn(name, vals...)); err != nil {
			return nil, errors.Wrapf(err, "setting aggregate '%s'", name)
		}
	}

	if p.cfg.GapColumn != "" {
		gaps := make([]interface{}, len(spans))
		for i, s := range spans {
			if s.gap != noGap {
				gaps[i] = s.gap.Seconds()
			}
		}
		if err := out.SetColumn(p.cfg.GapColumn, wdk.KindFloat, gaps); err != nil {
			return nil, errors.Wrap(err, "setting gap column")
		}
	}
	return out, nil
}

func each(name string, tables []*wdk.Table, fn func(*wdk.Table) (*wdk.Table, error)) ([]*wdk.Table, error) {
	out := make([]*wdk.Table, len(tables))
	for i, t := range tables {
		res, err := fn(t)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: input %d", name, i)
		}
		out[i] = res
	}
	return out, nil
}

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

package validate

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/days"
)

// selector returns the rows a validator wants to flag.
type selector func(s *state) ([]bool, error)

// run is the transition every validator shares: initialize the reserved
// columns if they're absent, compute a row selection and OR the validator's
// flag into the selected rows. Each input is validated independently.
func run(name string, cfg Config, code Code, tables []*wdk.Table, sel selector) ([]*wdk.Table, error) {
	cfg = cfg.orDefault()
	out := make([]*wdk.Table, len(tables))
	for i, t := range tables {
		if t == nil {
			return nil, wdk.NewValidationError(name, "input %d is not a table", i)
		}
		it, err := Init(t, cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: initializing '%s'", name, t.Name)
		}
		s, err := newState(it, cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: loading '%s'", name, t.Name)
		}
		selected, err := sel(s)
		if err != nil {
			return nil, err
		}
		if err := s.flag(selected, code); err != nil {
			return nil, errors.Wrapf(err, "%s: flagging '%s'", name, t.Name)
		}
		out[i] = it
	}
	return out, nil
}

// EpochThreshold flags epochs whose value in Column is below Threshold.
// Missing values are left to EpochNull.
type EpochThreshold struct {
	Column    string
	Threshold float64
	Config    Config
}

// Name implements wdk.Namer.
func (v *EpochThreshold) Name() string { return fmt.Sprintf("epoch-threshold(%s)", v.Column) }

// Process implements wdk.Operator.
func (v *EpochThreshold) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	return run(v.Name(), v.Config, EpochBelowThreshold, tables, func(s *state) ([]bool, error) {
		col, ok := s.t.Column(v.Column)
		if !ok {
			return nil, &wdk.MissingColumnError{Operator: v.Name(), Table: s.t.Name, Column: v.Column}
		}
		sel := make([]bool, len(col.Values))
		for i, val := range col.Values {
			if wdk.IsNull(val) {
				continue
			}
			f, ok := wdk.ToFloat(val)
			if !ok {
				return nil, wdk.NewValidationError(v.Name(), "row %d: %v of %[2]T is not numeric", i, val)
			}
			sel[i] = f < v.Threshold
		}
		return sel, nil
	})
}

// EpochNull flags epochs with a missing value in any of Columns. With no
// Columns every column except the reserved ones is checked.
type EpochNull struct {
	Columns []string
	Config  Config
}

// Name implements wdk.Namer.
func (v *EpochNull) Name() string { return "epoch-null" }

// Process implements wdk.Operator.
func (v *EpochNull) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	return run(v.Name(), v.Config, EpochNullValue, tables, func(s *state) ([]bool, error) {
		names := v.Columns
		if len(names) == 0 {
			for _, name := range s.t.Columns() {
				if name != s.cfg.InvalidColumn && name != s.cfg.DayColumn {
					names = append(names, name)
				}
			}
		}
		if err := s.t.Require(v.Name(), names...); err != nil {
			return nil, err
		}
		sel := make([]bool, s.t.Len())
		for _, name := range names {
			col, _ := s.t.Column(name)
			for i, val := range col.Values {
				sel[i] = sel[i] || wdk.IsNull(val)
			}
		}
		return sel, nil
	})
}

// DayValidEpochs flags every epoch of days with fewer than MinEpochs valid
// epochs.
type DayValidEpochs struct {
	MinEpochs int
	Config    Config
}

// Name implements wdk.Namer.
func (v *DayValidEpochs) Name() string { return "day-valid-epochs" }

// Process implements wdk.Operator.
func (v *DayValidEpochs) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	return run(v.Name(), v.Config, DayNotEnoughValidEpochs, tables, func(s *state) ([]bool, error) {
		bad := make(days.Set)
		for k, rows := range s.dayRows {
			n := 0
			for _, r := range rows {
				if s.codes[r].IsValid() {
					n++
				}
			}
			if n < v.MinEpochs {
				bad.Add(k)
			}
		}
		return s.selectDays(bad), nil
	})
}

// DayInvalidEpochs flags every epoch of days with more than MaxInvalid
// flagged epochs.
type DayInvalidEpochs struct {
	MaxInvalid int
	Config     Config
}

// Name implements wdk.Namer.
func (v *DayInvalidEpochs) Name() string { return "day-invalid-epochs" }

// Process implements wdk.Operator.
func (v *DayInvalidEpochs) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	return run(v.Name(), v.Config, DayTooManyInvalidEpochs, tables, func(s *state) ([]bool, error) {
		bad := make(days.Set)
		for k, rows := range s.dayRows {
			n := 0
			for _, r := range rows {
				if !s.codes[r].IsValid() {
					n++
				}
			}
			if n > v.MaxInvalid {
				bad.Add(k)
			}
		}
		return s.selectDays(bad), nil
	})
}

// DayAggregate flags every epoch of days whose aggregate of Column is below
// Threshold. With OnlyValid set, flagged epochs don't contribute to the
// aggregate. A day without any value to aggregate is flagged.
type DayAggregate struct {
	Column    string
	Aggregate wdk.Aggregate
	Threshold float64
	OnlyValid bool
	Config    Config

	reduce wdk.Reducer
}

// NewDayAggregate returns a DayAggregate with its reducer resolved.
func NewDayAggregate(column string, agg wdk.Aggregate, threshold float64) (*DayAggregate, error) {
	r, err := agg.Reducer()
	if err != nil {
		return nil, errors.Wrap(err, "resolving day aggregate")
	}
	return &DayAggregate{Column: column, Aggregate: agg, Threshold: threshold, reduce: r}, nil
}

// Name implements wdk.Namer.
func (v *DayAggregate) Name() string { return fmt.Sprintf("day-%s(%s)", v.Aggregate, v.Column) }

// Process implements wdk.Operator.
func (v *DayAggregate) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	reduce := v.reduce
	if reduce == nil {
		r, err := v.Aggregate.Reducer()
		if err != nil {
			return nil, wdk.NewValidationError(v.Name(), "%v", err)
		}
		reduce = r
	}
	return run(v.Name(), v.Config, DayBelowThreshold, tables, func(s *state) ([]bool, error) {
		col, ok := s.t.Column(v.Column)
		if !ok {
			return nil, &wdk.MissingColumnError{Operator: v.Name(), Table: s.t.Name, Column: v.Column}
		}
		bad := make(days.Set)
		for _, k := range s.dayOrder {
			vals := make([]interface{}, 0, len(s.dayRows[k]))
			for _, r := range s.dayRows[k] {
				if v.OnlyValid && !s.codes[r].IsValid() {
					continue
				}
				vals = append(vals, col.Values[r])
			}
			agg, err := reduce(vals)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: aggregating day %v", v.Name(), k)
			}
			f, ok := wdk.ToFloat(agg)
			if !ok || f < v.Threshold {
				bad.Add(k)
			}
		}
		return s.selectDays(bad), nil
	})
}

// ParticipantDays flags every row of participants with fewer than MinDays
// distinct days. With OnlyValid set only valid days count.
type ParticipantDays struct {
	MinDays   int
	OnlyValid bool
	Config    Config
}

// Name implements wdk.Namer.
func (v *ParticipantDays) Name() string { return "participant-days" }

// Process implements wdk.Operator.
func (v *ParticipantDays) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	return run(v.Name(), v.Config, ParticipantNotEnoughDays, tables, func(s *state) ([]bool, error) {
		counted := s.allDays()
		if v.OnlyValid {
			counted = s.validDays()
		}
		perParticipant := make(map[string]int)
		for k := range counted {
			perParticipant[k.Participant]++
		}
		sel := make([]bool, len(s.keys))
		for i, k := range s.keys {
			sel[i] = perParticipant[k.Participant] < v.MinDays
		}
		return sel, nil
	})
}

// ConsecutiveDays flags every row of days which are not part of a run of at
// least MinDays consecutive valid days. Days which are already invalid never
// belong to a run, so they get this flag too.
type ConsecutiveDays struct {
	MinDays int
	Config  Config
}

// Name implements wdk.Namer.
func (v *ConsecutiveDays) Name() string { return "consecutive-days" }

// Process implements wdk.Operator.
func (v *ConsecutiveDays) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	return run(v.Name(), v.Config, DayNotEnoughConsecutiveDays, tables, func(s *state) ([]bool, error) {
		ok := days.Acceptable(s.validDays().ByParticipant(), days.AtLeast(v.MinDays))
		sel := make([]bool, len(s.keys))
		for i, k := range s.keys {
			sel[i] = !ok.Has(k)
		}
		return sel, nil
	})
}

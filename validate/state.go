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
	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/days"
)

// Config names the two reserved columns validators maintain, and the hour at
// which a day starts for experiment-day numbering.
type Config struct {
	InvalidColumn string
	DayColumn     string
	StartHour     int
}

// DefaultConfig is used by validators whose Config is left zero.
var DefaultConfig = Config{
	InvalidColumn: "_invalid",
	DayColumn:     "_experiment_day",
}

func (c Config) orDefault() Config {
	if c.InvalidColumn == "" {
		c.InvalidColumn = DefaultConfig.InvalidColumn
	}
	if c.DayColumn == "" {
		c.DayColumn = DefaultConfig.DayColumn
	}
	return c
}

// Init returns a copy of t carrying the invalidation and experiment-day
// columns. Rows start out valid. A table which already has both columns is
// copied unchanged, so Init is idempotent. The returned table is owned by the
// caller, which is what lets validators flag it in place.
func Init(t *wdk.Table, cfg Config) (*wdk.Table, error) {
	if t == nil {
		return nil, wdk.NewValidationError("validate", "input is not a table")
	}
	cfg = cfg.orDefault()
	ret := t.Clone()
	if !ret.HasColumn(cfg.DayColumn) {
		ds, err := days.Experiment(t, cfg.StartHour)
		if err != nil {
			return nil, errors.Wrap(err, "computing experiment days")
		}
		vals := make([]interface{}, len(ds))
		for i, d := range ds {
			vals[i] = int64(d)
		}
		if err := ret.SetColumn(cfg.DayColumn, wdk.KindInt, vals); err != nil {
			return nil, errors.Wrap(err, "adding experiment day column")
		}
	}
	if !ret.HasColumn(cfg.InvalidColumn) {
		vals := make([]interface{}, t.Len())
		for i := range vals {
			vals[i] = int64(Valid)
		}
		if err := ret.SetColumn(cfg.InvalidColumn, wdk.KindInt, vals); err != nil {
			return nil, errors.Wrap(err, "adding invalidation column")
		}
	}
	return ret, nil
}

// state is the per-table view validators work on: one participant, day key
// and code per row, plus the rows of each participant day.
type state struct {
	t     *wdk.Table
	cfg   Config
	keys  []days.Key
	codes []Code

	dayOrder []days.Key
	dayRows  map[days.Key][]int
}

func newState(t *wdk.Table, cfg Config) (*state, error) {
	ps, err := days.Participants(t)
	if err != nil {
		return nil, err
	}
	dcol, ok := t.Column(cfg.DayColumn)
	if !ok {
		return nil, &wdk.MissingColumnError{Operator: "validate", Table: t.Name, Column: cfg.DayColumn}
	}
	icol, ok := t.Column(cfg.InvalidColumn)
	if !ok {
		return nil, &wdk.MissingColumnError{Operator: "validate", Table: t.Name, Column: cfg.InvalidColumn}
	}
	s := &state{
		t:       t,
		cfg:     cfg,
		keys:    make([]days.Key, t.Len()),
		codes:   make([]Code, t.Len()),
		dayRows: make(map[days.Key][]int),
	}
	for i := 0; i < t.Len(); i++ {
		d, ok := wdk.ToInt(dcol.Values[i])
		if !ok {
			return nil, wdk.NewValidationError("validate", "row %d of '%s' is not an integer day: %v", i, cfg.DayColumn, dcol.Values[i])
		}
		c, ok := wdk.ToInt(icol.Values[i])
		if !ok {
			return nil, wdk.NewValidationError("validate", "row %d of '%s' is not an invalidation code: %v", i, cfg.InvalidColumn, icol.Values[i])
		}
		k := days.Key{Participant: ps[i], Day: int(d)}
		s.keys[i] = k
		s.codes[i] = Code(c)
		if _, seen := s.dayRows[k]; !seen {
			s.dayOrder = append(s.dayOrder, k)
		}
		s.dayRows[k] = append(s.dayRows[k], i)
	}
	return s, nil
}

// flag ORs code into every selected row and writes the codes back to the
// table.
func (s *state) flag(selected []bool, code Code) error {
	vals := make([]interface{}, len(s.codes))
	for i, c := range s.codes {
		if selected[i] {
			c = c.Or(code)
			s.codes[i] = c
		}
		vals[i] = int64(c)
	}
	return s.t.SetColumn(s.cfg.InvalidColumn, wdk.KindInt, vals)
}

// selectDays returns a row mask selecting every row of the given days.
func (s *state) selectDays(set days.Set) []bool {
	sel := make([]bool, len(s.keys))
	for i, k := range s.keys {
		sel[i] = set.Has(k)
	}
	return sel
}

// validDays are the days with at least one unflagged epoch.
func (s *state) validDays() days.Set {
	ret := make(days.Set)
	for i, k := range s.keys {
		if s.codes[i].IsValid() {
			ret.Add(k)
		}
	}
	return ret
}

// invalidDays are the days whose every epoch is flagged.
func (s *state) invalidDays() days.Set {
	return s.allDays().Minus(s.validDays())
}

func (s *state) allDays() days.Set {
	return days.NewSet(s.dayOrder...)
}

// ValidDays returns the participant days of t which have at least one valid
// epoch. t is initialized first if necessary.
func ValidDays(t *wdk.Table, cfg Config) (days.Set, error) {
	s, err := load(t, cfg)
	if err != nil {
		return nil, err
	}
	return s.validDays(), nil
}

// InvalidDays returns the participant days of t in which every epoch carries
// a flag.
func InvalidDays(t *wdk.Table, cfg Config) (days.Set, error) {
	s, err := load(t, cfg)
	if err != nil {
		return nil, err
	}
	return s.invalidDays(), nil
}

func load(t *wdk.Table, cfg Config) (*state, error) {
	cfg = cfg.orDefault()
	it, err := Init(t, cfg)
	if err != nil {
		return nil, err
	}
	return newState(it, cfg)
}

// RowCodes returns the invalidation code of every row of t.
func RowCodes(t *wdk.Table, cfg Config) ([]Code, error) {
	s, err := load(t, cfg)
	if err != nil {
		return nil, err
	}
	return s.codes, nil
}

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
	"strings"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// Report summarizes what pruning a table would remove.
type Report struct {
	Table string

	// Days maps each flag to the number of participant days which would be
	// pruned and have at least one epoch carrying that flag.
	Days map[Code]int

	// Total is the sum of Days. A day failing several rules is counted once
	// per rule.
	Total int

	// InvalidDays is the number of distinct participant days pruning would
	// remove.
	InvalidDays int
}

// NewReport computes the Report for t.
func NewReport(t *wdk.Table, cfg Config) (*Report, error) {
	s, err := load(t, cfg)
	if err != nil {
		return nil, err
	}
	r := &Report{Table: t.Name, Days: make(map[Code]int)}
	invalid := s.invalidDays()
	r.InvalidDays = len(invalid)
	for _, code := range Codes() {
		n := 0
		for k := range invalid {
			for _, row := range s.dayRows[k] {
				if s.codes[row].Has(code) {
					n++
					break
				}
			}
		}
		r.Days[code] = n
		r.Total += n
	}
	return r, nil
}

// AsTable renders the report as a table with one row per flag.
func (r *Report) AsTable() *wdk.Table {
	codes := Codes()
	names := make([]interface{}, len(codes))
	counts := make([]interface{}, len(codes))
	for i, c := range codes {
		names[i] = c.String()
		counts[i] = int64(r.Days[c])
	}
	t, _ := wdk.NewTable(r.Table+"-report", wdk.NewColumn("code", names...), wdk.NewColumn("days", counts...))
	return t
}

func (r *Report) String() string {
	parts := make([]string, 0, len(r.Days))
	for _, c := range Codes() {
		if n := r.Days[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", c, n))
		}
	}
	return fmt.Sprintf("%s: %d invalid day(s), %d by rule [%s]", r.Table, r.InvalidDays, r.Total, strings.Join(parts, " "))
}

// Reporter passes its inputs through unchanged while computing their Reports.
// The reports are logged and, if Variable is set, stored in it: the
// []*Report with Set and the report tables with SetTables. Reporter is the
// only writer of its Variable.
type Reporter struct {
	Config   Config
	Variable *wdk.Variable
	Log      wdk.Logger
}

// Name implements wdk.Namer.
func (r *Reporter) Name() string { return "report" }

// Process implements wdk.Operator.
func (r *Reporter) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	reports := make([]*Report, len(tables))
	rtables := make([]*wdk.Table, len(tables))
	for i, t := range tables {
		if t == nil {
			return nil, wdk.NewValidationError(r.Name(), "input %d is not a table", i)
		}
		rep, err := NewReport(t, r.Config)
		if err != nil {
			return nil, errors.Wrapf(err, "report: '%s'", t.Name)
		}
		reports[i] = rep
		rtables[i] = rep.AsTable()
		if r.Log != nil {
			r.Log.Printf("%v", rep)
		}
	}
	if r.Variable != nil {
		r.Variable.Set(reports)
		r.Variable.SetTables(rtables...)
	}
	return tables, nil
}

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

package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// Write writes t to w as CSV with a header line. Missing values are written
// as empty cells and times as RFC3339.
func Write(w io.Writer, t *wdk.Table) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()
	if err := cw.Write(cols); err != nil {
		return errors.Wrap(err, "writing header")
	}
	row := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range cols {
			row[j] = format(t.Value(c, i))
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing")
}

func format(v interface{}) string {
	if wdk.IsNull(v) {
		return ""
	}
	switch vt := v.(type) {
	case float64:
		return strconv.FormatFloat(vt, 'f', -1, 64)
	case time.Time:
		return vt.Format(time.RFC3339)
	}
	s, _ := wdk.ToString(v)
	return s
}

// Sink is an Operator which writes each of its inputs to Dir as
// <table name>.csv and passes them through. Tables sharing a name get their
// position appended.
type Sink struct {
	Dir string
	Log wdk.Logger
}

// Name implements wdk.Namer.
func (s *Sink) Name() string { return "csv-sink" }

// Process implements wdk.Operator.
func (s *Sink) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}
	seen := make(map[string]bool)
	for i, t := range tables {
		if t == nil {
			return nil, wdk.NewValidationError(s.Name(), "input %d is not a table", i)
		}
		name := t.Name
		if name == "" || seen[name] {
			name = fmt.Sprintf("%s-%d", t.Name, i)
		}
		seen[name] = true
		p := filepath.Join(s.Dir, name+".csv")
		if err := writeFile(p, t); err != nil {
			return nil, errors.Wrapf(err, "writing '%s'", p)
		}
		if s.Log != nil {
			s.Log.Printf("wrote %d rows to %s", t.Len(), p)
		}
	}
	return tables, nil
}

func writeFile(p string, t *wdk.Table) error {
	f, err := os.Create(p)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "closing file")
}

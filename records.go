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

package wdk

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// FromRecords builds a table from decoded records such as JSON objects or
// Avro messages. Nested objects are flattened with dotted names
// ("device.id"). Columns appear in the order their names are first seen, with
// the names of each record taken in sorted order; a record lacking a column
// gets a missing value.
//
// Values of columns named in fields are converted to the field's kind:
// strings go through the field's Parser, numbers are converted between int
// and float, and numbers in a time column are Unix milliseconds.
func FromRecords(name string, recs []map[string]interface{}, fields []Field) (*Table, error) {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	order := make([]string, 0)
	values := make(map[string][]interface{})
	for i, rec := range recs {
		flat := make(map[string]interface{}, len(rec))
		if err := flattenRecord("", rec, flat); err != nil {
			return nil, NewValidationError("records", "record %d: %v", i, err)
		}
		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := flat[k]
			if f, ok := byName[k]; ok {
				cv, err := convert(v, f)
				if err != nil {
					return nil, NewValidationError("records", "record %d field '%s': %v", i, k, err)
				}
				v = cv
			}
			col, ok := values[k]
			if !ok {
				order = append(order, k)
				col = make([]interface{}, i, len(recs))
			}
			values[k] = append(col, v)
		}
		for _, k := range order {
			if len(values[k]) == i {
				values[k] = append(values[k], nil)
			}
		}
	}
	for _, f := range fields {
		if _, ok := values[f.Name]; !ok && len(recs) > 0 {
			return nil, &MissingColumnError{Operator: "records", Table: name, Column: f.Name}
		}
	}
	t, err := NewTable(name)
	if err != nil {
		return nil, err
	}
	for _, k := range order {
		c := NewColumn(k, values[k]...)
		if f, ok := byName[k]; ok {
			c.Kind = f.Kind
		}
		if err := t.AddColumn(c); err != nil {
			return nil, errors.Wrapf(err, "adding column '%s'", k)
		}
	}
	return t, nil
}

func flattenRecord(prefix string, rec map[string]interface{}, into map[string]interface{}) error {
	for k, v := range rec {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch vt := v.(type) {
		case map[string]interface{}:
			if err := flattenRecord(name, vt, into); err != nil {
				return err
			}
		case json.Number:
			if n, err := vt.Int64(); err == nil {
				into[name] = n
			} else if f, err := vt.Float64(); err == nil {
				into[name] = f
			} else {
				return errors.Errorf("'%s' is not a number: %v", name, vt)
			}
		case []byte:
			into[name] = string(vt)
		case nil, bool, string, time.Time, int, int32, int64, float32, float64:
			into[name] = normalize(vt)
		default:
			return errors.Errorf("'%s' has unsupported value %v of %[2]T", name, v)
		}
	}
	return nil
}

func convert(v interface{}, f Field) (interface{}, error) {
	if IsNull(v) {
		return nil, nil
	}
	if s, ok := v.(string); ok && f.Parser != nil {
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		return f.Parser.Parse(strings.TrimSpace(s))
	}
	switch f.Kind {
	case KindFloat:
		if fv, ok := ToFloat(v); ok {
			return fv, nil
		}
	case KindInt:
		if iv, ok := ToInt(v); ok {
			return iv, nil
		}
	case KindString:
		sv, _ := ToString(v)
		return sv, nil
	case KindTime:
		if tv, ok := v.(time.Time); ok {
			return tv, nil
		}
		if ms, ok := ToInt(v); ok {
			return time.Unix(0, ms*int64(time.Millisecond)).UTC(), nil
		}
	default:
		if KindOf(v) == f.Kind {
			return v, nil
		}
	}
	return nil, errors.Errorf("can't convert %v of %[1]T to %v", v, f.Kind)
}

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
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Kind describes the type of the values held by a Column. Values are always
// stored as one of bool, int64, float64, string, time.Time or nil (missing).
type Kind uint8

// Column kinds.
const (
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// KindOf returns the Kind matching the dynamic type of v.
func KindOf(v interface{}) Kind {
	switch v.(type) {
	case bool:
		return KindBool
	case int64, int, int32:
		return KindInt
	case float64, float32:
		return KindFloat
	case string:
		return KindString
	case time.Time:
		return KindTime
	default:
		return KindUnknown
	}
}

// Keys names the columns which identify a record: the participant it belongs
// to and the instant it was observed at.
type Keys struct {
	Participant string
	Timestamp   string
}

// DefaultKeys are the key column names used when a Table is created without
// explicit keys.
var DefaultKeys = Keys{Participant: "participant", Timestamp: "timestamp"}

// Column is a named, typed slice of values.
type Column struct {
	Name   string
	Kind   Kind
	Values []interface{}
}

// NewColumn creates a Column, inferring its Kind from the first non-nil value.
// Plain ints and float32s are normalized to int64 and float64.
func NewColumn(name string, values ...interface{}) *Column {
	c := &Column{Name: name, Values: make([]interface{}, len(values))}
	for i, v := range values {
		v = normalize(v)
		c.Values[i] = v
		if c.Kind == KindUnknown && v != nil {
			c.Kind = KindOf(v)
		}
	}
	return c
}

func normalize(v interface{}) interface{} {
	switch vt := v.(type) {
	case int:
		return int64(vt)
	case int32:
		return int64(vt)
	case float32:
		return float64(vt)
	default:
		return v
	}
}

func (c *Column) clone() *Column {
	vals := make([]interface{}, len(c.Values))
	copy(vals, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Values: vals}
}

// Table is an ordered collection of records stored column-major. Operators
// treat their input tables as immutable; anything that changes a table works
// on a Clone.
type Table struct {
	Name string
	Keys Keys

	cols  []*Column
	index map[string]int
	n     int
}

// NewTable creates a table from the given columns which must all have the
// same length.
func NewTable(name string, cols ...*Column) (*Table, error) {
	t := &Table{
		Name:  name,
		Keys:  DefaultKeys,
		index: make(map[string]int),
	}
	for _, c := range cols {
		if err := t.AddColumn(c); err != nil {
			return nil, errors.Wrapf(err, "creating table '%s'", name)
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Require returns a MissingColumnError attributed to operator for the first
// of names which the table lacks.
func (t *Table) Require(operator string, names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return &MissingColumnError{Operator: operator, Table: t.Name, Column: name}
		}
	}
	return nil
}

// AddColumn appends c, or replaces an existing column of the same name. The
// first column added to an empty table fixes the row count.
func (t *Table) AddColumn(c *Column) error {
	if c == nil {
		return errors.New("nil column")
	}
	if len(t.cols) == 0 {
		t.n = len(c.Values)
	} else if len(c.Values) != t.n {
		return errors.Errorf("column '%s' has %d values, table has %d rows", c.Name, len(c.Values), t.n)
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[c.Name]; ok {
		t.cols[i] = c
		return nil
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// SetColumn is AddColumn for a kind and values slice which the table takes
// ownership of.
func (t *Table) SetColumn(name string, kind Kind, values []interface{}) error {
	return t.AddColumn(&Column{Name: name, Kind: kind, Values: values})
}

// DropColumn removes the named column if it exists.
func (t *Table) DropColumn(name string) {
	i, ok := t.index[name]
	if !ok {
		return
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	delete(t.index, name)
	for j := i; j < len(t.cols); j++ {
		t.index[t.cols[j].Name] = j
	}
}

// Value returns the value at row i of the named column, or nil if the column
// doesn't exist.
func (t *Table) Value(column string, i int) interface{} {
	c, ok := t.Column(column)
	if !ok {
		return nil
	}
	return c.Values[i]
}

// Row returns a view of row i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Clone returns a deep copy of the table structure. Values themselves are
// immutable scalars and are shared.
func (t *Table) Clone() *Table {
	ret := &Table{
		Name:  t.Name,
		Keys:  t.Keys,
		cols:  make([]*Column, len(t.cols)),
		index: make(map[string]int, len(t.index)),
		n:     t.n,
	}
	for i, c := range t.cols {
		ret.cols[i] = c.clone()
		ret.index[c.Name] = i
	}
	return ret
}

// Filter returns a new table holding the rows for which keep is true.
func (t *Table) Filter(keep []bool) *Table {
	idx := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return t.Take(idx)
}

// Take returns a new table holding the rows at idx, in that order.
func (t *Table) Take(idx []int) *Table {
	ret := &Table{
		Name:  t.Name,
		Keys:  t.Keys,
		cols:  make([]*Column, len(t.cols)),
		index: make(map[string]int, len(t.index)),
		n:     len(idx),
	}
	for ci, c := range t.cols {
		vals := make([]interface{}, len(idx))
		for j, i := range idx {
			vals[j] = c.Values[i]
		}
		ret.cols[ci] = &Column{Name: c.Name, Kind: c.Kind, Values: vals}
		ret.index[c.Name] = ci
	}
	return ret
}

// SortBy returns a new table stably sorted by the named columns.
func (t *Table) SortBy(columns ...string) (*Table, error) {
	cols := make([]*Column, len(columns))
	for i, name := range columns {
		c, ok := t.Column(name)
		if !ok {
			return nil, &MissingColumnError{Operator: "sort", Table: t.Name, Column: name}
		}
		cols[i] = c
	}
	idx := make([]int, t.n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for _, c := range cols {
			if cmp := Compare(c.Values[idx[a]], c.Values[idx[b]]); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return t.Take(idx), nil
}

// Group is the set of row indices which share a key value.
type Group struct {
	Key  interface{}
	Rows []int
}

// GroupBy partitions row indices by the value of column. Groups are returned
// in order of first appearance and rows keep their table order.
func (t *Table) GroupBy(column string) ([]Group, error) {
	c, ok := t.Column(column)
	if !ok {
		return nil, &MissingColumnError{Operator: "group", Table: t.Name, Column: column}
	}
	pos := make(map[interface{}]int)
	groups := make([]Group, 0)
	for i, v := range c.Values {
		g, ok := pos[v]
		if !ok {
			g = len(groups)
			pos[v] = g
			groups = append(groups, Group{Key: v})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}
	return groups, nil
}

func (t *Table) String() string {
	return fmt.Sprintf("table '%s' (%d rows, columns %v)", t.Name, t.n, t.Columns())
}

// Row is a read-only view of a single record.
type Row struct {
	t *Table
	i int
}

// Index returns the position of the row in its table.
func (r Row) Index() int { return r.i }

// Value returns the raw value of the named column.
func (r Row) Value(column string) interface{} { return r.t.Value(column, r.i) }

// Float returns the named value as a float64.
func (r Row) Float(column string) (float64, bool) { return ToFloat(r.Value(column)) }

// Int returns the named value as an int64.
func (r Row) Int(column string) (int64, bool) { return ToInt(r.Value(column)) }

// String returns the named value as a string.
func (r Row) String(column string) (string, bool) { return ToString(r.Value(column)) }

// Time returns the named value as a time.Time.
func (r Row) Time(column string) (time.Time, bool) { return ToTime(r.Value(column)) }

// IsNull reports whether the named value is missing.
func (r Row) IsNull(column string) bool { return IsNull(r.Value(column)) }

// IsNull reports whether v is a missing value: nil or a NaN float.
func IsNull(v interface{}) bool {
	switch vt := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(vt)
	case float32:
		return math.IsNaN(float64(vt))
	}
	return false
}

// ToFloat converts numeric and boolean values to float64.
func ToFloat(v interface{}) (float64, bool) {
	switch vt := v.(type) {
	case float64:
		return vt, !math.IsNaN(vt)
	case float32:
		return float64(vt), !math.IsNaN(float64(vt))
	case int64:
		return float64(vt), true
	case int:
		return float64(vt), true
	case int32:
		return float64(vt), true
	case bool:
		if vt {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// ToInt converts integer values (and whole floats) to int64.
func ToInt(v interface{}) (int64, bool) {
	switch vt := v.(type) {
	case int64:
		return vt, true
	case int:
		return int64(vt), true
	case int32:
		return int64(vt), true
	case float64:
		if vt == math.Trunc(vt) {
			return int64(vt), true
		}
	}
	return 0, false
}

// ToString returns string values as is and formats everything else which
// isn't missing.
func ToString(v interface{}) (string, bool) {
	switch vt := v.(type) {
	case string:
		return vt, true
	case nil:
		return "", false
	case time.Time:
		return vt.Format(time.RFC3339), true
	default:
		return fmt.Sprintf("%v", vt), true
	}
}

// ToTime returns time values.
func ToTime(v interface{}) (time.Time, bool) {
	tm, ok := v.(time.Time)
	return tm, ok
}

// Compare orders two values. Missing values sort first, values of the same
// kind compare naturally and mismatched kinds are ordered by Kind.
func Compare(a, b interface{}) int {
	an, bn := IsNull(a), IsNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		if (ka == KindInt || ka == KindFloat) && (kb == KindInt || kb == KindFloat) {
			fa, _ := ToFloat(a)
			fb, _ := ToFloat(b)
			return cmpFloat(fa, fb)
		}
		if ka < kb {
			return -1
		}
		return 1
	}
	switch ka {
	case KindBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case KindInt, KindFloat:
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		return cmpFloat(fa, fb)
	case KindString:
		as, bs := a.(string), b.(string)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
		return 0
	case KindTime:
		at, bt := a.(time.Time), b.(time.Time)
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		}
		return 0
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

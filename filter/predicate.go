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

package filter

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// Mode says whether a stage keeps the rows its predicate selects or the
// others.
type Mode uint8

// Modes.
const (
	Include Mode = iota
	Exclude
)

func (m Mode) String() string {
	if m == Exclude {
		return "exclude"
	}
	return "include"
}

// ParseMode parses "include" or "exclude".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "include":
		return Include, nil
	case "exclude":
		return Exclude, nil
	}
	return 0, errors.Errorf("unknown filter mode '%s'", s)
}

// keeps applies the mode to a predicate result.
func (m Mode) keeps(selected bool) bool {
	if m == Exclude {
		return !selected
	}
	return selected
}

// Predicate selects epochs.
type Predicate func(r wdk.Row) bool

// ValuePredicate selects day aggregates.
type ValuePredicate func(v float64) bool

// Comparison is a numeric comparison operator.
type Comparison uint8

// Comparisons.
const (
	LT Comparison = iota + 1
	LE
	GT
	GE
	EQ
	NE
)

var comparisons = map[string]Comparison{
	"<":  LT,
	"<=": LE,
	">":  GT,
	">=": GE,
	"==": EQ,
	"=":  EQ,
	"!=": NE,
}

var compareFuncs = map[Comparison]func(a, b float64) bool{
	LT: func(a, b float64) bool { return a < b },
	LE: func(a, b float64) bool { return a <= b },
	GT: func(a, b float64) bool { return a > b },
	GE: func(a, b float64) bool { return a >= b },
	EQ: func(a, b float64) bool { return a == b },
	NE: func(a, b float64) bool { return a != b },
}

// ParseComparison returns the Comparison for an operator such as ">=".
func ParseComparison(s string) (Comparison, error) {
	c, ok := comparisons[strings.TrimSpace(s)]
	if !ok {
		return 0, errors.Errorf("unknown comparison '%s'", s)
	}
	return c, nil
}

// Compare returns a ValuePredicate testing v <op> value. The comparison is
// resolved once, here, rather than on every call.
func Compare(op Comparison, value float64) (ValuePredicate, error) {
	fn, ok := compareFuncs[op]
	if !ok {
		return nil, errors.Errorf("unknown comparison %d", op)
	}
	return func(v float64) bool { return fn(v, value) }, nil
}

// Epoch returns a Predicate testing row[column] <op> value. Rows where the
// column is missing or not numeric are never selected.
func Epoch(column string, op Comparison, value float64) (Predicate, error) {
	vp, err := Compare(op, value)
	if err != nil {
		return nil, err
	}
	return func(r wdk.Row) bool {
		f, ok := r.Float(column)
		return ok && vp(f)
	}, nil
}

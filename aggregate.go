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
	"strings"

	"github.com/pkg/errors"
)

// Aggregate names a way of reducing a slice of values to one value.
type Aggregate uint8

// Known aggregates. Sum, Mean, Min and Max work on numeric values and skip
// missing ones; Count counts values which aren't missing; First and Last
// return the first and last values which aren't missing.
const (
	AggSum Aggregate = iota + 1
	AggMean
	AggMin
	AggMax
	AggCount
	AggFirst
	AggLast
)

// Reducer reduces values to a single value.
type Reducer func(values []interface{}) (interface{}, error)

var aggNames = map[Aggregate]string{
	AggSum:   "sum",
	AggMean:  "mean",
	AggMin:   "min",
	AggMax:   "max",
	AggCount: "count",
	AggFirst: "first",
	AggLast:  "last",
}

var reducers = map[Aggregate]Reducer{
	AggSum: func(vals []interface{}) (interface{}, error) {
		var sum float64
		err := eachFloat(vals, func(f float64) { sum += f })
		return sum, err
	},
	AggMean: func(vals []interface{}) (interface{}, error) {
		var sum float64
		n := 0
		err := eachFloat(vals, func(f float64) { sum += f; n++ })
		if err != nil || n == 0 {
			return nil, err
		}
		return sum / float64(n), nil
	},
	AggMin: func(vals []interface{}) (interface{}, error) {
		var ret interface{}
		err := eachFloat(vals, func(f float64) {
			if cur, ok := ret.(float64); !ok || f < cur {
				ret = f
			}
		})
		return ret, err
	},
	AggMax: func(vals []interface{}) (interface{}, error) {
		var ret interface{}
		err := eachFloat(vals, func(f float64) {
			if cur, ok := ret.(float64); !ok || f > cur {
				ret = f
			}
		})
		return ret, err
	},
	AggCount: func(vals []interface{}) (interface{}, error) {
		var n int64
		for _, v := range vals {
			if !IsNull(v) {
				n++
			}
		}
		return n, nil
	},
	AggFirst: func(vals []interface{}) (interface{}, error) {
		for _, v := range vals {
			if !IsNull(v) {
				return v, nil
			}
		}
		return nil, nil
	},
	AggLast: func(vals []interface{}) (interface{}, error) {
		for i := len(vals) - 1; i >= 0; i-- {
			if !IsNull(vals[i]) {
				return vals[i], nil
			}
		}
		return nil, nil
	},
}

func eachFloat(vals []interface{}, fn func(float64)) error {
	for i, v := range vals {
		if IsNull(v) {
			continue
		}
		f, ok := ToFloat(v)
		if !ok {
			return errors.Errorf("value %d (%v of %[2]T) is not numeric", i, v)
		}
		fn(f)
	}
	return nil
}

func (a Aggregate) String() string {
	if name, ok := aggNames[a]; ok {
		return name
	}
	return "unknown"
}

// Reducer returns the Reducer implementing a.
func (a Aggregate) Reducer() (Reducer, error) {
	r, ok := reducers[a]
	if !ok {
		return nil, errors.Errorf("unknown aggregate %d", a)
	}
	return r, nil
}

// ParseAggregate returns the Aggregate with the given name.
func ParseAggregate(s string) (Aggregate, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, name := range aggNames {
		if name == s {
			return a, nil
		}
	}
	return 0, errors.Errorf("unknown aggregate '%s'", s)
}

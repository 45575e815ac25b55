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

package wdk_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/test"
)

// addTo returns an operator adding val to column "x" of every row.
func addTo(val int64) wdk.Operator {
	return wdk.Each("add", func(t *wdk.Table) (*wdk.Table, error) {
		ret := t.Clone()
		c, _ := ret.Column("x")
		for i, v := range c.Values {
			c.Values[i] = v.(int64) + val
		}
		return ret, nil
	})
}

func double() wdk.Operator {
	return wdk.Each("double", func(t *wdk.Table) (*wdk.Table, error) {
		ret := t.Clone()
		c, _ := ret.Column("x")
		for i, v := range c.Values {
			c.Values[i] = v.(int64) * 2
		}
		return ret, nil
	})
}

func failing(msg string) wdk.Operator {
	return wdk.OperatorFunc(func(tables ...*wdk.Table) ([]*wdk.Table, error) {
		return nil, errors.New(msg)
	})
}

func xTable(t *testing.T, vals ...interface{}) *wdk.Table {
	return test.MustTable(t, "x", wdk.NewColumn("x", vals...))
}

func TestSequenceAssociative(t *testing.T) {
	a, b, c := addTo(1), double(), addTo(3)
	inner, err := wdk.NewSequence(a, b)
	test.ErrNil(t, err, "inner")
	left, err := wdk.NewSequence(inner, c)
	test.ErrNil(t, err, "left")
	inner2, err := wdk.NewSequence(b, c)
	test.ErrNil(t, err, "inner2")
	right, err := wdk.NewSequence(a, inner2)
	test.ErrNil(t, err, "right")
	flat, err := wdk.NewSequence(a, b, c)
	test.ErrNil(t, err, "flat")

	in := xTable(t, 1, 2)
	for name, op := range map[string]wdk.Operator{"left": left, "right": right, "flat": flat} {
		out, err := op.Process(in)
		test.ErrNil(t, err, name)
		test.MustBe(t, test.Values(t, out[0], "x"), []interface{}{int64(7), int64(9)}, name)
	}
	test.MustBe(t, test.Values(t, in, "x"), []interface{}{int64(1), int64(2)}, "input untouched")
}

func TestSequenceEmptyIsIdentity(t *testing.T) {
	s, err := wdk.NewSequence()
	test.ErrNil(t, err, "NewSequence")
	in := xTable(t, 1)
	out, err := s.Process(in)
	test.ErrNil(t, err, "Process")
	test.MustBe(t, out, []*wdk.Table{in})
}

func TestSequenceStopsAtFirstError(t *testing.T) {
	calls := 0
	counter := wdk.OperatorFunc(func(tables ...*wdk.Table) ([]*wdk.Table, error) {
		calls++
		return tables, nil
	})
	s, err := wdk.NewSequence(counter, failing("boom"), counter)
	test.ErrNil(t, err, "NewSequence")
	_, err = s.Process(xTable(t, 1))
	if err == nil || !strings.Contains(err.Error(), "sequence step 1") {
		t.Fatalf("expected step 1 error, got %v", err)
	}
	test.MustBe(t, calls, 1)
}

func TestBroadcastBranchesAreIndependent(t *testing.T) {
	mutator := wdk.OperatorFunc(func(tables ...*wdk.Table) ([]*wdk.Table, error) {
		c, _ := tables[0].Column("x")
		c.Values[0] = int64(-1)
		return tables, nil
	})
	b, err := wdk.NewBroadcast(mutator, addTo(10))
	test.ErrNil(t, err, "NewBroadcast")
	in := xTable(t, 1, 2)
	branches, err := b.Branches(in)
	test.ErrNil(t, err, "Branches")
	test.MustBe(t, len(branches), 2)
	test.MustBe(t, test.Values(t, branches[0][0], "x"), []interface{}{int64(-1), int64(2)})
	test.MustBe(t, test.Values(t, branches[1][0], "x"), []interface{}{int64(11), int64(12)}, "second branch sees original input")
	test.MustBe(t, test.Values(t, in, "x"), []interface{}{int64(1), int64(2)}, "caller's input untouched")

	out, err := b.Process(in)
	test.ErrNil(t, err, "Process")
	test.MustBe(t, len(out), 2, "flattened")
}

func TestFanIn(t *testing.T) {
	join := wdk.OperatorFunc(func(tables ...*wdk.Table) ([]*wdk.Table, error) {
		var vals []interface{}
		for _, tb := range tables {
			vals = append(vals, tb.Value("x", 0))
		}
		return []*wdk.Table{xTable(t, vals...)}, nil
	})
	f, err := wdk.NewFanIn(join, addTo(1), double())
	test.ErrNil(t, err, "NewFanIn")
	out, err := f.Process(xTable(t, 5))
	test.ErrNil(t, err, "Process")
	test.MustBe(t, test.Values(t, out[0], "x"), []interface{}{int64(6), int64(10)})
}

func TestConstructionErrors(t *testing.T) {
	if _, err := wdk.NewSequence(addTo(1), nil); !wdk.IsConstruction(err) {
		t.Fatalf("sequence: expected construction error, got %v", err)
	} else {
		test.MustBe(t, err.(*wdk.ConstructionError).Position, 1)
	}
	if _, err := wdk.NewBroadcast(nil); !wdk.IsConstruction(err) {
		t.Fatalf("broadcast: expected construction error, got %v", err)
	}
	if _, err := wdk.NewFanIn(nil, addTo(1)); !wdk.IsConstruction(err) {
		t.Fatalf("fan-in: expected construction error, got %v", err)
	}
	if _, err := wdk.NewMap(nil); !wdk.IsConstruction(err) {
		t.Fatalf("map: expected construction error, got %v", err)
	}
	if _, err := wdk.NewReduce(nil); !wdk.IsConstruction(err) {
		t.Fatalf("reduce: expected construction error, got %v", err)
	}
}

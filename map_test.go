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
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/test"
)

func TestMapPreservesOrder(t *testing.T) {
	jitter := wdk.Each("jitter", func(tb *wdk.Table) (*wdk.Table, error) {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
		ret := tb.Clone()
		c, _ := ret.Column("x")
		c.Values[0] = c.Values[0].(int64) * 10
		return ret, nil
	})
	in := make([]*wdk.Table, 50)
	for i := range in {
		in[i] = xTable(t, i)
	}
	for _, conc := range []int{1, 4, 0} {
		m, err := wdk.NewMap(jitter, wdk.OptMapConcurrency(conc))
		test.ErrNil(t, err, "NewMap")
		out, err := m.Process(in...)
		test.ErrNil(t, err, "Process")
		test.MustBe(t, len(out), len(in))
		for i, o := range out {
			if o.Value("x", 0) != int64(i*10) {
				t.Fatalf("concurrency %d: output %d has %v", conc, i, o.Value("x", 0))
			}
		}
	}
}

func TestMapCollectsEveryFailure(t *testing.T) {
	op := wdk.Each("odd-fails", func(tb *wdk.Table) (*wdk.Table, error) {
		v := tb.Value("x", 0).(int64)
		if v == 3 {
			panic("three")
		}
		if v%2 == 1 {
			return nil, errors.Errorf("odd %d", v)
		}
		return tb, nil
	})
	m, err := wdk.NewMap(op, wdk.OptMapConcurrency(3))
	test.ErrNil(t, err, "NewMap")
	out, err := m.Process(xTable(t, 0), xTable(t, 1), xTable(t, 2), xTable(t, 3))
	if out != nil {
		t.Fatalf("expected no outputs on failure, got %v", out)
	}
	me, ok := errors.Cause(err).(*wdk.MapError)
	if !ok {
		t.Fatalf("expected MapError, got %v", err)
	}
	test.MustBe(t, len(me.Failures), 2)
	test.MustBe(t, me.Failures[0].Index, 1)
	test.MustBe(t, me.Failures[1].Index, 3)
}

func TestMapRequiresOneOutput(t *testing.T) {
	dup := wdk.OperatorFunc(func(tables ...*wdk.Table) ([]*wdk.Table, error) {
		return append(tables, tables...), nil
	})
	m, err := wdk.NewMap(dup)
	test.ErrNil(t, err, "NewMap")
	if _, err := m.Process(xTable(t, 1)); err == nil {
		t.Fatal("expected error for element operator with two outputs")
	}
}

func sumX(t *testing.T) wdk.Operator {
	return wdk.OperatorFunc(func(tables ...*wdk.Table) ([]*wdk.Table, error) {
		if len(tables) != 2 {
			return nil, errors.Errorf("expected element and accumulator, got %d tables", len(tables))
		}
		var sum int64
		for _, tb := range tables {
			sum += tb.Value("x", 0).(int64)
		}
		return []*wdk.Table{test.MustTable(t, "sum", wdk.NewColumn("x", sum))}, nil
	})
}

func TestReduce(t *testing.T) {
	r, err := wdk.NewReduce(sumX(t))
	test.ErrNil(t, err, "NewReduce")
	out, err := r.Process(xTable(t, 1), xTable(t, 2), xTable(t, 3))
	test.ErrNil(t, err, "Process")
	test.MustBe(t, len(out), 1)
	test.MustBe(t, out[0].Value("x", 0), int64(6))

	single, err := r.Process(xTable(t, 9))
	test.ErrNil(t, err, "single")
	test.MustBe(t, single[0].Value("x", 0), int64(9), "single element is its own result")

	seeded, err := wdk.NewReduce(sumX(t), wdk.OptReduceSeed(xTable(t, 100)))
	test.ErrNil(t, err, "NewReduce seeded")
	out, err = seeded.Process(xTable(t, 1), xTable(t, 2))
	test.ErrNil(t, err, "seeded Process")
	test.MustBe(t, out[0].Value("x", 0), int64(103))

	if _, err := r.Process(); !wdk.IsValidation(err) {
		t.Fatalf("expected validation error for no elements, got %v", err)
	}
}

func TestReduceArgumentOrder(t *testing.T) {
	var order []interface{}
	rec := wdk.OperatorFunc(func(tables ...*wdk.Table) ([]*wdk.Table, error) {
		order = append(order, tables[0].Value("x", 0), tables[1].Value("x", 0))
		return tables[:1], nil
	})
	r, err := wdk.NewReduce(rec)
	test.ErrNil(t, err, "NewReduce")
	_, err = r.Process(xTable(t, 1), xTable(t, 2), xTable(t, 3))
	test.ErrNil(t, err, "Process")
	test.MustBe(t, order, []interface{}{int64(2), int64(1), int64(3), int64(2)})
}

func TestVariableCaptureRecall(t *testing.T) {
	v := wdk.NewVariable("reference")
	if _, ok := v.Get(); ok {
		t.Fatal("new variable shouldn't be set")
	}
	ref := xTable(t, 42)
	capOut, err := wdk.Capture(v).Process(ref)
	test.ErrNil(t, err, "capture")
	test.MustBe(t, capOut, []*wdk.Table{ref}, "capture passes through")

	c, _ := ref.Column("x")
	c.Values[0] = int64(0)

	out, err := wdk.Recall(v).Process(xTable(t, 1))
	test.ErrNil(t, err, "recall")
	test.MustBe(t, len(out), 2)
	test.MustBe(t, out[1].Value("x", 0), int64(42), "captured a copy")

	v.Set("fitted")
	val, ok := v.Get()
	test.MustBe(t, ok, true)
	test.MustBe(t, val, "fitted")
	v.Reset()
	if _, ok := v.Get(); ok {
		t.Fatal("reset variable shouldn't be set")
	}
	test.MustBe(t, len(v.Tables()), 0)
}

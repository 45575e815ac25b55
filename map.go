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
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Map applies one element operator to each of its inputs independently. In
// parallel mode each application runs on a worker goroutine; outputs always
// come back in input order. If any element fails, Process returns a MapError
// describing every failed element and no outputs.
type Map struct {
	op          Operator
	concurrency int
}

// MapOption is a functional option to pass to NewMap.
type MapOption func(*Map)

// OptMapConcurrency sets the number of worker goroutines. 1 (the default)
// means sequential, in-order execution on the calling goroutine. Values below
// 1 use one worker per CPU.
func OptMapConcurrency(n int) MapOption {
	return func(m *Map) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		m.concurrency = n
	}
}

// NewMap creates a Map around the element operator op.
func NewMap(op Operator, opts ...MapOption) (*Map, error) {
	if op == nil {
		return nil, &ConstructionError{Composer: "map", Position: 0}
	}
	m := &Map{op: op, concurrency: 1}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Name implements Namer.
func (m *Map) Name() string { return "map(" + NameOf(m.op) + ")" }

// Process implements Operator.
func (m *Map) Process(tables ...*Table) ([]*Table, error) {
	out := make([]*Table, len(tables))
	errs := make([]error, len(tables))
	if m.concurrency <= 1 || len(tables) <= 1 {
		for i, t := range tables {
			out[i], errs[i] = m.apply(i, t)
		}
	} else {
		m.parallel(tables, out, errs)
	}
	if err := newMapError(m.Name(), errs); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Map) parallel(tables, out []*Table, errs []error) {
	idxs := make(chan int, m.concurrency)
	eg := errgroup.Group{}
	for w := 0; w < m.concurrency && w < len(tables); w++ {
		eg.Go(func() error {
			for i := range idxs {
				// each worker writes only its own slots
				out[i], errs[i] = m.apply(i, tables[i])
			}
			return nil
		})
	}
	for i := range tables {
		idxs <- i
	}
	close(idxs)
	_ = eg.Wait() // errors are collected per element
}

func (m *Map) apply(i int, t *Table) (ret *Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in element operator: %v", r)
		}
	}()
	if t == nil {
		return nil, NewValidationError(m.Name(), "element %d is not a table", i)
	}
	res, err := m.op.Process(t)
	if err != nil {
		return nil, err
	}
	if len(res) != 1 {
		return nil, NewValidationError(m.Name(), "element operator returned %d tables for element %d, expected 1", len(res), i)
	}
	return res[0], nil
}

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
	"github.com/pkg/errors"
)

// Reduce folds a binary combine operator over its inputs. combine is always
// called as combine.Process(element, accumulator) and must return exactly one
// table. Without a seed the first element is the initial accumulator.
type Reduce struct {
	combine Operator
	seed    *Table
}

// ReduceOption is a functional option to pass to NewReduce.
type ReduceOption func(*Reduce)

// OptReduceSeed sets the initial accumulator.
func OptReduceSeed(seed *Table) ReduceOption {
	return func(r *Reduce) {
		r.seed = seed
	}
}

// NewReduce creates a Reduce around combine.
func NewReduce(combine Operator, opts ...ReduceOption) (*Reduce, error) {
	if combine == nil {
		return nil, &ConstructionError{Composer: "reduce", Position: 0}
	}
	r := &Reduce{combine: combine}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Name implements Namer.
func (r *Reduce) Name() string { return "reduce(" + NameOf(r.combine) + ")" }

// Process implements Operator. It returns only the final accumulator.
func (r *Reduce) Process(tables ...*Table) ([]*Table, error) {
	if len(tables) == 0 {
		return nil, NewValidationError(r.Name(), "needs at least one element")
	}
	acc, rest := r.seed, tables
	if acc == nil {
		acc, rest = tables[0], tables[1:]
	}
	for i, t := range rest {
		res, err := r.combine.Process(t, acc)
		if err != nil {
			return nil, errors.Wrapf(err, "combining element %d", len(tables)-len(rest)+i)
		}
		if len(res) != 1 {
			return nil, NewValidationError(r.Name(), "combine returned %d tables, expected 1", len(res))
		}
		acc = res[0]
	}
	return []*Table{acc}, nil
}

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

func checkChildren(composer string, ops []Operator) error {
	for i, op := range ops {
		if op == nil {
			return &ConstructionError{Composer: composer, Position: i}
		}
	}
	return nil
}

// Sequence chains operators: the outputs of operator i are the inputs of
// operator i+1. The first failure aborts the chain.
type Sequence struct {
	ops []Operator
}

// NewSequence creates a Sequence. It fails if any child is nil.
func NewSequence(ops ...Operator) (*Sequence, error) {
	if err := checkChildren("sequence", ops); err != nil {
		return nil, err
	}
	return &Sequence{ops: append([]Operator(nil), ops...)}, nil
}

// Name implements Namer.
func (s *Sequence) Name() string { return "sequence" }

// Operators returns the children of s.
func (s *Sequence) Operators() []Operator { return s.ops }

// Process implements Operator.
func (s *Sequence) Process(tables ...*Table) ([]*Table, error) {
	cur := tables
	for i, op := range s.ops {
		next, err := op.Process(cur...)
		if err != nil {
			return nil, errors.Wrapf(err, "sequence step %d (%s)", i, NameOf(op))
		}
		cur = next
	}
	return cur, nil
}

// Broadcast applies every child to the same inputs. Each child receives its
// own copy of the inputs so that nothing done in one branch is visible in
// another.
type Broadcast struct {
	ops []Operator
}

// NewBroadcast creates a Broadcast. It fails if any child is nil.
func NewBroadcast(ops ...Operator) (*Broadcast, error) {
	if err := checkChildren("broadcast", ops); err != nil {
		return nil, err
	}
	return &Broadcast{ops: append([]Operator(nil), ops...)}, nil
}

// Name implements Namer.
func (b *Broadcast) Name() string { return "broadcast" }

// Branches runs every child and returns their outputs in child order.
func (b *Broadcast) Branches(tables ...*Table) ([][]*Table, error) {
	ret := make([][]*Table, len(b.ops))
	for i, op := range b.ops {
		out, err := op.Process(cloneAll(tables)...)
		if err != nil {
			return nil, errors.Wrapf(err, "broadcast branch %d (%s)", i, NameOf(op))
		}
		ret[i] = out
	}
	return ret, nil
}

// Process implements Operator. The branch outputs are flattened in child
// order.
func (b *Broadcast) Process(tables ...*Table) ([]*Table, error) {
	branches, err := b.Branches(tables...)
	if err != nil {
		return nil, err
	}
	return flatten(branches), nil
}

// FanIn broadcasts its inputs to a set of branches and hands the flattened
// branch outputs to a join operator.
type FanIn struct {
	branches *Broadcast
	join     Operator
}

// NewFanIn creates a FanIn. It fails if the join or any branch is nil.
func NewFanIn(join Operator, branches ...Operator) (*FanIn, error) {
	if join == nil {
		return nil, &ConstructionError{Composer: "fan-in join", Position: 0}
	}
	if err := checkChildren("fan-in", branches); err != nil {
		return nil, err
	}
	return &FanIn{
		branches: &Broadcast{ops: append([]Operator(nil), branches...)},
		join:     join,
	}, nil
}

// Name implements Namer.
func (f *FanIn) Name() string { return "fan-in" }

// Process implements Operator.
func (f *FanIn) Process(tables ...*Table) ([]*Table, error) {
	outs, err := f.branches.Process(tables...)
	if err != nil {
		return nil, err
	}
	ret, err := f.join.Process(outs...)
	return ret, errors.Wrapf(err, "fan-in join (%s)", NameOf(f.join))
}

func cloneAll(tables []*Table) []*Table {
	ret := make([]*Table, len(tables))
	for i, t := range tables {
		if t != nil {
			ret[i] = t.Clone()
		}
	}
	return ret
}

func flatten(tss [][]*Table) []*Table {
	n := 0
	for _, ts := range tss {
		n += len(ts)
	}
	ret := make([]*Table, 0, n)
	for _, ts := range tss {
		ret = append(ret, ts...)
	}
	return ret
}

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
	"sync"
)

// Variable is a cell for sharing state (a fitted model, a report, a set of
// reference tables) across pipeline boundaries. It is passed by reference to
// the constructors of the operators which need it. Exactly one operator in a
// pipeline should write a given Variable; reads may happen from anywhere.
type Variable struct {
	name string

	mu     sync.RWMutex
	val    interface{}
	tables []*Table
	set    bool
}

// NewVariable returns an empty Variable.
func NewVariable(name string) *Variable {
	return &Variable{name: name}
}

// Name returns the name the Variable was created with.
func (v *Variable) Name() string { return v.name }

// Set stores an arbitrary value.
func (v *Variable) Set(val interface{}) {
	v.mu.Lock()
	v.val = val
	v.set = true
	v.mu.Unlock()
}

// Get returns the stored value, and whether one was ever set.
func (v *Variable) Get() (interface{}, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.val, v.set
}

// SetTables stores tables.
func (v *Variable) SetTables(tables ...*Table) {
	v.mu.Lock()
	v.tables = tables
	v.mu.Unlock()
}

// Tables returns the stored tables.
func (v *Variable) Tables() []*Table {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]*Table(nil), v.tables...)
}

// Reset clears the Variable.
func (v *Variable) Reset() {
	v.mu.Lock()
	v.val, v.tables, v.set = nil, nil, false
	v.mu.Unlock()
}

// Capture returns an Operator which stores copies of its inputs in v and
// passes the inputs through unchanged.
func Capture(v *Variable) Operator {
	return &capture{v: v}
}

type capture struct {
	v *Variable
}

func (c *capture) Name() string { return "capture(" + c.v.name + ")" }

func (c *capture) Process(tables ...*Table) ([]*Table, error) {
	c.v.SetTables(cloneAll(tables)...)
	return tables, nil
}

// Recall returns an Operator which appends copies of the tables stored in v
// to its inputs.
func Recall(v *Variable) Operator {
	return &recall{v: v}
}

type recall struct {
	v *Variable
}

func (r *recall) Name() string { return "recall(" + r.v.name + ")" }

func (r *recall) Process(tables ...*Table) ([]*Table, error) {
	stored := cloneAll(r.v.Tables())
	return append(append(make([]*Table, 0, len(tables)+len(stored)), tables...), stored...), nil
}

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

// OperatorFunc can be wrapped around a function to make it implement the
// Operator interface. Similar to http.HandlerFunc.
type OperatorFunc func(tables ...*Table) ([]*Table, error)

// Process implements Operator for OperatorFunc.
func (f OperatorFunc) Process(tables ...*Table) ([]*Table, error) {
	return f(tables...)
}

// Each lifts a function of a single table into a 1-to-1 Operator which
// applies it to every input in order.
func Each(name string, fn func(*Table) (*Table, error)) Operator {
	return &eachOperator{name: name, fn: fn}
}

type eachOperator struct {
	name string
	fn   func(*Table) (*Table, error)
}

func (e *eachOperator) Name() string { return e.name }

func (e *eachOperator) Process(tables ...*Table) ([]*Table, error) {
	out := make([]*Table, len(tables))
	for i, t := range tables {
		if t == nil {
			return nil, NewValidationError(e.name, "input %d is not a table", i)
		}
		res, err := e.fn(t)
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}

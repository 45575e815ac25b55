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
)

// Operator is the unit of computation in a pipeline. Process consumes any
// number of tables (possibly none, for a source) and returns the number of
// tables the concrete operator promises. Implementations must not modify
// their inputs; anything they change is done on a Clone which is then owned
// by the caller.
type Operator interface {
	Process(tables ...*Table) ([]*Table, error)
}

// Namer is implemented by operators which want a specific name to show up in
// error messages and stats.
type Namer interface {
	Name() string
}

// NameOf returns op's name if it implements Namer, or its type otherwise.
func NameOf(op interface{}) string {
	if n, ok := op.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", op)
}

// Generator is the lazy variant of Operator: instead of returning all its
// outputs at once it returns a Stream of them.
type Generator interface {
	Generate(tables ...*Table) (Stream, error)
}

// Reader produces a Table from a source location and a logical table name.
// Concrete readers live in sub-packages (csv, json, ...); the pipeline only
// cares about the resulting table.
type Reader interface {
	Read(location, name string) (*Table, error)
}

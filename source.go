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
	"io"

	"github.com/pkg/errors"
)

// Stream returns tables one at a time. Next returns io.EOF once the stream is
// exhausted. Implementations of Stream are not required to be thread safe.
type Stream interface {
	Next() (*Table, error)
}

// Collect drains a Stream.
func Collect(s Stream) ([]*Table, error) {
	ret := make([]*Table, 0)
	for {
		t, err := s.Next()
		if err == io.EOF {
			return ret, nil
		} else if err != nil {
			return nil, errors.Wrapf(err, "collecting table %d", len(ret))
		}
		ret = append(ret, t)
	}
}

// Generated adapts a Generator into an Operator by collecting its stream.
func Generated(g Generator) Operator {
	return &generated{g: g}
}

type generated struct {
	g Generator
}

func (g *generated) Name() string { return NameOf(g.g) }

func (g *generated) Process(tables ...*Table) ([]*Table, error) {
	s, err := g.g.Generate(tables...)
	if err != nil {
		return nil, errors.Wrapf(err, "generating from %s", NameOf(g.g))
	}
	return Collect(s)
}

// SliceStream is a Stream over a fixed set of tables.
type SliceStream struct {
	tables []*Table
	pos    int
}

// NewSliceStream returns a Stream which yields tables in order.
func NewSliceStream(tables ...*Table) *SliceStream {
	return &SliceStream{tables: tables}
}

// Next implements Stream.
func (s *SliceStream) Next() (*Table, error) {
	if s.pos >= len(s.tables) {
		return nil, io.EOF
	}
	s.pos++
	return s.tables[s.pos-1], nil
}

// ReadSource is a source Operator (it takes no inputs) which reads one table
// per location through a Reader. Any tables passed to Process are returned
// ahead of the ones read.
type ReadSource struct {
	Reader    Reader
	Locations []string
	TableName string
}

// NewReadSource returns a ReadSource for the given reader.
func NewReadSource(r Reader, name string, locations ...string) *ReadSource {
	return &ReadSource{Reader: r, Locations: locations, TableName: name}
}

// Name implements Namer.
func (s *ReadSource) Name() string { return "read(" + s.TableName + ")" }

// Process implements Operator.
func (s *ReadSource) Process(tables ...*Table) ([]*Table, error) {
	out := append(make([]*Table, 0, len(tables)+len(s.Locations)), tables...)
	for _, loc := range s.Locations {
		t, err := s.Reader.Read(loc, s.TableName)
		if err != nil {
			return nil, errors.Wrapf(err, "reading '%s'", loc)
		}
		out = append(out, t)
	}
	return out, nil
}

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

package fake

import (
	"io"
	"sync/atomic"

	"github.com/wearable-lab/wdk"
)

// TableGenerator builds the table of the i'th of Len participants.
type TableGenerator interface {
	Len() int
	Table(i int) (*wdk.Table, error)
}

// Source is a wdk.Stream yielding one generated table per participant, and a
// wdk.Generator which starts a fresh Source each time it is invoked. Next is
// safe for concurrent use.
type Source struct {
	g TableGenerator
	n *uint64
}

// NewSource gets a new Source over g.
func NewSource(g TableGenerator) *Source {
	var n uint64
	return &Source{g: g, n: &n}
}

// NewEpochSource is NewSource over an EpochGenerator.
func NewEpochSource(seed int64, cfg EpochConfig) *Source {
	return NewSource(NewEpochGenerator(seed, cfg))
}

// NewSleepSource is NewSource over a SleepGenerator.
func NewSleepSource(seed int64, cfg SleepConfig) *Source {
	return NewSource(NewSleepGenerator(seed, cfg))
}

// Name implements wdk.Namer.
func (s *Source) Name() string { return "fake" }

// Next implements wdk.Stream.
func (s *Source) Next() (*wdk.Table, error) {
	next := atomic.AddUint64(s.n, 1)
	if next > uint64(s.g.Len()) {
		return nil, io.EOF
	}
	return s.g.Table(int(next - 1))
}

// Generate implements wdk.Generator. Inputs are ignored.
func (s *Source) Generate(tables ...*wdk.Table) (wdk.Stream, error) {
	return NewSource(s.g), nil
}

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

package validate

import (
	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// Prune removes every row of the invalid days of its inputs: a day goes only
// when all of its epochs are flagged. Rows of valid days are kept even if they
// are flagged themselves.
type Prune struct {
	Config Config
}

// Name implements wdk.Namer.
func (p *Prune) Name() string { return "prune" }

// Process implements wdk.Operator.
func (p *Prune) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	out := make([]*wdk.Table, len(tables))
	for i, t := range tables {
		if t == nil {
			return nil, wdk.NewValidationError(p.Name(), "input %d is not a table", i)
		}
		s, err := load(t, p.Config)
		if err != nil {
			return nil, errors.Wrapf(err, "prune: loading '%s'", t.Name)
		}
		invalid := s.invalidDays()
		keep := make([]bool, len(s.keys))
		for r, k := range s.keys {
			keep[r] = !invalid.Has(k)
		}
		out[i] = s.t.Filter(keep)
	}
	return out, nil
}

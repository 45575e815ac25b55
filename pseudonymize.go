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
	"strconv"

	"github.com/pkg/errors"
)

// Pseudonymize replaces every value of Column with Prefix followed by the id
// the Translator assigns to it. With a persistent Translator the same
// participant gets the same pseudonym across runs. Missing values stay
// missing.
type Pseudonymize struct {
	Column     string
	Prefix     string
	Translator Translator
}

// NewPseudonymize returns a Pseudonymize for the participant column backed by
// tr.
func NewPseudonymize(tr Translator) *Pseudonymize {
	return &Pseudonymize{
		Column:     DefaultKeys.Participant,
		Prefix:     "p",
		Translator: tr,
	}
}

// Name implements Namer.
func (p *Pseudonymize) Name() string { return "pseudonymize" }

// Process implements Operator.
func (p *Pseudonymize) Process(tables ...*Table) ([]*Table, error) {
	out := make([]*Table, len(tables))
	for i, t := range tables {
		if t == nil {
			return nil, NewValidationError(p.Name(), "input %d is not a table", i)
		}
		col, ok := t.Column(p.Column)
		if !ok {
			return nil, &MissingColumnError{Operator: p.Name(), Table: t.Name, Column: p.Column}
		}
		vals := make([]interface{}, len(col.Values))
		for j, v := range col.Values {
			if IsNull(v) {
				continue
			}
			s, _ := ToString(v)
			id, err := p.Translator.GetID(p.Column, s)
			if err != nil {
				return nil, errors.Wrapf(err, "translating '%s'", s)
			}
			vals[j] = p.Prefix + strconv.FormatUint(id, 10)
		}
		res := t.Clone()
		if err := res.SetColumn(p.Column, KindString, vals); err != nil {
			return nil, errors.Wrap(err, "setting pseudonyms")
		}
		out[i] = res
	}
	return out, nil
}

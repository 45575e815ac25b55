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
	"strings"

	"github.com/pkg/errors"
)

// Code is a bitmask of invalidation flags. Zero means valid. Within a
// validation pass flags only ever accumulate.
type Code uint32

// Valid is the Code of a row which hasn't failed any rule.
const Valid Code = 0

// Invalidation flags.
const (
	EpochBelowThreshold Code = 1 << iota
	EpochNullValue
	DayNotEnoughValidEpochs
	DayTooManyInvalidEpochs
	DayBelowThreshold
	DayNotEnoughConsecutiveDays
	ParticipantNotEnoughDays
)

var codeNames = []struct {
	code Code
	name string
}{
	{EpochBelowThreshold, "epoch-below-threshold"},
	{EpochNullValue, "epoch-null-value"},
	{DayNotEnoughValidEpochs, "day-not-enough-valid-epochs"},
	{DayTooManyInvalidEpochs, "day-too-many-invalid-epochs"},
	{DayBelowThreshold, "day-below-threshold"},
	{DayNotEnoughConsecutiveDays, "day-not-enough-consecutive-days"},
	{ParticipantNotEnoughDays, "participant-not-enough-days"},
}

// Codes returns every known single-flag Code in bit order.
func Codes() []Code {
	ret := make([]Code, len(codeNames))
	for i, cn := range codeNames {
		ret[i] = cn.code
	}
	return ret
}

// Or returns c with the bits of o set.
func (c Code) Or(o Code) Code { return c | o }

// And returns the bits set in both c and o.
func (c Code) And(o Code) Code { return c & o }

// Has reports whether every bit of o is set in c. Has(Valid) is false.
func (c Code) Has(o Code) bool { return o != 0 && c&o == o }

// IsValid reports whether no flag is set.
func (c Code) IsValid() bool { return c == Valid }

func (c Code) String() string {
	if c == Valid {
		return "valid"
	}
	names := make([]string, 0)
	rest := c
	for _, cn := range codeNames {
		if c.Has(cn.code) {
			names = append(names, cn.name)
			rest &^= cn.code
		}
	}
	if rest != 0 {
		names = append(names, "unknown")
	}
	return strings.Join(names, "|")
}

// ParseCode is the reverse of Code.String.
func ParseCode(s string) (Code, error) {
	if s == "valid" || s == "" {
		return Valid, nil
	}
	var c Code
outer:
	for _, part := range strings.Split(s, "|") {
		for _, cn := range codeNames {
			if cn.name == part {
				c |= cn.code
				continue outer
			}
		}
		return 0, errors.Errorf("unknown invalidation flag '%s'", part)
	}
	return c, nil
}

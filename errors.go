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
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ConstructionError is returned when a composer is built with an unusable
// child. It is always returned by the constructor, never deferred to Process.
type ConstructionError struct {
	Composer string
	Position int
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: child operator at position %d is nil", e.Composer, e.Position)
}

// MissingColumnError is returned at process time when an operator needs a
// column which is absent from its input.
type MissingColumnError struct {
	Operator string
	Table    string
	Column   string
}

func (e *MissingColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: missing column '%s'", e.Operator, e.Column)
	}
	return fmt.Sprintf("%s: table '%s' is missing column '%s'", e.Operator, e.Table, e.Column)
}

// ValidationError is returned when an input is not shaped the way an
// operator requires (wrong arity, nil table, wrong column kind...).
type ValidationError struct {
	Operator string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Operator, e.Reason)
}

// NewValidationError is a convenience for building a ValidationError with a
// formatted reason.
func NewValidationError(operator, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Operator: operator, Reason: fmt.Sprintf(format, args...)}
}

// ElementError records the failure of one element of a Map.
type ElementError struct {
	Index int
	Err   error
}

// MapError collects every element failure of a single Map call.
type MapError struct {
	Operator string
	Failures []ElementError
}

func (e *MapError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = fmt.Sprintf("element %d: %v", f.Index, f.Err)
	}
	return fmt.Sprintf("%s: %d element(s) failed: %s", e.Operator, len(e.Failures), strings.Join(msgs, "; "))
}

func newMapError(operator string, errs []error) error {
	me := &MapError{Operator: operator}
	for i, err := range errs {
		if err != nil {
			me.Failures = append(me.Failures, ElementError{Index: i, Err: err})
		}
	}
	if len(me.Failures) == 0 {
		return nil
	}
	sort.Slice(me.Failures, func(i, j int) bool { return me.Failures[i].Index < me.Failures[j].Index })
	return me
}

// IsMissingColumn reports whether the cause of err is a MissingColumnError.
func IsMissingColumn(err error) bool {
	_, ok := errors.Cause(err).(*MissingColumnError)
	return ok
}

// IsValidation reports whether the cause of err is a ValidationError.
func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// IsConstruction reports whether the cause of err is a ConstructionError.
func IsConstruction(err error) bool {
	_, ok := errors.Cause(err).(*ConstructionError)
	return ok
}

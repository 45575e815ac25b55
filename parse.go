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
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Parser represents a single method for parsing a string field to a value
type Parser interface {
	Parse(string) (interface{}, error)
}

// IntParser is a parser for integer types
type IntParser struct {
}

// FloatParser is a parser for float types
type FloatParser struct {
}

// StringParser is a parser for string types
type StringParser struct {
}

// BoolParser is a parser for boolean types
type BoolParser struct {
}

// TimeParser is a parser for timestamps
type TimeParser struct {
	Layout string
}

// Parse parses an integer string to an int64 value
func (p IntParser) Parse(field string) (result interface{}, err error) {
	return strconv.ParseInt(field, 10, 64)
}

// Parse parses a float string to a float64 value
func (p FloatParser) Parse(field string) (result interface{}, err error) {
	return strconv.ParseFloat(field, 64)
}

// Parse is an identity parser for strings
func (p StringParser) Parse(field string) (result interface{}, err error) {
	return field, nil
}

// Parse parses a boolean string ("true", "0", "T"...) to a bool value
func (p BoolParser) Parse(field string) (result interface{}, err error) {
	return strconv.ParseBool(field)
}

// Parse parses a timestamp string to a time.Time value
func (p TimeParser) Parse(field string) (result interface{}, err error) {
	layout := p.Layout
	if layout == "" {
		layout = time.RFC3339
	}
	return time.Parse(layout, field)
}

// Field describes how to turn one named text field into a typed column.
type Field struct {
	Name   string
	Kind   Kind
	Parser Parser
}

// ParserFor returns the default Parser for a Kind.
func ParserFor(k Kind, layout string) (Parser, error) {
	switch k {
	case KindInt:
		return IntParser{}, nil
	case KindFloat:
		return FloatParser{}, nil
	case KindString:
		return StringParser{}, nil
	case KindBool:
		return BoolParser{}, nil
	case KindTime:
		return TimeParser{Layout: layout}, nil
	default:
		return nil, errors.Errorf("no parser for kind %v", k)
	}
}

var kindNames = map[string]Kind{
	"int":    KindInt,
	"float":  KindFloat,
	"string": KindString,
	"bool":   KindBool,
	"time":   KindTime,
}

// ParseSchema parses a comma separated list of name:kind pairs, e.g.
// "participant:string,timestamp:time,steps:float". A time kind may carry a
// Go layout after a '|': "timestamp:time|2006-01-02 15:04:05".
func ParseSchema(spec string) ([]Field, error) {
	fields := make([]Field, 0)
	if strings.TrimSpace(spec) == "" {
		return fields, nil
	}
	for i, part := range strings.Split(spec, ",") {
		nk := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(nk) != 2 || nk[0] == "" {
			return nil, errors.Errorf("schema entry %d '%s' is not name:kind", i, part)
		}
		kindStr, layout := nk[1], ""
		if pipe := strings.Index(kindStr, "|"); pipe >= 0 {
			kindStr, layout = kindStr[:pipe], kindStr[pipe+1:]
		}
		kind, ok := kindNames[kindStr]
		if !ok {
			return nil, errors.Errorf("unknown kind '%s' for field '%s'", kindStr, nk[0])
		}
		parser, err := ParserFor(kind, layout)
		if err != nil {
			return nil, errors.Wrapf(err, "field '%s'", nk[0])
		}
		fields = append(fields, Field{Name: nk[0], Kind: kind, Parser: parser})
	}
	return fields, nil
}

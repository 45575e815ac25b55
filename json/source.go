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

// Package json reads newline-delimited JSON objects into tables.
package json

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/file"
)

// Source reads json objects one at a time.
type Source struct {
	dec *json.Decoder
}

// NewSource gets a new json source which will decode from the given reader.
// Numbers are decoded as json.Number so that integers stay integers.
func NewSource(r io.Reader) *Source {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Source{
		dec: dec,
	}
}

// Record returns the next json object that can be decoded from the reader. It
// returns io.EOF at the end of the input.
func (s *Source) Record() (map[string]interface{}, error) {
	var res map[string]interface{}
	err := s.dec.Decode(&res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Decoder turns a stream of json objects into a table with wdk.FromRecords.
type Decoder struct {
	Fields []wdk.Field
	Keys   wdk.Keys
}

// Decode implements wdk.Decoder.
func (d *Decoder) Decode(r io.Reader, name string) (*wdk.Table, error) {
	src := NewSource(r)
	recs := make([]map[string]interface{}, 0)
	for {
		rec, err := src.Record()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, wdk.NewValidationError("json", "%s object %d: %v", name, len(recs), err)
		}
		if rec == nil {
			continue
		}
		recs = append(recs, rec)
	}
	t, err := wdk.FromRecords(name, recs, d.Fields)
	if err != nil {
		return nil, errors.Wrapf(err, "building '%s'", name)
	}
	if d.Keys != (wdk.Keys{}) {
		t.Keys = d.Keys
	}
	return t, nil
}

// NewReader returns a wdk.Reader for json files and URLs.
func NewReader(d *Decoder) wdk.Reader {
	return file.Reader{Decoder: d}
}

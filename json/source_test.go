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

package json_test

import (
	"strings"
	"testing"
	"time"

	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/json"
	"github.com/wearable-lab/wdk/test"
)

func TestDecode(t *testing.T) {
	fields, err := wdk.ParseSchema("timestamp:time,hr:float")
	test.ErrNil(t, err, "ParseSchema")
	d := &json.Decoder{Fields: fields}
	content := `
{"participant": "a", "timestamp": "2024-03-01T08:00:00Z", "steps": 12, "hr": 61, "device": {"id": "w1"}}
{"participant": "b", "timestamp": 1709283600000, "steps": null, "hr": 70.5}
`
	tbl, err := d.Decode(strings.NewReader(content), "epochs")
	test.ErrNil(t, err, "Decode")
	test.MustBe(t, tbl.Len(), 2)
	test.MustBe(t, tbl.Columns(), []string{"device.id", "hr", "participant", "steps", "timestamp"})
	test.MustBe(t, test.Values(t, tbl, "steps"), []interface{}{int64(12), nil})
	test.MustBe(t, test.Values(t, tbl, "hr"), []interface{}{61.0, 70.5})
	test.MustBe(t, test.Values(t, tbl, "device.id"), []interface{}{"w1", nil})
	test.MustBe(t, test.Values(t, tbl, "timestamp"), []interface{}{
		time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	})
}

func TestDecodeErrors(t *testing.T) {
	d := &json.Decoder{}
	if _, err := d.Decode(strings.NewReader(`{"a": 1}{"a": `), "x"); !wdk.IsValidation(err) {
		t.Fatalf("expected validation error for truncated object, got %v", err)
	}
	if _, err := d.Decode(strings.NewReader(`{"a": [1, 2]}`), "x"); !wdk.IsValidation(err) {
		t.Fatalf("expected validation error for array, got %v", err)
	}
	fields, _ := wdk.ParseSchema("hr:float")
	d = &json.Decoder{Fields: fields}
	if _, err := d.Decode(strings.NewReader(`{"a": 1}`), "x"); !wdk.IsMissingColumn(err) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestSource(t *testing.T) {
	src := json.NewSource(strings.NewReader(`{"hey": 44} {"hey": 39}`))
	rec, err := src.Record()
	test.ErrNil(t, err, "first")
	test.MustBe(t, rec["hey"].(interface{ String() string }).String(), "44")
	_, err = src.Record()
	test.ErrNil(t, err, "second")
	if _, err := src.Record(); err == nil {
		t.Fatal("expected EOF")
	}
}

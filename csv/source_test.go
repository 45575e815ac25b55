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

package csv_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/csv"
	"github.com/wearable-lab/wdk/test"
)

const epochsCSV = `participant,timestamp,steps,note
a,2024-03-01T08:00:00Z,12,
a,2024-03-01T08:01:00Z,,"moved, then sat"

b,2024-03-01T09:00:00Z,3,x
`

func mustDecoder(t *testing.T, schema string) *csv.Decoder {
	fields, err := wdk.ParseSchema(schema)
	test.ErrNil(t, err, "ParseSchema")
	return &csv.Decoder{Fields: fields}
}

func TestDecode(t *testing.T) {
	d := mustDecoder(t, "timestamp:time,steps:int")
	tbl, err := d.Decode(strings.NewReader(epochsCSV), "epochs")
	test.ErrNil(t, err, "Decode")
	test.MustBe(t, tbl.Len(), 3)
	test.MustBe(t, tbl.Columns(), []string{"participant", "timestamp", "steps", "note"})
	test.MustBe(t, test.Values(t, tbl, "steps"), []interface{}{int64(12), nil, int64(3)})
	test.MustBe(t, test.Values(t, tbl, "note"), []interface{}{nil, "moved, then sat", "x"})
	test.MustBe(t, tbl.Value("timestamp", 2), time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	c, _ := tbl.Column("steps")
	test.MustBe(t, c.Kind, wdk.KindInt)
}

func TestDecodeErrors(t *testing.T) {
	d := mustDecoder(t, "steps:int")
	tests := map[string]string{
		"bad value":   "participant,steps\na,many\n",
		"short row":   "participant,steps\na\n",
		"dup header":  "steps,steps\n1,2\n",
		"no header":   "",
		"blank field": "participant,,steps\na,b,1\n",
	}
	for name, content := range tests {
		_, err := d.Decode(strings.NewReader(content), "x")
		if !wdk.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
	_, err := d.Decode(strings.NewReader("participant,hr\na,1\n"), "x")
	if !wdk.IsMissingColumn(err) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestDecodeHeaderOnly(t *testing.T) {
	tbl, err := (&csv.Decoder{}).Decode(strings.NewReader("participant,steps\n"), "x")
	test.ErrNil(t, err, "Decode")
	test.MustBe(t, tbl.Len(), 0)
	test.MustBe(t, tbl.Columns(), []string{"participant", "steps"})
}

type flaky struct {
	name     string
	failures int
	opens    int
	content  string
}

func (f *flaky) String() string { return f.name }

func (f *flaky) Open() (io.ReadCloser, error) {
	f.opens++
	if f.opens <= f.failures {
		return nil, errors.New("connection reset")
	}
	return ioutil.NopCloser(strings.NewReader(f.content)), nil
}

func TestSourceRetries(t *testing.T) {
	ok := &flaky{name: "dir/day1.csv", failures: 2, content: epochsCSV}
	down := &flaky{name: "day2.csv", failures: 5, content: epochsCSV}
	bad := &flaky{name: "day3.csv", content: "participant,steps\na,many\n"}
	src := csv.NewSource(
		csv.WithOpenStringers([]wdk.OpenStringer{ok, down, bad}),
		csv.WithDecoder(mustDecoder(t, "steps:int")),
		csv.WithMaxRetries(3),
	)

	tbl, err := src.Next()
	test.ErrNil(t, err, "first table")
	test.MustBe(t, tbl.Name, "day1")
	test.MustBe(t, ok.opens, 3)

	_, err = src.Next()
	if err == nil || !strings.Contains(err.Error(), "tried 3 times") {
		t.Fatalf("expected retry exhaustion, got %v", err)
	}
	test.MustBe(t, down.opens, 3)

	_, err = src.Next()
	if !wdk.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	test.MustBe(t, bad.opens, 1, "bad content isn't retried")

	if _, err := src.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestSourceConcurrent(t *testing.T) {
	ops := make([]wdk.OpenStringer, 6)
	for i := range ops {
		ops[i] = &flaky{name: "f.csv", content: epochsCSV}
	}
	src := csv.NewSource(csv.WithOpenStringers(ops), csv.WithConcurrency(3), csv.WithTableName("epochs"))
	tables, err := wdk.Collect(src)
	test.ErrNil(t, err, "Collect")
	test.MustBe(t, len(tables), 6)
	for _, tbl := range tables {
		test.MustBe(t, tbl.Name, "epochs")
		test.MustBe(t, tbl.Len(), 3)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	d := mustDecoder(t, "timestamp:time,steps:int,hr:float")
	in, err := d.Decode(strings.NewReader("participant,timestamp,steps,hr\na,2024-03-01T08:00:00Z,12,61.5\nb,2024-03-01T09:00:00Z,,70\n"), "epochs")
	test.ErrNil(t, err, "Decode")

	buf := &bytes.Buffer{}
	test.ErrNil(t, csv.Write(buf, in), "Write")
	test.MustBe(t, buf.String(), "participant,timestamp,steps,hr\na,2024-03-01T08:00:00Z,12,61.5\nb,2024-03-01T09:00:00Z,,70\n")

	out, err := d.Decode(buf, "epochs")
	test.ErrNil(t, err, "Decode again")
	test.MustBe(t, out.Columns(), in.Columns())
	for _, c := range in.Columns() {
		test.MustBe(t, test.Values(t, out, c), test.Values(t, in, c), c)
	}
}

func TestSinkAndReader(t *testing.T) {
	dir, err := ioutil.TempDir("", "testsink")
	test.ErrNil(t, err, "TempDir")
	defer os.RemoveAll(dir)

	a := test.MustTable(t, "epochs", wdk.NewColumn("participant", "a"), wdk.NewColumn("steps", 1))
	b := test.MustTable(t, "epochs", wdk.NewColumn("participant", "b"), wdk.NewColumn("steps", 2))
	out, err := (&csv.Sink{Dir: dir}).Process(a, b)
	test.ErrNil(t, err, "Sink")
	test.MustBe(t, out, []*wdk.Table{a, b})

	r := csv.NewReader(mustDecoder(t, "steps:int"))
	got, err := r.Read(filepath.Join(dir, "epochs.csv"), "first")
	test.ErrNil(t, err, "Read first")
	test.MustBe(t, got.Value("steps", 0), int64(1))
	got, err = r.Read(filepath.Join(dir, "epochs-1.csv"), "second")
	test.ErrNil(t, err, "Read second")
	test.MustBe(t, got.Value("participant", 0), "b")
}

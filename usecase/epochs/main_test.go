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

package epochs_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/csv"
	"github.com/wearable-lab/wdk/test"
	"github.com/wearable-lab/wdk/usecase/epochs"
	"github.com/wearable-lab/wdk/validate"
)

const epochsCSV = `participant,timestamp,steps
alice,2018-01-01T10:00:00Z,5
alice,2018-01-01T11:00:00Z,7
alice,2018-01-02T10:00:00Z,
alice,2018-01-02T11:00:00Z,3
bob,2018-01-01T10:00:00Z,1
bob,2018-01-01T11:00:00Z,2
`

func writeInput(t *testing.T) string {
	dir, err := ioutil.TempDir("", "epochs")
	test.ErrNil(t, err, "TempDir")
	err = ioutil.WriteFile(filepath.Join(dir, "epochs.csv"), []byte(epochsCSV), 0644)
	test.ErrNil(t, err, "writing input")
	return dir
}

func newMain(in string) (*epochs.Main, *bytes.Buffer) {
	m := epochs.NewMain()
	m.Paths = []string{in}
	m.Schema = "participant:string,timestamp:time,steps:int"
	m.MinEpochs = 2
	m.Translator = "memory"
	m.Prune = true
	stderr := &bytes.Buffer{}
	m.Stderr = stderr
	return m, stderr
}

func TestMainPrunesAndReports(t *testing.T) {
	in := writeInput(t)
	defer os.RemoveAll(in)
	out, err := ioutil.TempDir("", "epochs-out")
	test.ErrNil(t, err, "TempDir")
	defer os.RemoveAll(out)

	m, stderr := newMain(in)
	m.Out = out
	err = m.Run()
	test.ErrNil(t, err, "Run")

	f, err := os.Open(filepath.Join(out, "epochs.csv"))
	test.ErrNil(t, err, "opening output")
	defer f.Close()
	tbl, err := (&csv.Decoder{}).Decode(f, "epochs")
	test.ErrNil(t, err, "decoding output")
	test.MustBe(t, []interface{}{"p0", "p0", "p1", "p1"}, test.Values(t, tbl, "participant"))
	test.MustBe(t, []interface{}{"5", "7", "1", "2"}, test.Values(t, tbl, "steps"))
	if !tbl.HasColumn("_invalid") || !tbl.HasColumn("_experiment_day") {
		t.Fatalf("expected reserved columns in output, got %v", tbl.Columns())
	}

	rf, err := os.Open(filepath.Join(out, "epochs-report.csv"))
	test.ErrNil(t, err, "opening report")
	defer rf.Close()
	report, err := (&csv.Decoder{}).Decode(rf, "report")
	test.ErrNil(t, err, "decoding report")
	total := 0
	for _, v := range test.Values(t, report, "days") {
		if v != "0" {
			total++
		}
	}
	if total == 0 {
		t.Fatalf("expected the report to count the invalid day: %v", test.Values(t, report, "days"))
	}
	if !strings.Contains(stderr.String(), "1 invalid day(s)") {
		t.Fatalf("expected report in log, got:\n%s", stderr.String())
	}
}

func TestMainStdout(t *testing.T) {
	in := writeInput(t)
	defer os.RemoveAll(in)
	m, _ := newMain(in)
	m.Prune = false
	m.Translator = "none"
	stdout := &bytes.Buffer{}
	m.Stdout = stdout
	m.Concurrency = 4
	err := m.Run()
	test.ErrNil(t, err, "Run")
	out := stdout.String()
	if !strings.HasPrefix(out, "# epochs\n") {
		t.Fatalf("expected table name first, got:\n%s", out)
	}
	if !strings.Contains(out, "alice,2018-01-02T10:00:00Z,") {
		t.Fatalf("expected unpruned, unpseudonymized rows, got:\n%s", out)
	}
}

func TestMainErrors(t *testing.T) {
	m := epochs.NewMain()
	m.Stderr = &bytes.Buffer{}
	if err := m.Run(); err == nil {
		t.Fatalf("expected error without input")
	}

	in := writeInput(t)
	defer os.RemoveAll(in)
	m, _ = newMain(in)
	m.Out = in + "-out"
	defer os.RemoveAll(m.Out)
	m.DayThreshold = 1
	m.DayAggregate = "median"
	if err := m.Run(); err == nil {
		t.Fatalf("expected error for unknown aggregate")
	}

	m, _ = newMain(in)
	m.Schema = "participant:string,timestamp:time,calories:int"
	m.Out = in + "-out"
	if err := m.Run(); err == nil {
		t.Fatalf("expected error for missing schema column")
	}
}

func TestPipelineInvalidEpochsAndGeohash(t *testing.T) {
	t0 := time.Date(2018, 1, 1, 10, 0, 0, 0, time.UTC)
	tbl := test.MustTable(t, "epochs",
		wdk.NewColumn("participant", "alice", "alice", "alice"),
		wdk.NewColumn("timestamp", t0, t0.Add(time.Hour), t0.Add(24*time.Hour)),
		wdk.NewColumn("steps", int64(5), nil, int64(4)),
		wdk.NewColumn("latitude", 57.64911, 57.64911, 57.64911),
		wdk.NewColumn("longitude", 10.40744, 10.40744, 10.40744),
	)
	m := epochs.NewMain()
	m.MinEpochs = 0
	m.MinDays = 0
	m.MaxInvalid = 0
	m.Geohash = "latitude,longitude"
	m.GeohashPrecision = 5
	op, err := m.Pipeline(nil, wdk.NopStatter{}, wdk.NopLogger{})
	test.ErrNil(t, err, "Pipeline")
	out, err := op.Process(tbl)
	test.ErrNil(t, err, "Process")

	test.MustBe(t, []interface{}{"u4pru", "u4pru", "u4pru"}, test.Values(t, out[0], "geohash"))
	cs, err := validate.RowCodes(out[0], validate.Config{})
	test.ErrNil(t, err, "RowCodes")
	test.MustBe(t, []validate.Code{
		validate.DayTooManyInvalidEpochs,
		validate.EpochNullValue | validate.DayTooManyInvalidEpochs,
		validate.Valid,
	}, cs)

	m.MaxInvalid = -1
	op, err = m.Pipeline(nil, wdk.NopStatter{}, wdk.NopLogger{})
	test.ErrNil(t, err, "Pipeline without invalid epoch limit")
	out, err = op.Process(tbl)
	test.ErrNil(t, err, "Process without invalid epoch limit")
	cs, err = validate.RowCodes(out[0], validate.Config{})
	test.ErrNil(t, err, "RowCodes")
	test.MustBe(t, []validate.Code{validate.Valid, validate.EpochNullValue, validate.Valid}, cs)

	m.Geohash = "latitude"
	if _, err := m.Pipeline(nil, wdk.NopStatter{}, wdk.NopLogger{}); err == nil {
		t.Fatalf("expected error for geohash columns without a longitude")
	}
}

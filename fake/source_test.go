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

package fake_test

import (
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/fake"
	"github.com/wearable-lab/wdk/test"
)

func TestEpochGenerator(t *testing.T) {
	cfg := fake.EpochConfig{Participants: 3, Days: 2, Epoch: time.Hour, NullRate: 0.5}
	g := fake.NewEpochGenerator(1, cfg)
	tbl, err := g.Table(1)
	test.ErrNil(t, err, "Table(1)")
	test.MustBe(t, 48, tbl.Len(), "rows")
	test.MustBe(t, []string{"participant", "timestamp", "steps", "heart_rate"}, tbl.Columns())

	stamps := test.Values(t, tbl, "timestamp")
	test.MustBe(t, fake.DefaultStart, stamps[0])
	test.MustBe(t, fake.DefaultStart.Add(47*time.Hour), stamps[47])
	for i, p := range test.Values(t, tbl, "participant") {
		if p != g.Participant(1) {
			t.Fatalf("row %d: participant %v, expected %s", i, p, g.Participant(1))
		}
	}

	again, err := fake.NewEpochGenerator(1, cfg).Table(1)
	test.ErrNil(t, err, "Table(1) again")
	if !reflect.DeepEqual(test.Values(t, tbl, "heart_rate"), test.Values(t, again, "heart_rate")) {
		t.Fatalf("same seed and participant generated different data")
	}

	if _, err := g.Table(3); err == nil {
		t.Fatalf("expected error for participant out of range")
	}
}

func TestEpochNonWear(t *testing.T) {
	g := fake.NewEpochGenerator(5, fake.EpochConfig{Days: 3, Epoch: time.Hour, NonWearRate: 1})
	tbl, err := g.Table(0)
	test.ErrNil(t, err, "Table(0)")
	for i, v := range test.Values(t, tbl, "steps") {
		if v != int64(0) {
			t.Fatalf("row %d: expected no steps on a non-wear day, got %v", i, v)
		}
	}
	for i, v := range test.Values(t, tbl, "heart_rate") {
		if v != nil {
			t.Fatalf("row %d: expected missing heart rate on a non-wear day, got %v", i, v)
		}
	}
}

func TestParticipantLabelsDistinct(t *testing.T) {
	g := fake.NewEpochGenerator(2, fake.EpochConfig{Participants: 20})
	seen := make(map[string]bool)
	for i := 0; i < g.Len(); i++ {
		seen[g.Participant(i)] = true
	}
	test.MustBe(t, 20, len(seen), "distinct participants")
}

func TestSleepGenerator(t *testing.T) {
	g := fake.NewSleepGenerator(3, fake.SleepConfig{Nights: 5})
	tbl, err := g.Table(0)
	test.ErrNil(t, err, "Table(0)")
	if tbl.Len() < 5 || tbl.Len() > 20 {
		t.Fatalf("expected between 5 and 20 fragments, got %d", tbl.Len())
	}
	var lastEnd time.Time
	for i := 0; i < tbl.Len(); i++ {
		start, _ := tbl.Row(i).Time("start")
		end, _ := tbl.Row(i).Time("end")
		if !end.After(start) {
			t.Fatalf("row %d: end %v not after start %v", i, end, start)
		}
		if i > 0 && !start.After(lastEnd) {
			t.Fatalf("row %d: start %v overlaps previous end %v", i, start, lastEnd)
		}
		lastEnd = end
	}
}

func TestSource(t *testing.T) {
	src := fake.NewEpochSource(1, fake.EpochConfig{Participants: 4, Days: 1, Epoch: time.Hour})
	for i := 0; i < 4; i++ {
		tbl, err := src.Next()
		if err != nil {
			t.Fatalf("unexpected error on table %d: %v", i, err)
		}
		if tbl.Len() != 24 {
			t.Fatalf("table %d: expected 24 rows, got %d", i, tbl.Len())
		}
	}
	if _, err := src.Next(); err != io.EOF {
		t.Fatalf("should get EOF after 4 tables, but %v", err)
	}

	tables, err := wdk.Generated(src).Process()
	test.ErrNil(t, err, "Generated")
	test.MustBe(t, 4, len(tables), "generated tables")
}

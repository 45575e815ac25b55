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

package wdk_test

import (
	"testing"

	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/mock"
	"github.com/wearable-lab/wdk/test"
)

func TestInstrument(t *testing.T) {
	stats := &mock.RecordingStatter{}
	log := &mock.RecordingLogger{}
	op := wdk.Instrument(wdk.Each("keep-first", func(tb *wdk.Table) (*wdk.Table, error) {
		return tb.Take([]int{0}), nil
	}), "", stats, log)
	test.MustBe(t, wdk.NameOf(op), "keep-first")

	_, err := op.Process(xTable(t, 1, 2, 3), xTable(t, 4, 5))
	test.ErrNil(t, err, "Process")
	test.MustBe(t, stats.Total("keep-first.calls"), int64(1))
	test.MustBe(t, stats.Total("keep-first.rows_in"), int64(5))
	test.MustBe(t, stats.Total("keep-first.rows_out"), int64(2))
	test.MustBe(t, stats.Timings["keep-first.duration"], 1)
	test.MustBe(t, len(log.Debugs), 1)

	_, err = wdk.Instrument(failing("nope"), "broken", stats, nil).Process()
	if err == nil {
		t.Fatal("expected error")
	}
	test.MustBe(t, stats.Total("broken.errors"), int64(1))
}

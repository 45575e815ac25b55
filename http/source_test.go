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

package http_test

import (
	"fmt"
	"io"
	"net"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/http"
	"github.com/wearable-lab/wdk/test"
)

func TestSourceServeHTTP(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	test.ErrNil(t, err, "listening")
	src, err := http.NewSource(http.WithListener(ln), http.WithBuffer(10))
	test.ErrNil(t, err, "NewSource")
	defer src.Close()

	tests := []struct {
		method string
		path   string
		data   string
		code   int
		name   string
		rows   int
	}{
		{method: "POST", path: "/", data: `{"steps": 2}`, code: gohttp.StatusAccepted, name: "http", rows: 1},
		{method: "POST", path: "/alice", data: `{"steps": 2}{"steps": 3}`, code: gohttp.StatusAccepted, name: "alice", rows: 2},
		{method: "POST", path: "/blah?name=bob", data: "{\"steps\": 2}  \n  {\"steps\": 3}", code: gohttp.StatusAccepted, name: "bob", rows: 2},
		{method: "POST", path: "/", data: `{"steps: 2}`, code: gohttp.StatusBadRequest},
		{method: "GET", path: "/", code: gohttp.StatusMethodNotAllowed},
	}

	for i, tst := range tests {
		ctx := fmt.Sprintf("case %d", i)
		rec := httptest.NewRecorder()
		src.ServeHTTP(rec, httptest.NewRequest(tst.method, tst.path, strings.NewReader(tst.data)))
		test.MustBe(t, tst.code, rec.Code, ctx)
		if tst.code != gohttp.StatusAccepted {
			continue
		}
		tbl, err := src.Next()
		test.ErrNil(t, err, ctx)
		test.MustBe(t, tst.name, tbl.Name, ctx)
		test.MustBe(t, tst.rows, tbl.Len(), ctx)
		v, _ := tbl.Row(0).Float("steps")
		test.MustBe(t, 2.0, v, ctx)
	}
}

func TestSourceOverNetwork(t *testing.T) {
	src, err := http.NewSource(http.WithAddr("localhost:0"))
	test.ErrNil(t, err, "NewSource")

	resp, err := gohttp.Post("http://"+src.Addr()+"/carol", "application/json",
		strings.NewReader(`{"participant": "carol", "steps": 12}`))
	test.ErrNil(t, err, "posting")
	resp.Body.Close()
	test.MustBe(t, gohttp.StatusAccepted, resp.StatusCode)

	tbl, err := src.Next()
	test.ErrNil(t, err, "Next")
	test.MustBe(t, "carol", tbl.Name)
	test.MustBe(t, []string{"participant", "steps"}, tbl.Columns())
	p, _ := tbl.Row(0).String(wdk.DefaultKeys.Participant)
	test.MustBe(t, "carol", p)

	test.ErrNil(t, src.Close(), "closing")
	if _, err := src.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after close, got %v", err)
	}
}

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
	"time"
)

// Instrument wraps op so that every call reports row counts and timing to
// stats and a debug line to log. Nil stats or log are replaced by no-ops.
func Instrument(op Operator, name string, stats Statter, log Logger) Operator {
	if stats == nil {
		stats = NopStatter{}
	}
	if log == nil {
		log = NopLogger{}
	}
	if name == "" {
		name = NameOf(op)
	}
	return &instrumented{op: op, name: name, stats: stats, log: log}
}

type instrumented struct {
	op    Operator
	name  string
	stats Statter
	log   Logger
}

func (i *instrumented) Name() string { return i.name }

func (i *instrumented) Process(tables ...*Table) ([]*Table, error) {
	start := time.Now()
	i.stats.Count(i.name+".calls", 1, 1)
	i.stats.Count(i.name+".rows_in", rowCount(tables), 1)
	out, err := i.op.Process(tables...)
	i.stats.Timing(i.name+".duration", time.Since(start), 1)
	if err != nil {
		i.stats.Count(i.name+".errors", 1, 1)
		return nil, err
	}
	rowsOut := rowCount(out)
	i.stats.Count(i.name+".rows_out", rowsOut, 1)
	i.log.Debugf("%s: %d table(s) in, %d table(s) / %d row(s) out in %v", i.name, len(tables), len(out), rowsOut, time.Since(start))
	return out, nil
}

func rowCount(tables []*Table) int64 {
	var n int64
	for _, t := range tables {
		if t != nil {
			n += int64(t.Len())
		}
	}
	return n
}

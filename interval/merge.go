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

package interval

import (
	"github.com/wearable-lab/wdk"
)

// MergeFragments merges every interval with the following ones up to and
// including the next boundary.
type MergeFragments struct {
	Config Config
}

// Name implements wdk.Namer.
func (m *MergeFragments) Name() string { return "merge-fragments" }

// Process implements wdk.Operator.
func (m *MergeFragments) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	return each(m.Name(), tables, m.merge)
}

func (m *MergeFragments) merge(t *wdk.Table) (*wdk.Table, error) {
	p, err := prepare(m.Name(), m.Config, t)
	if err != nil {
		return nil, err
	}
	spans := make([]span, 0)
	for _, g := range p.groups {
		gaps := p.nextGaps(g.Rows)
		first := 0
		for i := range g.Rows {
			if gaps[i] > p.cfg.Gap {
				spans = append(spans, span{first: g.Rows[first], last: g.Rows[i], gap: gaps[i]})
				first = i + 1
			}
		}
		if first < len(g.Rows) {
			spans = append(spans, span{first: g.Rows[first], last: g.Rows[len(g.Rows)-1], gap: noGap})
		}
	}
	return p.build(spans)
}

// FillGaps labels every interval with the running count of boundaries up to
// and including itself, so each boundary starts a run which absorbs the
// following intervals up to (not including) the next boundary. The run's
// first interval anchors the merge. The gap column holds the gap from that
// first interval to the next one.
type FillGaps struct {
	Config Config
}

// Name implements wdk.Namer.
func (f *FillGaps) Name() string { return "fill-gaps" }

// Process implements wdk.Operator.
func (f *FillGaps) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	return each(f.Name(), tables, f.fill)
}

func (f *FillGaps) fill(t *wdk.Table) (*wdk.Table, error) {
	p, err := prepare(f.Name(), f.Config, t)
	if err != nil {
		return nil, err
	}
	spans := make([]span, 0)
	for _, g := range p.groups {
		gaps := p.nextGaps(g.Rows)
		labels := make([]int, len(g.Rows))
		label := 0
		for i := range g.Rows {
			if gaps[i] > p.cfg.Gap {
				label++
			}
			labels[i] = label
		}
		for i := 0; i < len(g.Rows); {
			j := i
			for j+1 < len(g.Rows) && labels[j+1] == labels[i] {
				j++
			}
			spans = append(spans, span{first: g.Rows[i], last: g.Rows[j], gap: gaps[i]})
			i = j + 1
		}
	}
	return p.build(spans)
}

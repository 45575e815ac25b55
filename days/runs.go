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

package days

import (
	"sort"
)

// RunRule decides whether a run of consecutive days is long enough to keep.
type RunRule interface {
	Accept(length int) bool
}

// AtLeast accepts runs of at least that many days. The bound is inclusive:
// AtLeast(2) accepts a run of 2.
type AtLeast int

// Accept implements RunRule.
func (a AtLeast) Accept(length int) bool { return length >= int(a) }

// Between accepts runs longer than Min and no longer than Max. Min is an
// exclusive lower bound and Max an inclusive upper bound; a Max of zero or
// less means unbounded.
type Between struct {
	Min int
	Max int
}

// Accept implements RunRule.
func (b Between) Accept(length int) bool {
	if length <= b.Min {
		return false
	}
	return b.Max <= 0 || length <= b.Max
}

// Runs splits days into maximal runs of consecutive values. days need not be
// sorted and may contain duplicates. The runs partition the distinct values.
func Runs(days []int) [][]int {
	if len(days) == 0 {
		return nil
	}
	sorted := append([]int(nil), days...)
	sort.Ints(sorted)
	runs := make([][]int, 0)
	cur := []int{sorted[0]}
	for _, d := range sorted[1:] {
		last := cur[len(cur)-1]
		switch {
		case d == last:
			continue
		case d == last+1:
			cur = append(cur, d)
		default:
			runs = append(runs, cur)
			cur = []int{d}
		}
	}
	return append(runs, cur)
}

// Acceptable returns the days of every participant which belong to a run the
// rule accepts. Participants without days contribute nothing.
func Acceptable(byParticipant map[string][]int, rule RunRule) Set {
	ret := make(Set)
	for p, ds := range byParticipant {
		for _, run := range Runs(ds) {
			if !rule.Accept(len(run)) {
				continue
			}
			for _, d := range run {
				ret.Add(Key{Participant: p, Day: d})
			}
		}
	}
	return ret
}

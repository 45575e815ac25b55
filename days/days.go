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

// Package days holds the day-level bookkeeping shared by validators and
// filters: experiment-day numbering and consecutive day runs.
package days

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// Key identifies one day of one participant.
type Key struct {
	Participant string
	Day         int
}

func (k Key) String() string { return fmt.Sprintf("%s/%d", k.Participant, k.Day) }

// Set is a set of participant days.
type Set map[Key]struct{}

// NewSet returns a Set holding keys.
func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add adds k to s.
func (s Set) Add(k Key) { s[k] = struct{}{} }

// Has reports whether k is in s.
func (s Set) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Keys returns the members of s ordered by participant then day.
func (s Set) Keys() []Key {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Participant != keys[j].Participant {
			return keys[i].Participant < keys[j].Participant
		}
		return keys[i].Day < keys[j].Day
	})
	return keys
}

// Union returns a new Set holding the members of s and o.
func (s Set) Union(o Set) Set {
	ret := make(Set, len(s)+len(o))
	for k := range s {
		ret[k] = struct{}{}
	}
	for k := range o {
		ret[k] = struct{}{}
	}
	return ret
}

// Minus returns a new Set holding the members of s which aren't in o.
func (s Set) Minus(o Set) Set {
	ret := make(Set, len(s))
	for k := range s {
		if !o.Has(k) {
			ret[k] = struct{}{}
		}
	}
	return ret
}

// ByParticipant groups the days of s by participant. Each slice is sorted.
func (s Set) ByParticipant() map[string][]int {
	ret := make(map[string][]int)
	for k := range s {
		ret[k.Participant] = append(ret[k.Participant], k.Day)
	}
	for _, ds := range ret {
		sort.Ints(ds)
	}
	return ret
}

// Number returns the civil date of ts, shifted back by startHour hours, as a
// count of days since the Unix epoch. The date is taken in ts's own location
// so that daylight saving transitions don't move records between days.
func Number(ts time.Time, startHour int) int {
	y, m, d := ts.Add(-time.Duration(startHour) * time.Hour).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// Calendar returns the day Number of every row of t using its timestamp key
// column.
func Calendar(t *wdk.Table, startHour int) ([]int, error) {
	col, ok := t.Column(t.Keys.Timestamp)
	if !ok {
		return nil, &wdk.MissingColumnError{Operator: "days", Table: t.Name, Column: t.Keys.Timestamp}
	}
	ret := make([]int, t.Len())
	for i, v := range col.Values {
		ts, ok := wdk.ToTime(v)
		if !ok {
			return nil, wdk.NewValidationError("days", "row %d of column '%s' is not a timestamp: %v", i, t.Keys.Timestamp, v)
		}
		ret[i] = Number(ts, startHour)
	}
	return ret, nil
}

// Experiment numbers the rows of t by experiment day: the ordinal of the row's
// (shifted) calendar day relative to the first day of the same participant,
// which is day 0.
func Experiment(t *wdk.Table, startHour int) ([]int, error) {
	cal, err := Calendar(t, startHour)
	if err != nil {
		return nil, err
	}
	groups, err := t.GroupBy(t.Keys.Participant)
	if err != nil {
		return nil, errors.Wrap(err, "grouping by participant")
	}
	ret := make([]int, len(cal))
	for _, g := range groups {
		first := cal[g.Rows[0]]
		for _, r := range g.Rows {
			if cal[r] < first {
				first = cal[r]
			}
		}
		for _, r := range g.Rows {
			ret[r] = cal[r] - first
		}
	}
	return ret, nil
}

// Participants returns the participant of every row of t as a string.
func Participants(t *wdk.Table) ([]string, error) {
	col, ok := t.Column(t.Keys.Participant)
	if !ok {
		return nil, &wdk.MissingColumnError{Operator: "days", Table: t.Name, Column: t.Keys.Participant}
	}
	ret := make([]string, len(col.Values))
	for i, v := range col.Values {
		ret[i], _ = wdk.ToString(v)
	}
	return ret, nil
}

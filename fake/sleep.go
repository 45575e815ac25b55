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

package fake

import (
	"time"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/fake/gen"
)

// SleepConfig shapes generated sleep logs.
type SleepConfig struct {
	Participants int
	Nights       int
	Start        time.Time

	// MaxFragments bounds how many intervals a night is split into.
	MaxFragments int
	// MaxGap bounds the short wake-ups between fragments. A fifth of the
	// gaps are long, between one and three hours.
	MaxGap time.Duration
}

func (c SleepConfig) orDefault() SleepConfig {
	if c.Participants <= 0 {
		c.Participants = 1
	}
	if c.Nights <= 0 {
		c.Nights = 7
	}
	if c.Start.IsZero() {
		c.Start = DefaultStart
	}
	if c.MaxFragments <= 0 {
		c.MaxFragments = 4
	}
	if c.MaxGap <= 0 {
		c.MaxGap = 30 * time.Minute
	}
	return c
}

// SleepGenerator builds one sleep log per participant with the columns
// participant, start, end and steps.
type SleepGenerator struct {
	seed int64
	cfg  SleepConfig
	perm *gen.PermutationGenerator
}

// NewSleepGenerator gets a new SleepGenerator.
func NewSleepGenerator(seed int64, cfg SleepConfig) *SleepGenerator {
	cfg = cfg.orDefault()
	return &SleepGenerator{
		seed: seed,
		cfg:  cfg,
		perm: gen.NewPermutationGenerator(int64(cfg.Participants), seed),
	}
}

// Len returns the number of participants.
func (s *SleepGenerator) Len() int { return s.cfg.Participants }

// Participant returns the label of the i'th participant.
func (s *SleepGenerator) Participant(i int) string {
	return participantLabel(s.perm, i)
}

// Table generates the sleep fragments of the i'th participant.
func (s *SleepGenerator) Table(i int) (*wdk.Table, error) {
	if i < 0 || i >= s.cfg.Participants {
		return nil, errors.Errorf("participant %d out of range [0, %d)", i, s.cfg.Participants)
	}
	g := gen.NewGenerator(s.seed + int64(i))
	pid := s.Participant(i)
	var parts, starts, ends, steps []interface{}
	maxGap := int(s.cfg.MaxGap / time.Minute)
	for n := 0; n < s.cfg.Nights; n++ {
		at := s.cfg.Start.AddDate(0, 0, n).Add(22*time.Hour + time.Duration(g.Intn(120))*time.Minute)
		frags := 1 + g.Intn(s.cfg.MaxFragments)
		for f := 0; f < frags; f++ {
			if f > 0 {
				gap := time.Duration(1+g.Intn(maxGap)) * time.Minute
				if g.Chance(0.2) {
					gap = time.Duration(60+g.Intn(120)) * time.Minute
				}
				at = at.Add(gap)
			}
			end := at.Add(time.Duration(15+g.Intn(105)) * time.Minute)
			parts = append(parts, pid)
			starts = append(starts, at)
			ends = append(ends, end)
			steps = append(steps, int64(g.Uint64(20)))
			at = end
		}
	}
	t, err := wdk.NewTable(pid,
		&wdk.Column{Name: "participant", Kind: wdk.KindString, Values: parts},
		&wdk.Column{Name: "start", Kind: wdk.KindTime, Values: starts},
		&wdk.Column{Name: "end", Kind: wdk.KindTime, Values: ends},
		&wdk.Column{Name: "steps", Kind: wdk.KindInt, Values: steps},
	)
	return t, errors.Wrap(err, "building sleep table")
}

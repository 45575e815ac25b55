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

// Package fake generates synthetic wearable data: per-minute activity epochs
// and fragmented sleep logs. Output is deterministic for a given seed and
// participant index.
package fake

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/fake/gen"
)

// DefaultStart is the first day of generated data.
var DefaultStart = time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)

// EpochConfig shapes generated epoch tables.
type EpochConfig struct {
	Participants int
	Days         int
	// Epoch is the spacing of rows, a minute by default.
	Epoch time.Duration
	Start time.Time

	// NullRate is the chance that an epoch's heart rate is missing.
	NullRate float64
	// NonWearRate is the chance that a whole day has no steps and no heart
	// rate.
	NonWearRate float64
}

func (c EpochConfig) orDefault() EpochConfig {
	if c.Participants <= 0 {
		c.Participants = 1
	}
	if c.Days <= 0 {
		c.Days = 7
	}
	if c.Epoch <= 0 {
		c.Epoch = time.Minute
	}
	if c.Start.IsZero() {
		c.Start = DefaultStart
	}
	return c
}

// EpochGenerator builds one epoch table per participant with the columns
// participant, timestamp, steps and heart_rate.
type EpochGenerator struct {
	seed int64
	cfg  EpochConfig
	perm *gen.PermutationGenerator
}

// NewEpochGenerator gets a new EpochGenerator.
func NewEpochGenerator(seed int64, cfg EpochConfig) *EpochGenerator {
	cfg = cfg.orDefault()
	return &EpochGenerator{
		seed: seed,
		cfg:  cfg,
		perm: gen.NewPermutationGenerator(int64(cfg.Participants), seed),
	}
}

// Len returns the number of participants.
func (e *EpochGenerator) Len() int { return e.cfg.Participants }

// Participant returns the label of the i'th participant.
func (e *EpochGenerator) Participant(i int) string {
	return participantLabel(e.perm, i)
}

// Table generates the epochs of the i'th participant.
func (e *EpochGenerator) Table(i int) (*wdk.Table, error) {
	if i < 0 || i >= e.cfg.Participants {
		return nil, errors.Errorf("participant %d out of range [0, %d)", i, e.cfg.Participants)
	}
	g := gen.NewGenerator(e.seed + int64(i))
	perDay := int(24 * time.Hour / e.cfg.Epoch)
	n := perDay * e.cfg.Days
	pid := e.Participant(i)
	parts := make([]interface{}, 0, n)
	stamps := make([]interface{}, 0, n)
	steps := make([]interface{}, 0, n)
	hr := make([]interface{}, 0, n)
	for d := 0; d < e.cfg.Days; d++ {
		nonWear := g.Chance(e.cfg.NonWearRate)
		day := e.cfg.Start.AddDate(0, 0, d)
		for j := 0; j < perDay; j++ {
			ts := day.Add(time.Duration(j) * e.cfg.Epoch)
			parts = append(parts, pid)
			stamps = append(stamps, ts)
			if nonWear {
				steps = append(steps, int64(0))
				hr = append(hr, nil)
				continue
			}
			steps = append(steps, int64(epochSteps(g, ts.Hour())))
			if g.Chance(e.cfg.NullRate) {
				hr = append(hr, nil)
			} else {
				hr = append(hr, g.Float64(55, 110))
			}
		}
	}
	t, err := wdk.NewTable(pid,
		&wdk.Column{Name: "participant", Kind: wdk.KindString, Values: parts},
		&wdk.Column{Name: "timestamp", Kind: wdk.KindTime, Values: stamps},
		&wdk.Column{Name: "steps", Kind: wdk.KindInt, Values: steps},
		&wdk.Column{Name: "heart_rate", Kind: wdk.KindFloat, Values: hr},
	)
	return t, errors.Wrap(err, "building epoch table")
}

// epochSteps is zipfian while awake and mostly zero at night.
func epochSteps(g *gen.Generator, hour int) uint64 {
	if hour < 6 || hour >= 23 {
		if g.Chance(0.95) {
			return 0
		}
		return g.Uint64(10)
	}
	return g.Uint64(150)
}

func participantLabel(p *gen.PermutationGenerator, i int) string {
	return fmt.Sprintf("P%04d", p.Permute(int64(i)))
}

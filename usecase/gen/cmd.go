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

// Package gen writes synthetic wearable data as CSV or publishes it to Kafka,
// for trying out the other commands.
package gen

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/fake"
	"github.com/wearable-lab/wdk/kafka"
	"github.com/wearable-lab/wdk/usecase/inout"
)

// Main holds the options for generating fake data.
type Main struct {
	Kind           string        `help:"What to generate: epochs or sleep."`
	Seed           int64         `help:"Random seed for generating data. -1 will use current nanosecond."`
	Participants   int           `help:"Number of participants, one table each."`
	Days           int           `help:"Number of days (or nights) per participant."`
	Epoch          time.Duration `help:"Spacing of generated epochs."`
	NullRate       float64       `help:"Chance of a missing heart rate per epoch."`
	NonWearRate    float64       `help:"Chance of a day without data."`
	MaxFragments   int           `help:"Most sleep fragments per night."`
	MaxGap         time.Duration `help:"Longest short wake-up between sleep fragments."`
	GenConcurrency int           `help:"Number of tables generated in parallel."`
	Out            string        `help:"Directory to write CSV files to. Empty means stdout."`
	KafkaHosts     []string      `help:"Comma separated list of host:port pairs for Kafka."`
	Topic          string        `help:"Publish rows as json messages to this Kafka topic instead of writing CSV."`
	Verbose        bool          `help:"Enable verbose logging."`

	Stdout io.Writer `flag:"-"`
	Stderr io.Writer `flag:"-"`
}

// NewMain returns a new Main.
func NewMain() *Main {
	return &Main{
		Kind:           "epochs",
		Seed:           1,
		Participants:   10,
		Days:           14,
		Epoch:          time.Minute,
		NullRate:       0.01,
		NonWearRate:    0.1,
		MaxFragments:   4,
		MaxGap:         30 * time.Minute,
		GenConcurrency: 1,
		KafkaHosts:     []string{"localhost:9092"},
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	}
}

// Source returns the fake source described by m.
func (m *Main) Source() (*fake.Source, error) {
	if m.Seed == -1 {
		m.Seed = time.Now().UnixNano()
	}
	switch m.Kind {
	case "epochs":
		return fake.NewEpochSource(m.Seed, fake.EpochConfig{
			Participants: m.Participants,
			Days:         m.Days,
			Epoch:        m.Epoch,
			NullRate:     m.NullRate,
			NonWearRate:  m.NonWearRate,
		}), nil
	case "sleep":
		return fake.NewSleepSource(m.Seed, fake.SleepConfig{
			Participants: m.Participants,
			Nights:       m.Days,
			MaxFragments: m.MaxFragments,
			MaxGap:       m.MaxGap,
		}), nil
	default:
		return nil, errors.Errorf("unknown kind '%s', use epochs or sleep", m.Kind)
	}
}

// Run generates the data and writes it.
func (m *Main) Run() error {
	log, lc, err := inout.Logger(m.Verbose, "", m.Stderr)
	if err != nil {
		return err
	}
	defer lc.Close()
	src, err := m.Source()
	if err != nil {
		return err
	}
	out, oc, err := m.output(log)
	if err != nil {
		return err
	}
	defer oc.Close()
	pass := wdk.Each("pass", func(t *wdk.Table) (*wdk.Table, error) { return t, nil })
	n, err := inout.Drive(src, pass, m.GenConcurrency, out)
	if err != nil {
		return errors.Wrap(err, "generating")
	}
	log.Debugf("generated %d tables", n)
	return nil
}

func (m *Main) output(log wdk.Logger) (wdk.Operator, io.Closer, error) {
	if m.Topic == "" {
		return inout.Output(m.Out, m.Stdout, log), nopCloser{}, nil
	}
	sink := kafka.NewSink()
	sink.Hosts = m.KafkaHosts
	sink.Topic = m.Topic
	sink.Log = log
	if err := sink.Open(); err != nil {
		return nil, nil, errors.Wrap(err, "opening kafka sink")
	}
	log.Printf("publishing to kafka topic %s", m.Topic)
	return sink, sink, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

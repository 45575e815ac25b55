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

// Package dayfilter selects participants, epochs and days from epoch tables.
package dayfilter

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/days"
	"github.com/wearable-lab/wdk/filter"
	"github.com/wearable-lab/wdk/usecase/inout"
)

// Main holds the options for the filter command.
type Main struct {
	Paths           []string `help:"Comma separated list of files, directories or URLs to read."`
	Format          string   `help:"Input format: csv or json."`
	Schema          string   `help:"Column types as name:kind pairs, e.g. participant:string,timestamp:time,steps:float."`
	Retries         int      `help:"Number of tries per input resource."`
	ReadConcurrency int      `help:"Number of goroutines fetching input resources."`
	S3Bucket        string   `help:"S3 bucket to read objects from. Takes precedence over paths."`
	S3Prefix        string   `help:"Only read S3 objects with this key prefix."`
	S3Region        string   `help:"AWS region of the S3 bucket."`
	S3Endpoint      string   `help:"Custom S3 compatible endpoint."`
	KafkaHosts      []string `help:"Comma separated list of host:port pairs for Kafka."`
	Topics          []string `help:"Kafka topics to read from. Takes precedence over paths."`
	Group           string   `help:"Kafka consumer group."`
	RegistryURL     string   `help:"Confluent schema registry URL. Empty means JSON messages."`
	BatchSize       int      `help:"Number of Kafka messages per table."`
	MaxMsgs         int      `help:"Number of Kafka messages to consume before stopping. 0 means no limit."`
	Listen          string   `help:"Accept tables POSTed to this address instead of reading files."`

	Out         string `help:"Directory to write CSV output to. Empty means stdout."`
	Concurrency int    `help:"Number of tables filtered in parallel. 0 means one per CPU."`

	Participants    []string `help:"Participants selected by the participant stage. Empty disables the stage."`
	ParticipantMode string   `help:"include or exclude the selected participants."`

	EpochColumn string  `help:"Column compared by the epoch stage. Empty disables the stage."`
	EpochOp     string  `help:"Epoch comparison: <, <=, >, >=, == or !=."`
	EpochValue  float64 `help:"Value epochs are compared to."`
	EpochMode   string  `help:"include or exclude the selected epochs."`

	DayColumn    string  `help:"Column aggregated per participant day. Empty disables the day predicate."`
	DayAggregate string  `help:"Aggregate of the day column: sum, mean, min, max or count."`
	DayOp        string  `help:"Day comparison: <, <=, >, >=, == or !=."`
	DayValue     float64 `help:"Value day aggregates are compared to."`
	DayMode      string  `help:"include or exclude the selected days."`
	MinRun       int     `help:"Kept days must be in runs of consecutive days longer than this. Negative disables the run constraint."`
	MaxRun       int     `help:"Kept days must be in runs of at most this many consecutive days. 0 means no limit."`
	StartHour    int     `help:"Hour at which a calendar day starts."`

	Verbose bool   `help:"Enable verbose logging."`
	LogPath string `help:"Log file to write to. Empty means stderr."`
	Stats   bool   `help:"Print running counters to stderr."`

	Stdout io.Writer `flag:"-"`
	Stderr io.Writer `flag:"-"`
}

// NewMain returns a new Main with default values.
func NewMain() *Main {
	return &Main{
		Format:          "csv",
		Retries:         3,
		ReadConcurrency: 1,
		S3Region:        "us-east-1",
		Group:           "wdk",
		BatchSize:       1000,
		Concurrency:     1,
		ParticipantMode: "include",
		EpochOp:         ">=",
		EpochMode:       "include",
		DayAggregate:    "sum",
		DayOp:           ">=",
		DayMode:         "include",
		MinRun:          -1,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
	}
}

// Filter builds the DayFilter described by m.
func (m *Main) Filter() (*filter.DayFilter, error) {
	f := &filter.DayFilter{
		Participants: m.Participants,
		DayColumn:    m.DayColumn,
		StartHour:    m.StartHour,
	}
	var err error
	if f.ParticipantMode, err = filter.ParseMode(m.ParticipantMode); err != nil {
		return nil, errors.Wrap(err, "participant mode")
	}
	if f.EpochMode, err = filter.ParseMode(m.EpochMode); err != nil {
		return nil, errors.Wrap(err, "epoch mode")
	}
	if f.DayMode, err = filter.ParseMode(m.DayMode); err != nil {
		return nil, errors.Wrap(err, "day mode")
	}
	if m.EpochColumn != "" {
		op, err := filter.ParseComparison(m.EpochOp)
		if err != nil {
			return nil, errors.Wrap(err, "epoch comparison")
		}
		if f.Epoch, err = filter.Epoch(m.EpochColumn, op, m.EpochValue); err != nil {
			return nil, errors.Wrap(err, "epoch predicate")
		}
	}
	if m.DayColumn != "" {
		if f.DayAggregate, err = wdk.ParseAggregate(m.DayAggregate); err != nil {
			return nil, errors.Wrap(err, "day aggregate")
		}
		op, err := filter.ParseComparison(m.DayOp)
		if err != nil {
			return nil, errors.Wrap(err, "day comparison")
		}
		if f.Day, err = filter.Compare(op, m.DayValue); err != nil {
			return nil, errors.Wrap(err, "day predicate")
		}
	}
	if m.MinRun >= 0 {
		f.Consecutive = &days.Between{Min: m.MinRun, Max: m.MaxRun}
	}
	return f, nil
}

// Run reads, filters and writes every input table.
func (m *Main) Run() error {
	log, lc, err := inout.Logger(m.Verbose, m.LogPath, m.Stderr)
	if err != nil {
		return err
	}
	defer lc.Close()
	stats, sc := inout.Stats(m.Stats, m.Stderr)
	defer sc.Close()

	f, err := m.Filter()
	if err != nil {
		return err
	}
	src, closer, err := inout.Input{
		Paths:           m.Paths,
		Format:          m.Format,
		Schema:          m.Schema,
		Retries:         m.Retries,
		ReadConcurrency: m.ReadConcurrency,
		S3Bucket:        m.S3Bucket,
		S3Prefix:        m.S3Prefix,
		S3Region:        m.S3Region,
		S3Endpoint:      m.S3Endpoint,
		KafkaHosts:      m.KafkaHosts,
		Topics:          m.Topics,
		Group:           m.Group,
		RegistryURL:     m.RegistryURL,
		BatchSize:       m.BatchSize,
		MaxMsgs:         m.MaxMsgs,
		Listen:          m.Listen,
		Log:             log,
	}.Stream()
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer closer.Close()

	op := wdk.Instrument(f, f.Name(), stats, log)
	n, err := inout.Drive(src, op, m.Concurrency, inout.Output(m.Out, m.Stdout, log))
	if err != nil {
		return errors.Wrap(err, "filtering")
	}
	log.Printf("filtered %d tables", n)
	return nil
}

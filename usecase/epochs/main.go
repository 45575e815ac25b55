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

// Package epochs validates wearable epoch tables: it pseudonymizes
// participants, flags invalid epochs and days, reports what would be removed
// and optionally prunes invalid days before writing the result.
package epochs

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/geohash"
	"github.com/wearable-lab/wdk/usecase/inout"
	"github.com/wearable-lab/wdk/validate"
)

// Main holds the options for the validate command.
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
	Concurrency int    `help:"Number of tables validated in parallel. 0 means one per CPU."`
	Translator  string `help:"Participant pseudonym store: none, memory, bolt or leveldb."`
	IDPath      string `help:"File or directory of a bolt or leveldb pseudonym store."`

	Column         string  `help:"Activity column checked by the epoch and day thresholds."`
	EpochThreshold float64 `help:"Epochs with activity below this are flagged. Negative disables the check."`
	CheckNulls     bool    `help:"Flag epochs with any missing value."`
	MinEpochs      int     `help:"Days with fewer valid epochs are flagged."`
	MaxInvalid     int     `help:"Days with more flagged epochs than this are flagged. Negative disables the check."`
	DayAggregate   string  `help:"Aggregate of the activity column per day: sum, mean, min, max or count."`
	DayThreshold   float64 `help:"Days whose aggregate is below this are flagged. Negative disables the check."`
	MinDays        int     `help:"Participants with fewer valid days are flagged."`
	MinConsecutive int     `help:"Days outside runs of at least this many consecutive valid days are flagged. 0 disables the check."`
	StartHour      int     `help:"Hour at which an experiment day starts."`
	Prune          bool    `help:"Remove invalid days from the output."`

	Geohash          string `help:"Latitude and longitude columns as lat,lon to derive a geohash column from. Empty disables it."`
	GeohashPrecision int    `help:"Number of characters of the derived geohash."`

	Verbose bool   `help:"Enable verbose logging."`
	LogPath string `help:"Log file to write to. Empty means stderr."`
	Stats   bool   `help:"Print running counters to stderr."`

	Stdout io.Writer `flag:"-"`
	Stderr io.Writer `flag:"-"`
}

// NewMain returns a new Main with default values.
func NewMain() *Main {
	return &Main{
		Format:           "csv",
		Retries:          3,
		ReadConcurrency:  1,
		S3Region:         "us-east-1",
		Group:            "wdk",
		BatchSize:        1000,
		Concurrency:      1,
		Translator:       "none",
		Column:           "steps",
		EpochThreshold:   -1,
		CheckNulls:       true,
		MinEpochs:        600,
		MaxInvalid:       -1,
		DayAggregate:     "sum",
		DayThreshold:     -1,
		MinDays:          1,
		GeohashPrecision: 7,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
	}
}

func (m *Main) input(log wdk.Logger) inout.Input {
	return inout.Input{
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
	}
}

// Pipeline builds the validation pipeline applied to each table on its own.
// A nil Translator skips pseudonymization.
func (m *Main) Pipeline(tr wdk.Translator, stats wdk.Statter, log wdk.Logger) (wdk.Operator, error) {
	cfg := m.config()
	ops := make([]wdk.Operator, 0)
	add := func(op wdk.Operator) {
		ops = append(ops, wdk.Instrument(op, wdk.NameOf(op), stats, log))
	}
	if tr != nil {
		add(wdk.NewPseudonymize(tr))
	}
	if m.Geohash != "" {
		cols := strings.Split(m.Geohash, ",")
		if len(cols) != 2 || cols[0] == "" || cols[1] == "" {
			return nil, errors.Errorf("geohash columns '%s' are not lat,lon", m.Geohash)
		}
		gh := geohash.NewTransformer(m.GeohashPrecision)
		gh.Lat, gh.Lon = strings.TrimSpace(cols[0]), strings.TrimSpace(cols[1])
		add(gh)
	}
	add(wdk.Each("init", func(t *wdk.Table) (*wdk.Table, error) {
		return validate.Init(t, cfg)
	}))
	if m.CheckNulls {
		add(&validate.EpochNull{Config: cfg})
	}
	if m.EpochThreshold >= 0 {
		add(&validate.EpochThreshold{Column: m.Column, Threshold: m.EpochThreshold, Config: cfg})
	}
	if m.MinEpochs > 0 {
		add(&validate.DayValidEpochs{MinEpochs: m.MinEpochs, Config: cfg})
	}
	if m.MaxInvalid >= 0 {
		add(&validate.DayInvalidEpochs{MaxInvalid: m.MaxInvalid, Config: cfg})
	}
	if m.DayThreshold >= 0 {
		agg, err := wdk.ParseAggregate(m.DayAggregate)
		if err != nil {
			return nil, errors.Wrap(err, "parsing day aggregate")
		}
		da, err := validate.NewDayAggregate(m.Column, agg, m.DayThreshold)
		if err != nil {
			return nil, err
		}
		da.OnlyValid = true
		da.Config = cfg
		add(da)
	}
	if m.MinDays > 0 {
		add(&validate.ParticipantDays{MinDays: m.MinDays, OnlyValid: true, Config: cfg})
	}
	if m.MinConsecutive > 0 {
		add(&validate.ConsecutiveDays{MinDays: m.MinConsecutive, Config: cfg})
	}
	seq, err := wdk.NewSequence(ops...)
	return seq, errors.Wrap(err, "building validation pipeline")
}

// Finish builds the operator which runs on each batch of validated tables:
// it reports, optionally prunes and writes them. The reports are stored in
// reports, and written next to the tables when writing to a directory.
func (m *Main) Finish(reports *wdk.Variable, out wdk.Operator, log wdk.Logger) (wdk.Operator, error) {
	cfg := m.config()
	ops := []wdk.Operator{&validate.Reporter{Config: cfg, Variable: reports, Log: log}}
	if m.Prune {
		ops = append(ops, &validate.Prune{Config: cfg})
	}
	ops = append(ops, out)
	if m.Out != "" {
		ops = append(ops, wdk.OperatorFunc(func(tables ...*wdk.Table) ([]*wdk.Table, error) {
			if _, err := out.Process(reports.Tables()...); err != nil {
				return nil, errors.Wrap(err, "writing reports")
			}
			return tables, nil
		}))
	}
	seq, err := wdk.NewSequence(ops...)
	return seq, errors.Wrap(err, "building output pipeline")
}

func (m *Main) config() validate.Config {
	return validate.Config{StartHour: m.StartHour}
}

// Run reads, validates and writes every input table.
func (m *Main) Run() (err error) {
	log, lc, err := inout.Logger(m.Verbose, m.LogPath, m.Stderr)
	if err != nil {
		return err
	}
	defer lc.Close()
	stats, sc := inout.Stats(m.Stats, m.Stderr)
	defer sc.Close()

	var tr wdk.Translator
	if m.Translator != "none" {
		t, tc, err := inout.Translator(m.Translator, m.IDPath)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := tc.Close(); cerr != nil && err == nil {
				err = errors.Wrap(cerr, "closing translator")
			}
		}()
		tr = t
	}

	src, closer, err := m.input(log).Stream()
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer closer.Close()

	pipeline, err := m.Pipeline(tr, stats, log)
	if err != nil {
		return err
	}
	finish, err := m.Finish(wdk.NewVariable("reports"), inout.Output(m.Out, m.Stdout, log), log)
	if err != nil {
		return err
	}
	n, err := inout.Drive(src, pipeline, m.Concurrency, finish)
	if err != nil {
		return errors.Wrap(err, "validating")
	}
	log.Printf("validated %d tables", n)
	return nil
}

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

// Package sleep merges fragmented sleep logs: intervals of the same
// participant separated by short wake-ups are stitched into one.
package sleep

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/interval"
	"github.com/wearable-lab/wdk/usecase/inout"
)

// Main holds the options for the merge command.
type Main struct {
	Paths           []string `help:"Comma separated list of files, directories or URLs to read."`
	Format          string   `help:"Input format: csv or json."`
	Schema          string   `help:"Column types as name:kind pairs. Start and end columns must be times."`
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
	Concurrency int    `help:"Number of tables merged in parallel. 0 means one per CPU."`
	Translator  string `help:"Participant pseudonym store: none, memory, bolt or leveldb."`
	IDPath      string `help:"File or directory of a bolt or leveldb pseudonym store."`

	Variant      string        `help:"fragments merges intervals up to and including the next long gap, fill starts a new run at every interval followed by a long gap."`
	Gap          time.Duration `help:"Largest gap which still counts as the same sleep."`
	Start        string        `help:"Interval start column."`
	End          string        `help:"Interval end column."`
	Aggregations []string      `help:"Columns combined over merged intervals as column:aggregate pairs, e.g. steps:sum."`
	GapColumn    string        `help:"Column receiving the gap in seconds attached to each merged interval. Empty disables it."`

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
		Schema:          "participant:string,start:time,end:time",
		Retries:         3,
		ReadConcurrency: 1,
		S3Region:        "us-east-1",
		Group:           "wdk",
		BatchSize:       1000,
		Concurrency:     1,
		Translator:      "none",
		Variant:         "fragments",
		Gap:             30 * time.Minute,
		Start:           "start",
		End:             "end",
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
	}
}

// ParseAggregations parses column:aggregate pairs.
func ParseAggregations(specs []string) ([]interval.Aggregation, error) {
	aggs := make([]interval.Aggregation, 0, len(specs))
	for _, spec := range specs {
		ca := strings.SplitN(spec, ":", 2)
		if len(ca) != 2 || ca[0] == "" {
			return nil, errors.Errorf("aggregation '%s' is not column:aggregate", spec)
		}
		agg, err := wdk.ParseAggregate(ca[1])
		if err != nil {
			return nil, errors.Wrapf(err, "aggregation of '%s'", ca[0])
		}
		aggs = append(aggs, interval.Aggregation{Column: ca[0], Func: agg})
	}
	return aggs, nil
}

// Merger returns the configured merge operator.
func (m *Main) Merger() (wdk.Operator, error) {
	aggs, err := ParseAggregations(m.Aggregations)
	if err != nil {
		return nil, err
	}
	cfg := interval.Config{
		Start:        m.Start,
		End:          m.End,
		Gap:          m.Gap,
		Aggregations: aggs,
		GapColumn:    m.GapColumn,
	}
	switch m.Variant {
	case "fragments":
		return &interval.MergeFragments{Config: cfg}, nil
	case "fill":
		return &interval.FillGaps{Config: cfg}, nil
	default:
		return nil, errors.Errorf("unknown variant '%s', use fragments or fill", m.Variant)
	}
}

// Run reads, merges and writes every input table.
func (m *Main) Run() (err error) {
	log, lc, err := inout.Logger(m.Verbose, m.LogPath, m.Stderr)
	if err != nil {
		return err
	}
	defer lc.Close()
	stats, sc := inout.Stats(m.Stats, m.Stderr)
	defer sc.Close()

	merger, err := m.Merger()
	if err != nil {
		return err
	}
	ops := make([]wdk.Operator, 0, 2)
	if m.Translator != "none" {
		tr, tc, err := inout.Translator(m.Translator, m.IDPath)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := tc.Close(); cerr != nil && err == nil {
				err = errors.Wrap(cerr, "closing translator")
			}
		}()
		ops = append(ops, wdk.Instrument(wdk.NewPseudonymize(tr), "pseudonymize", stats, log))
	}
	ops = append(ops, wdk.Instrument(merger, wdk.NameOf(merger), stats, log))
	pipeline, err := wdk.NewSequence(ops...)
	if err != nil {
		return errors.Wrap(err, "building merge pipeline")
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

	n, err := inout.Drive(src, pipeline, m.Concurrency, inout.Output(m.Out, m.Stdout, log))
	if err != nil {
		return errors.Wrap(err, "merging")
	}
	log.Printf("merged %d tables", n)
	return nil
}

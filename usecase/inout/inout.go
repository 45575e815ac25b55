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

// Package inout wires the readers, sinks, translators and loggers shared by
// the command line usecases.
package inout

import (
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/aws/s3"
	"github.com/wearable-lab/wdk/boltdb"
	"github.com/wearable-lab/wdk/csv"
	"github.com/wearable-lab/wdk/file"
	"github.com/wearable-lab/wdk/http"
	wdkjson "github.com/wearable-lab/wdk/json"
	"github.com/wearable-lab/wdk/kafka"
	"github.com/wearable-lab/wdk/leveldb"
	"github.com/wearable-lab/wdk/termstat"
)

// Input describes where tables come from. S3 takes precedence over Kafka,
// then over an HTTP listener, then over local or HTTP paths.
type Input struct {
	Paths  []string
	Format string
	Schema string
	// TableName names every table; by default tables are named after their
	// file.
	TableName       string
	Retries         int
	ReadConcurrency int

	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string

	KafkaHosts  []string
	Topics      []string
	Group       string
	RegistryURL string
	BatchSize   int
	MaxMsgs     int

	// Listen is an address to accept POSTed tables on, one table per
	// request body.
	Listen string

	Log wdk.Logger
}

// Stream opens the configured input. The returned Closer must be closed once
// the stream is no longer needed.
func (in Input) Stream() (wdk.Stream, io.Closer, error) {
	fields, err := wdk.ParseSchema(in.Schema)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing schema")
	}
	logger := in.Log
	if logger == nil {
		logger = wdk.NopLogger{}
	}
	if in.S3Bucket == "" && len(in.Topics) > 0 {
		return in.kafkaStream(fields, logger)
	}
	if in.S3Bucket == "" && in.Listen != "" {
		return in.httpStream(fields, logger)
	}

	var openers []wdk.OpenStringer
	if in.S3Bucket != "" {
		src, err := s3.NewSource(
			s3.OptSrcBucket(in.S3Bucket),
			s3.OptSrcPrefix(in.S3Prefix),
			s3.OptSrcRegion(in.S3Region),
			s3.OptSrcEndpoint(in.S3Endpoint),
		)
		if err != nil {
			return nil, nil, errors.Wrap(err, "listing s3 objects")
		}
		openers = src.Openers()
	} else {
		if len(in.Paths) == 0 {
			return nil, nil, errors.New("no input: set paths, an s3 bucket or kafka topics")
		}
		openers, err = file.Openers(in.Paths...)
		if err != nil {
			return nil, nil, errors.Wrap(err, "finding input files")
		}
	}
	logger.Printf("reading %d resources", len(openers))

	switch in.Format {
	case "", "csv":
		src := csv.NewSource(
			csv.WithOpenStringers(openers),
			csv.WithDecoder(&csv.Decoder{Fields: fields}),
			csv.WithTableName(in.TableName),
			csv.WithMaxRetries(in.Retries),
			csv.WithConcurrency(in.ReadConcurrency),
			csv.WithLogger(logger),
		)
		return src, nopCloser{}, nil
	case "json":
		return &decodeStream{
			openers: openers,
			decoder: &wdkjson.Decoder{Fields: fields},
			name:    in.TableName,
		}, nopCloser{}, nil
	default:
		return nil, nil, errors.Errorf("unknown format '%s', use csv or json", in.Format)
	}
}

func (in Input) kafkaStream(fields []wdk.Field, logger wdk.Logger) (wdk.Stream, io.Closer, error) {
	src := kafka.NewSource()
	if len(in.KafkaHosts) > 0 {
		src.Hosts = in.KafkaHosts
	}
	src.Topics = in.Topics
	if in.Group != "" {
		src.Group = in.Group
	}
	if in.RegistryURL != "" {
		src.Codec = kafka.NewConfluentCodec(in.RegistryURL)
	}
	if in.TableName != "" {
		src.TableName = in.TableName
	}
	if in.BatchSize > 0 {
		src.BatchSize = in.BatchSize
	}
	src.MaxMsgs = in.MaxMsgs
	src.Fields = fields
	src.Log = logger
	if err := src.Open(); err != nil {
		return nil, nil, errors.Wrap(err, "opening kafka source")
	}
	return src, src, nil
}

func (in Input) httpStream(fields []wdk.Field, logger wdk.Logger) (wdk.Stream, io.Closer, error) {
	var dec wdk.Decoder
	switch in.Format {
	case "", "json":
		dec = &wdkjson.Decoder{Fields: fields}
	case "csv":
		dec = &csv.Decoder{Fields: fields}
	default:
		return nil, nil, errors.Errorf("unknown format '%s', use csv or json", in.Format)
	}
	src, err := http.NewSource(http.WithAddr(in.Listen), http.WithDecoder(dec), http.WithLogger(logger))
	if err != nil {
		return nil, nil, errors.Wrap(err, "starting http source")
	}
	logger.Printf("listening on %s", src.Addr())
	return src, src, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// decodeStream reads one table per opener, in order.
type decodeStream struct {
	openers []wdk.OpenStringer
	decoder wdk.Decoder
	name    string
	pos     int
}

func (s *decodeStream) Next() (*wdk.Table, error) {
	if s.pos >= len(s.openers) {
		return nil, io.EOF
	}
	o := s.openers[s.pos]
	s.pos++
	rc, err := o.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "opening '%s'", o)
	}
	defer rc.Close()
	name := s.name
	if name == "" {
		name = baseName(o.String())
	}
	t, err := s.decoder.Decode(rc, name)
	return t, errors.Wrapf(err, "decoding '%s'", o)
}

func baseName(loc string) string {
	base := path.Base(loc)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Output returns the operator which writes results: CSV files in dir, or CSV
// on w when dir is empty.
func Output(dir string, w io.Writer, logger wdk.Logger) wdk.Operator {
	if dir != "" {
		return &csv.Sink{Dir: dir, Log: logger}
	}
	return wdk.Each("csv-out", func(t *wdk.Table) (*wdk.Table, error) {
		if _, err := fmt.Fprintf(w, "# %s\n", t.Name); err != nil {
			return nil, errors.Wrap(err, "writing table name")
		}
		return t, csv.Write(w, t)
	})
}

// Translator builds the Translator named by kind: "memory", "bolt" or
// "leveldb". Persistent translators keep their data at p.
func Translator(kind, p string) (wdk.Translator, io.Closer, error) {
	switch kind {
	case "", "memory":
		return wdk.NewMapTranslator(), nopCloser{}, nil
	case "bolt":
		if p == "" {
			p = "wdk-ids.db"
		}
		bt, err := boltdb.NewTranslator(p, wdk.DefaultKeys.Participant)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening bolt translator")
		}
		return bt, bt, nil
	case "leveldb":
		if p == "" {
			p = "wdk-ids"
		}
		lt, err := leveldb.NewTranslator(p, wdk.DefaultKeys.Participant)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening leveldb translator")
		}
		return lt, lt, nil
	default:
		return nil, nil, errors.Errorf("unknown translator '%s', use memory, bolt or leveldb", kind)
	}
}

// Logger returns a logger writing to logPath, or stderr if it is empty.
// Verbose enables Debugf.
func Logger(verbose bool, logPath string, stderr io.Writer) (wdk.Logger, io.Closer, error) {
	var w io.Writer = stderr
	var c io.Closer = nopCloser{}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening log file")
		}
		w, c = f, f
	}
	l := log.New(w, "", log.LstdFlags)
	if verbose {
		return wdk.VerboseLogger{Logger: l}, c, nil
	}
	return wdk.StdLogger{Logger: l}, c, nil
}

// Stats returns a terminal Collector writing to w if enabled, and a
// NopStatter otherwise.
func Stats(enabled bool, w io.Writer) (wdk.Statter, io.Closer) {
	if !enabled {
		return wdk.NopStatter{}, nopCloser{}
	}
	c := termstat.NewCollector(w)
	return c, c
}

// Drive pulls tables from s, runs op over up to concurrency of them at a time
// with a wdk.Map and hands the results to sink. A concurrency below one means
// one table per CPU. It returns the number of tables processed.
func Drive(s wdk.Stream, op wdk.Operator, concurrency int, sink wdk.Operator) (int, error) {
	if concurrency < 1 {
		concurrency = runtime.NumCPU()
	}
	m, err := wdk.NewMap(op, wdk.OptMapConcurrency(concurrency))
	if err != nil {
		return 0, errors.Wrap(err, "building map")
	}
	n := 0
	done := false
	for !done {
		batch := make([]*wdk.Table, 0, concurrency)
		for len(batch) < concurrency {
			t, err := s.Next()
			if err == io.EOF {
				done = true
				break
			} else if err != nil {
				return n, errors.Wrapf(err, "reading table %d", n+len(batch))
			}
			batch = append(batch, t)
		}
		if len(batch) == 0 {
			break
		}
		out, err := m.Process(batch...)
		if err != nil {
			return n, err
		}
		if _, err := sink.Process(out...); err != nil {
			return n, errors.Wrap(err, "writing output")
		}
		n += len(batch)
	}
	return n, nil
}

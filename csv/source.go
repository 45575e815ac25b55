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

// Package csv reads and writes epoch and interval tables as CSV with a header
// line.
package csv

import (
	"encoding/csv"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/file"
)

// Decoder turns CSV content into a table. Columns named in Fields are parsed
// with the field's Parser; every other column is kept as strings. Empty cells
// are missing values.
type Decoder struct {
	Fields []wdk.Field
	Keys   wdk.Keys
	Comma  rune
}

// Decode implements wdk.Decoder.
func (d *Decoder) Decode(r io.Reader, name string) (*wdk.Table, error) {
	reader := csv.NewReader(r)
	if d.Comma != 0 {
		reader.Comma = d.Comma
	}
	header, err := reader.Read()
	if err == io.EOF {
		return nil, wdk.NewValidationError("csv", "'%s' has no header", name)
	} else if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := validateHeader(header); err != nil {
		return nil, wdk.NewValidationError("csv", "%v", err)
	}

	parsers := make([]wdk.Parser, len(header))
	kinds := make([]wdk.Kind, len(header))
	for i := range header {
		parsers[i], kinds[i] = wdk.StringParser{}, wdk.KindString
	}
	for _, f := range d.Fields {
		pos := indexOf(header, f.Name)
		if pos < 0 {
			return nil, &wdk.MissingColumnError{Operator: "csv", Table: name, Column: f.Name}
		}
		parsers[pos], kinds[pos] = f.Parser, f.Kind
	}

	values := make([][]interface{}, len(header))
	line := 1
	var row []string
	for row, err = reader.Read(); err == nil; row, err = reader.Read() {
		line++
		for i, field := range row {
			if strings.TrimSpace(field) == "" {
				values[i] = append(values[i], nil)
				continue
			}
			v, err := parsers[i].Parse(strings.TrimSpace(field))
			if err != nil {
				return nil, wdk.NewValidationError("csv", "%s line %d column '%s': %v", name, line, header[i], err)
			}
			values[i] = append(values[i], v)
		}
	}
	if pe, ok := err.(*csv.ParseError); ok {
		return nil, wdk.NewValidationError("csv", "%s: %v", name, pe)
	} else if err != io.EOF {
		return nil, errors.Wrapf(err, "reading csv, record %v", row)
	}

	t, err := wdk.NewTable(name)
	if err != nil {
		return nil, err
	}
	if d.Keys != (wdk.Keys{}) {
		t.Keys = d.Keys
	}
	for i, h := range header {
		vals := values[i]
		if vals == nil {
			vals = make([]interface{}, 0)
		}
		if err := t.SetColumn(h, kinds[i], vals); err != nil {
			return nil, errors.Wrapf(err, "building column '%s'", h)
		}
	}
	return t, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func validateHeader(header []string) error {
	fields := make(map[string]int)
	for i, h := range header {
		if h == "" {
			return errors.Errorf("header contains empty string at %d: %v", i, header)
		}
		if pos, exists := fields[h]; exists {
			return errors.Errorf("%s appeared at both %d and %d in header", h, pos, i)
		}
		fields[h] = i
	}
	return nil
}

// NewReader returns a wdk.Reader for CSV files and URLs.
func NewReader(d *Decoder) wdk.Reader {
	return file.Reader{Decoder: d}
}

// Source is a wdk.Stream returning one table per CSV resource. Source takes
// care of retrying failed reads/downloads; content which doesn't parse is not
// retried. With a concurrency above 1 tables are returned in the order they
// finish.
type Source struct {
	files       []wdk.OpenStringer
	decoder     *Decoder
	name        string
	maxRetries  int
	concurrency int
	log         wdk.Logger

	once   sync.Once
	tables chan result
}

type result struct {
	t   *wdk.Table
	err error
}

// Option is a functional option to pass to NewSource.
type Option func(*Source)

// WithURLs returns an Option which adds the URLs to the set of resources a
// Source will read from. The URLs may be HTTP or local files.
func WithURLs(urls []string) Option {
	return func(s *Source) {
		for _, url := range urls {
			s.files = append(s.files, file.Opener(url))
		}
	}
}

// WithOpenStringers returns an Option which adds the slice of OpenStringers to
// the set of resources a Source will read from.
func WithOpenStringers(os []wdk.OpenStringer) Option {
	return func(s *Source) {
		s.files = append(s.files, os...)
	}
}

// WithDecoder sets the Decoder used for every resource.
func WithDecoder(d *Decoder) Option {
	return func(s *Source) {
		s.decoder = d
	}
}

// WithTableName names every table read. By default a table is named after its
// resource, without directory or extension.
func WithTableName(name string) Option {
	return func(s *Source) {
		s.name = name
	}
}

// WithMaxRetries returns an Option which sets the max number of tries per
// resource on a Source.
func WithMaxRetries(maxRetries int) Option {
	return func(s *Source) {
		if maxRetries > 0 {
			s.maxRetries = maxRetries
		}
	}
}

// WithConcurrency returns an Option which sets the number of goroutines fetching
// resources simultaneously.
func WithConcurrency(c int) Option {
	return func(s *Source) {
		if c > 0 {
			s.concurrency = c
		}
	}
}

// WithLogger sets the Logger retries are reported to.
func WithLogger(l wdk.Logger) Option {
	return func(s *Source) {
		s.log = l
	}
}

// NewSource creates a Source. The source of the raw data can be set by using
// Options defined in this package. e.g.
//
// src := NewSource(WithURLs([]string{"day1.csv", "http://example.com/day2.csv"}))
func NewSource(options ...Option) *Source {
	s := &Source{
		decoder:     &Decoder{},
		maxRetries:  3,
		concurrency: 1,
		log:         wdk.NopLogger{},
		tables:      make(chan result),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Next implements wdk.Stream.
func (s *Source) Next() (*wdk.Table, error) {
	s.once.Do(func() { go s.getTables() })
	res, ok := <-s.tables
	if !ok {
		return nil, io.EOF
	}
	return res.t, res.err
}

func (s *Source) getTables() {
	fileChan := make(chan wdk.OpenStringer, s.concurrency)
	wg := sync.WaitGroup{}
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			for f := range fileChan {
				s.getTable(f)
			}
			wg.Done()
		}()
	}
	for _, f := range s.files {
		fileChan <- f
	}
	close(fileChan)
	wg.Wait()
	close(s.tables)
}

func (s *Source) getTable(f wdk.OpenStringer) {
	var err error
	for try := 0; try < s.maxRetries; try++ {
		var t *wdk.Table
		t, err = s.getTableTry(f)
		if err == nil {
			s.tables <- result{t: t}
			return
		}
		if wdk.IsValidation(err) || wdk.IsMissingColumn(err) {
			s.tables <- result{err: errors.Wrapf(err, "decoding '%s'", f)}
			return // error is permanent so we don't retry
		}
		s.log.Printf("reading '%s' failed (try %d of %d): %v", f, try+1, s.maxRetries, err)
	}
	s.tables <- result{err: errors.Wrapf(err, "couldn't fetch '%s' - tried %d times, latest", f, s.maxRetries)}
}

func (s *Source) getTableTry(f wdk.OpenStringer) (*wdk.Table, error) {
	content, err := f.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening")
	}
	defer content.Close()
	return s.decoder.Decode(content, s.tableName(f))
}

func (s *Source) tableName(f wdk.OpenStringer) string {
	if s.name != "" {
		return s.name
	}
	base := path.Base(f.String())
	return strings.TrimSuffix(base, path.Ext(base))
}

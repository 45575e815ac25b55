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

// Package http receives tables pushed to an HTTP endpoint.
package http

import (
	"io"
	"net"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/json"
)

// Source implements wdk.Stream by listening for HTTP POST requests. The body
// of each request is decoded into one table, named by the "name" query
// parameter or else by the last element of the request path.
type Source struct {
	addr     string
	listener net.Listener
	server   *http.Server
	decoder  wdk.Decoder
	log      wdk.Logger
	tables   chan result

	closeOnce sync.Once
	done      chan struct{}
}

// WithAddr is an option for the Source which causes it to bind to the given
// address.
func WithAddr(addr string) SourceOption {
	return func(s *Source) {
		s.addr = addr
	}
}

// WithListener is an option for Source which causes it to use the given
// listener. It will infer the address from the listener.
func WithListener(l net.Listener) SourceOption {
	return func(s *Source) {
		s.listener = l
		s.addr = l.Addr().String()
	}
}

// WithBuffer is an option for Source which modifies the length of the
// channel used to buffer received tables (while they are waiting to be
// retrieved by a call to Next).
func WithBuffer(n int) SourceOption {
	return func(s *Source) {
		if n > -1 {
			s.tables = make(chan result, n)
		}
	}
}

// WithDecoder sets the decoder for request bodies. The default decodes json
// objects.
func WithDecoder(d wdk.Decoder) SourceOption {
	return func(s *Source) {
		s.decoder = d
	}
}

// WithLogger sets the logger for rejected requests.
func WithLogger(l wdk.Logger) SourceOption {
	return func(s *Source) {
		s.log = l
	}
}

// SourceOption is a functional option type for Source.
type SourceOption func(s *Source)

// NewSource creates a Source and starts serving.
func NewSource(opts ...SourceOption) (*Source, error) {
	s := &Source{
		tables:  make(chan result, 3),
		decoder: &json.Decoder{},
		log:     wdk.NopLogger{},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.listener == nil {
		var err error
		s.listener, err = net.Listen("tcp", s.addr)
		if err != nil {
			return nil, errors.Wrap(err, "listening")
		}
	}
	if tl, ok := s.listener.(*net.TCPListener); ok {
		s.listener = tcpKeepAliveListener{tl}
	}

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s,
	}
	go func() {
		err := s.server.Serve(s.listener)
		if err != nil && err != http.ErrServerClosed {
			s.push(result{err: errors.Wrap(err, "serving")})
		}
	}()
	return s, nil
}

// Addr gets the address that the Source is listening on.
func (s *Source) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

type result struct {
	table *wdk.Table
	err   error
}

// Next returns the next received table. It blocks until a request arrives
// and returns io.EOF once the Source is closed.
func (s *Source) Next() (*wdk.Table, error) {
	select {
	case res := <-s.tables:
		return res.table, res.err
	case <-s.done:
		return nil, io.EOF
	}
}

// Close stops the server. Tables not yet retrieved are dropped.
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.server != nil {
			err = s.server.Close()
		}
	})
	return errors.Wrap(err, "closing server")
}

func (s *Source) push(res result) bool {
	select {
	case s.tables <- res:
		return true
	case <-s.done:
		return false
	}
}

// ServeHTTP implements http.Handler for Source.
func (s *Source) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		err := errors.Errorf("unsupported method: %v", r.Method)
		s.log.Printf("rejecting request from %s: %v", r.RemoteAddr, err)
		http.Error(w, err.Error(), http.StatusMethodNotAllowed)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = path.Base(r.URL.Path)
	}
	if name == "" || name == "/" || name == "." {
		name = "http"
	}
	t, err := s.decoder.Decode(r.Body, name)
	if err != nil {
		err = errors.Wrap(err, "decoding body")
		s.log.Printf("rejecting request from %s: %v", r.RemoteAddr, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.push(result{table: t}) {
		http.Error(w, "source closed", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// tcpKeepAliveListener is copied from net/http

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}

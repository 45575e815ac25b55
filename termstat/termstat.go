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

// Package termstat provides a wdk.Statter which keeps pipeline counters in
// memory and periodically rewrites them on a single terminal line.
package termstat

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/wearable-lab/wdk"
)

var _ wdk.Statter = &Collector{}

// Collector accumulates counts, the latest gauges and total timings.
type Collector struct {
	lock    sync.Mutex
	indexes map[string]int
	names   []string
	counts  map[string]int64
	gauges  map[string]float64
	timings map[string]time.Duration
	changed bool
	out     io.Writer

	stop chan struct{}
	done chan struct{}
}

// NewCollector gets a Collector which writes to out every two seconds until
// Close is called.
func NewCollector(out io.Writer) *Collector {
	return NewCollectorInterval(out, time.Second*2)
}

// NewCollectorInterval is NewCollector with a custom write interval.
func NewCollectorInterval(out io.Writer, every time.Duration) *Collector {
	ts := &Collector{
		indexes: make(map[string]int),
		counts:  make(map[string]int64),
		gauges:  make(map[string]float64),
		timings: make(map[string]time.Duration),
		out:     out,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(ts.done)
		tick := time.NewTicker(every)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				ts.write()
			case <-ts.stop:
				return
			}
		}
	}()
	return ts
}

// Close stops the background writer and writes the final values followed by
// a newline.
func (t *Collector) Close() error {
	close(t.stop)
	<-t.done
	t.lock.Lock()
	t.changed = true
	t.lock.Unlock()
	t.write()
	_, err := fmt.Fprintln(t.out)
	return err
}

// register must be called with the lock held.
func (t *Collector) register(name string) {
	t.changed = true
	if _, ok := t.indexes[name]; !ok {
		t.indexes[name] = len(t.names)
		t.names = append(t.names, name)
	}
}

func sampled(rate float64) bool {
	return rate >= 1 || rand.Float64() <= rate
}

// Count implements wdk.Statter.
func (t *Collector) Count(name string, value int64, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.register(name)
	if !sampled(rate) {
		return
	}
	t.counts[name] += value
}

// Gauge implements wdk.Statter, keeping the latest value.
func (t *Collector) Gauge(name string, value float64, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.register(name)
	t.gauges[name] = value
}

// Histogram implements wdk.Statter. Histograms are not displayed.
func (t *Collector) Histogram(name string, value float64, rate float64, tags ...string) {}

// Set implements wdk.Statter. Sets are not displayed.
func (t *Collector) Set(name string, value string, rate float64, tags ...string) {}

// Timing implements wdk.Statter, accumulating the total duration.
func (t *Collector) Timing(name string, value time.Duration, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.register(name)
	t.timings[name] += value
}

// Snapshot returns the current line of stats.
func (t *Collector) Snapshot() string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.line()
}

func (t *Collector) line() string {
	sb := strings.Builder{}
	for i, name := range t.names {
		if i > 0 {
			sb.WriteString(" ")
		}
		switch {
		case t.timings[name] > 0:
			fmt.Fprintf(&sb, "%s: %v", name, t.timings[name].Round(time.Millisecond))
		case t.gauges[name] != 0:
			fmt.Fprintf(&sb, "%s: %g", name, t.gauges[name])
		default:
			fmt.Fprintf(&sb, "%s: %d", name, t.counts[name])
		}
	}
	return sb.String()
}

func (t *Collector) write() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if !t.changed {
		return
	}
	t.changed = false
	fmt.Fprint(t.out, "\r"+t.line())
}

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

package kafka

import (
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
	"github.com/wearable-lab/wdk/test"
)

type fakeProducer struct {
	msgs   []*sarama.ProducerMessage
	err    error
	closed bool
}

func (p *fakeProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *fakeProducer) Close() error {
	p.closed = true
	return nil
}

func TestSinkRoundTrip(t *testing.T) {
	t0 := time.Date(2018, 1, 1, 8, 0, 0, 0, time.UTC)
	in := test.MustTable(t, "epochs",
		wdk.NewColumn("participant", "a", "b"),
		wdk.NewColumn("timestamp", t0, t0.Add(time.Minute)),
		wdk.NewColumn("steps", int64(4), nil),
	)
	p := &fakeProducer{}
	sink := NewSink()
	sink.OpenWith(p)
	out, err := sink.Process(in)
	test.ErrNil(t, err, "Process")
	test.MustBe(t, []*wdk.Table{in}, out)
	test.MustBe(t, 2, len(p.msgs))

	values := make([]string, len(p.msgs))
	for i, msg := range p.msgs {
		test.MustBe(t, "epochs", msg.Topic)
		val, err := msg.Value.Encode()
		test.ErrNil(t, err, "encoding value")
		values[i] = string(val)
	}
	key, err := p.msgs[1].Key.Encode()
	test.ErrNil(t, err, "encoding key")
	test.MustBe(t, "b", string(key))
	test.MustBe(t, `{"participant":"a","steps":4,"timestamp":1514793600000}`, values[0])

	fields, err := wdk.ParseSchema("participant:string,timestamp:time,steps:int")
	test.ErrNil(t, err, "ParseSchema")
	c := newFakeConsumer(values...)
	close(c.msgs)
	src := NewSource()
	src.Fields = fields
	src.OpenWith(c)
	back, err := src.Next()
	test.ErrNil(t, err, "Next")
	test.MustBe(t, []interface{}{t0, t0.Add(time.Minute)}, test.Values(t, back, "timestamp"))
	test.MustBe(t, []interface{}{int64(4), nil}, test.Values(t, back, "steps"))

	test.ErrNil(t, sink.Close(), "Close")
	test.MustBe(t, true, p.closed)
}

func TestSinkErrors(t *testing.T) {
	sink := NewSink()
	if _, err := sink.Process(); err == nil {
		t.Fatalf("expected error from unopened sink")
	}
	sink.OpenWith(&fakeProducer{err: errors.New("broker down")})
	in := test.MustTable(t, "x", wdk.NewColumn("participant", "a"))
	if _, err := sink.Process(in); err == nil {
		t.Fatalf("expected send error")
	}
	sink.OpenWith(&fakeProducer{})
	if _, err := sink.Process((*wdk.Table)(nil)); !wdk.IsValidation(err) {
		t.Fatalf("expected validation error for nil table, got %v", err)
	}
}

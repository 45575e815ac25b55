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
	"encoding/json"
	"time"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// Producer is the part of sarama.SyncProducer used by Sink.
type Producer interface {
	SendMessages(msgs []*sarama.ProducerMessage) error
	Close() error
}

// Sink is a wdk.Operator which publishes every row of its input tables as a
// json message and passes the tables through unchanged. Time values are
// written as Unix milliseconds so that a Source with a matching schema reads
// them back.
type Sink struct {
	Hosts []string
	Topic string
	// Key names the column used as message key. Empty means no key.
	Key string
	Log wdk.Logger

	producer Producer
}

// NewSink gets a new Sink.
func NewSink() *Sink {
	return &Sink{
		Hosts: []string{"localhost:9092"},
		Topic: "epochs",
		Key:   wdk.DefaultKeys.Participant,
		Log:   wdk.NopLogger{},
	}
}

// Open connects a synchronous producer.
func (s *Sink) Open() error {
	conf := sarama.NewConfig()
	conf.Version = sarama.V0_10_0_0
	conf.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(s.Hosts, conf)
	if err != nil {
		return errors.Wrap(err, "getting new producer")
	}
	s.producer = producer
	return nil
}

// OpenWith uses an existing producer instead of connecting.
func (s *Sink) OpenWith(p Producer) {
	s.producer = p
}

// Process implements wdk.Operator.
func (s *Sink) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	if s.producer == nil {
		return nil, errors.New("kafka sink is not open")
	}
	for _, t := range tables {
		if t == nil {
			return nil, wdk.NewValidationError("kafka-sink", "nil table")
		}
		msgs := make([]*sarama.ProducerMessage, t.Len())
		for i := range msgs {
			msg, err := s.message(t, i)
			if err != nil {
				return nil, errors.Wrapf(err, "encoding row %d of '%s'", i, t.Name)
			}
			msgs[i] = msg
		}
		if len(msgs) == 0 {
			continue
		}
		if err := s.producer.SendMessages(msgs); err != nil {
			return nil, errors.Wrapf(err, "sending '%s'", t.Name)
		}
		if s.Log != nil {
			s.Log.Debugf("kafka: sent %d messages from '%s' to %s", len(msgs), t.Name, s.Topic)
		}
	}
	return tables, nil
}

func (s *Sink) message(t *wdk.Table, i int) (*sarama.ProducerMessage, error) {
	rec := make(map[string]interface{}, len(t.Columns()))
	for _, name := range t.Columns() {
		v := t.Value(name, i)
		if wdk.IsNull(v) {
			continue
		}
		if tm, ok := v.(time.Time); ok {
			v = tm.UnixNano() / int64(time.Millisecond)
		}
		rec[name] = v
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	msg := &sarama.ProducerMessage{Topic: s.Topic, Value: sarama.ByteEncoder(val)}
	if s.Key != "" {
		if k, ok := t.Row(i).String(s.Key); ok {
			msg.Key = sarama.StringEncoder(k)
		}
	}
	return msg, nil
}

// Close closes the underlying producer.
func (s *Sink) Close() error {
	if s.producer == nil {
		return nil
	}
	return errors.Wrap(s.producer.Close(), "closing kafka producer")
}

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

// Package kafka consumes wearable records from kafka topics and batches them
// into tables.
package kafka

import (
	"io"
	"io/ioutil"
	"log"
	"time"

	"github.com/Shopify/sarama"
	cluster "github.com/bsm/sarama-cluster"
	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// Consumer is the part of a sarama-cluster consumer a Source uses.
type Consumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	MarkOffset(msg *sarama.ConsumerMessage, metadata string)
	Close() error
}

// Source implements wdk.Stream using kafka as a data source. Each call to Next
// returns a table built from up to BatchSize messages; a partial batch is
// returned once BatchTimeout passes without a new message. Offsets are marked
// only after the messages made it into a table.
type Source struct {
	Hosts        []string
	Topics       []string
	Group        string
	Codec        Codec
	Fields       []wdk.Field
	TableName    string
	BatchSize    int
	BatchTimeout time.Duration
	MaxMsgs      int
	Log          wdk.Logger

	numMsgs  int
	consumer Consumer
}

// NewSource gets a new Source
func NewSource() *Source {
	return &Source{
		Hosts:        []string{"localhost:9092"},
		Topics:       []string{"epochs"},
		Group:        "wdk",
		Codec:        JSONCodec{},
		TableName:    "epochs",
		BatchSize:    1000,
		BatchTimeout: time.Second,
		Log:          wdk.NopLogger{},
	}
}

// Open initializes the kafka consumer.
func (s *Source) Open() error {
	// init (custom) config, enable errors and notifications
	sarama.Logger = log.New(ioutil.Discard, "", 0)
	config := cluster.NewConfig()
	config.Config.Version = sarama.V0_10_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Group.Return.Notifications = true

	consumer, err := cluster.NewConsumer(s.Hosts, s.Group, s.Topics, config)
	if err != nil {
		return errors.Wrap(err, "getting new consumer")
	}

	// consume errors
	go func() {
		for err := range consumer.Errors() {
			s.logger().Printf("kafka error: %v", err)
		}
	}()

	// consume notifications
	go func() {
		for ntf := range consumer.Notifications() {
			s.logger().Debugf("rebalanced: %+v", ntf)
		}
	}()
	s.consumer = consumer
	return nil
}

// OpenWith uses an existing consumer instead of connecting.
func (s *Source) OpenWith(c Consumer) {
	s.consumer = c
}

func (s *Source) logger() wdk.Logger {
	if s.Log == nil {
		return wdk.NopLogger{}
	}
	return s.Log
}

// Next implements wdk.Stream. It returns io.EOF once MaxMsgs messages have
// been consumed or the consumer is closed.
func (s *Source) Next() (*wdk.Table, error) {
	if s.consumer == nil {
		return nil, errors.New("kafka source is not open")
	}
	size := s.BatchSize
	if size <= 0 {
		size = 1000
	}
	msgs := make([]*sarama.ConsumerMessage, 0, size)
	var timer *time.Timer
	var timeout <-chan time.Time
	if s.BatchTimeout > 0 {
		timer = time.NewTimer(s.BatchTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
collect:
	for len(msgs) < size {
		if s.MaxMsgs > 0 && s.numMsgs >= s.MaxMsgs {
			break
		}
		select {
		case msg, ok := <-s.consumer.Messages():
			if !ok {
				break collect
			}
			msgs = append(msgs, msg)
			s.numMsgs++
		case <-timeout:
			if len(msgs) > 0 {
				break collect
			}
			timer.Reset(s.BatchTimeout)
		}
	}
	if len(msgs) == 0 {
		return nil, io.EOF
	}

	recs := make([]map[string]interface{}, len(msgs))
	for i, msg := range msgs {
		rec, err := s.Codec.Decode(msg.Value)
		if err != nil {
			return nil, wdk.NewValidationError("kafka", "%s/%d offset %d: %v", msg.Topic, msg.Partition, msg.Offset, err)
		}
		recs[i] = rec
	}
	t, err := wdk.FromRecords(s.TableName, recs, s.Fields)
	if err != nil {
		return nil, errors.Wrap(err, "building table from messages")
	}
	for _, msg := range msgs {
		s.consumer.MarkOffset(msg, "") // mark message as processed
	}
	s.logger().Debugf("kafka: built '%s' from %d messages", s.TableName, len(msgs))
	return t, nil
}

// Close closes the underlying kafka consumer.
func (s *Source) Close() error {
	if s.consumer == nil {
		return nil
	}
	err := s.consumer.Close()
	return errors.Wrap(err, "closing kafka consumer")
}

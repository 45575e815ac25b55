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

// Package s3 lists and opens objects in an S3 bucket so that they can be read
// by the csv and json packages.
package s3

import (
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// SrcOption is a functional option type for s3.Source.
type SrcOption func(s *Source)

// OptSrcBucket is a SrcOption which sets the S3 bucket for a Source.
func OptSrcBucket(bucket string) SrcOption {
	return func(s *Source) {
		s.bucket = bucket
	}
}

// OptSrcRegion is a SrcOption which sets the AWS region for a Source.
func OptSrcRegion(region string) SrcOption {
	return func(s *Source) {
		s.region = region
	}
}

// OptSrcPrefix tells the source to list only the objects in the bucket that
// match the specified prefix.
func OptSrcPrefix(prefix string) SrcOption {
	return func(s *Source) {
		s.prefix = prefix
	}
}

// OptSrcEndpoint points the source at an S3 compatible endpoint other than
// AWS.
func OptSrcEndpoint(endpoint string) SrcOption {
	return func(s *Source) {
		s.endpoint = endpoint
	}
}

// OptSrcClient sets the client used instead of one built from a new AWS
// session.
func OptSrcClient(client s3iface.S3API) SrcOption {
	return func(s *Source) {
		s.s3 = client
	}
}

// Source is the set of objects in a bucket matching a prefix.
type Source struct {
	bucket   string
	prefix   string
	region   string
	endpoint string

	s3      s3iface.S3API
	objects []*s3.Object
}

// NewSource returns a new Source with the options applied. The bucket is
// listed once, here.
func NewSource(opts ...SrcOption) (*Source, error) {
	s := &Source{}
	for _, opt := range opts {
		opt(s)
	}
	if s.bucket == "" {
		return nil, errors.New("no bucket specified")
	}
	if s.s3 == nil {
		cfg := &aws.Config{Region: aws.String(s.region)}
		if s.endpoint != "" {
			cfg.Endpoint = aws.String(s.endpoint)
			cfg.S3ForcePathStyle = aws.Bool(true)
		}
		sess, err := session.NewSession(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "getting new session")
		}
		s.s3 = s3.New(sess)
	}
	err := s.s3.ListObjectsPages(&s3.ListObjectsInput{Bucket: aws.String(s.bucket), Prefix: aws.String(s.prefix)},
		func(page *s3.ListObjectsOutput, last bool) bool {
			for _, obj := range page.Contents {
				if obj.Key != nil && aws.Int64Value(obj.Size) > 0 {
					s.objects = append(s.objects, obj)
				}
			}
			return true
		})
	if err != nil {
		return nil, errors.Wrap(err, "listing objects")
	}
	return s, nil
}

// Keys returns the keys of the listed objects.
func (s *Source) Keys() []string {
	keys := make([]string, len(s.objects))
	for i, obj := range s.objects {
		keys[i] = *obj.Key
	}
	return keys
}

// Openers returns one OpenStringer per listed object, in listing order.
func (s *Source) Openers() []wdk.OpenStringer {
	ret := make([]wdk.OpenStringer, len(s.objects))
	for i, obj := range s.objects {
		ret[i] = &object{s3: s.s3, bucket: s.bucket, key: *obj.Key}
	}
	return ret
}

// Reader returns a wdk.Reader which reads object keys of the bucket with d.
func (s *Source) Reader(d wdk.Decoder) wdk.Reader {
	return &reader{s: s, d: d}
}

type reader struct {
	s *Source
	d wdk.Decoder
}

func (r *reader) Read(key string, name string) (*wdk.Table, error) {
	rc, err := (&object{s3: r.s.s3, bucket: r.s.bucket, key: key}).Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return r.d.Decode(rc, name)
}

type object struct {
	s3     s3iface.S3API
	bucket string
	key    string
}

func (o *object) Open() (io.ReadCloser, error) {
	result, err := o.s3.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %v", o.key)
	}
	return result.Body, nil
}

func (o *object) String() string {
	return o.key
}

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

package geohash

import (
	"github.com/mmcloughlin/geohash"
	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// Transformer is an Operator which adds a geohash column derived from a
// latitude and a longitude column. Rows missing either coordinate get a null
// hash.
type Transformer struct {
	Precision int
	Lat       string
	Lon       string
	Result    string
}

// NewTransformer gets a Transformer reading "lat" and "lon" and writing
// "geohash" with the given precision.
func NewTransformer(precision int) *Transformer {
	return &Transformer{
		Precision: precision,
		Lat:       "lat",
		Lon:       "lon",
		Result:    "geohash",
	}
}

// Name implements wdk.Namer.
func (t *Transformer) Name() string { return "geohash" }

// Process implements wdk.Operator.
func (t *Transformer) Process(tables ...*wdk.Table) ([]*wdk.Table, error) {
	if t.Precision < 1 || t.Precision > 12 {
		return nil, &wdk.ValidationError{Operator: t.Name(), Reason: "precision must be between 1 and 12"}
	}
	out := make([]*wdk.Table, len(tables))
	for i, tbl := range tables {
		if tbl == nil {
			return nil, &wdk.ValidationError{Operator: t.Name(), Reason: "nil table"}
		}
		if err := tbl.Require(t.Name(), t.Lat, t.Lon); err != nil {
			return nil, err
		}
		res := tbl.Clone()
		hashes := make([]interface{}, tbl.Len())
		for j := 0; j < tbl.Len(); j++ {
			row := tbl.Row(j)
			lat, ok := row.Float(t.Lat)
			if !ok {
				continue
			}
			lon, ok := row.Float(t.Lon)
			if !ok {
				continue
			}
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return nil, errors.Errorf("row %d of '%s': coordinates out of range (%v, %v)", j, tbl.Name, lat, lon)
			}
			hashes[j] = geoHash(lat, lon, t.Precision)
		}
		err := res.SetColumn(t.Result, wdk.KindString, hashes)
		if err != nil {
			return nil, errors.Wrap(err, "setting result")
		}
		out[i] = res
	}
	return out, nil
}

func geoHash(lat, lon float64, precision int) string {
	return geohash.EncodeWithPrecision(lat, lon, uint(precision))
}

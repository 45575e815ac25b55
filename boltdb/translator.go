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

package boltdb

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

var (
	idBucket  = []byte("idKey")
	valBucket = []byte("valKey")
)

// Translator is a wdk.Translator which stores the two way value/id mapping
// in boltdb, so that pseudonyms survive between runs. Ids are allocated per
// field starting from 0.
type Translator struct {
	Db     *bolt.DB
	fmu    sync.RWMutex
	fields map[string]struct{}
}

var _ wdk.Translator = &Translator{}

// Close syncs and closes the underlying boltdb.
func (bt *Translator) Close() error {
	err := bt.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return bt.Db.Close()
}

// NewTranslator gets a new Translator backed by the bolt file at filename,
// creating buckets for the given fields up front.
func NewTranslator(filename string, fields ...string) (bt *Translator, err error) {
	bt = &Translator{
		fields: make(map[string]struct{}),
	}
	bt.Db, err = bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second, InitialMmapSize: 50000000, NoGrowSync: true})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	bt.Db.MaxBatchDelay = 400 * time.Microsecond
	err = bt.Db.Update(func(tx *bolt.Tx) error {
		ib, err := tx.CreateBucketIfNotExists(idBucket)
		if err != nil {
			return errors.Wrap(err, "creating idKey bucket")
		}
		vb, err := tx.CreateBucketIfNotExists(valBucket)
		if err != nil {
			return errors.Wrap(err, "creating valKey bucket")
		}
		for _, field := range fields {
			_, err := ib.CreateBucketIfNotExists([]byte(field))
			if err != nil {
				return errors.Wrapf(err, "creating id bucket for field %v", field)
			}
			_, err = vb.CreateBucketIfNotExists([]byte(field))
			if err != nil {
				return errors.Wrapf(err, "creating val bucket for field %v", field)
			}
			bt.fields[field] = struct{}{}
		}
		return nil
	})
	if err != nil {
		bt.Db.Close()
		return nil, errors.Wrap(err, "setting up buckets")
	}
	return bt, nil
}

func (bt *Translator) addField(field string) error {
	bt.fmu.RLock()
	if _, ok := bt.fields[field]; ok {
		bt.fmu.RUnlock()
		return nil
	}
	bt.fmu.RUnlock()
	bt.fmu.Lock()
	defer bt.fmu.Unlock()
	if _, ok := bt.fields[field]; ok {
		return nil
	}
	err := bt.Db.Update(func(tx *bolt.Tx) error {
		_, err := tx.Bucket(idBucket).CreateBucketIfNotExists([]byte(field))
		if err != nil {
			return errors.Wrapf(err, "creating id bucket for field %v", field)
		}
		_, err = tx.Bucket(valBucket).CreateBucketIfNotExists([]byte(field))
		if err != nil {
			return errors.Wrapf(err, "creating val bucket for field %v", field)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "adding field")
	}
	bt.fields[field] = struct{}{}
	return nil
}

// Get returns the value mapped to the given id in the given field.
func (bt *Translator) Get(field string, id uint64) (string, error) {
	if err := bt.addField(field); err != nil {
		return "", errors.Wrap(err, "getting value")
	}
	var val string
	found := false
	err := bt.Db.View(func(tx *bolt.Tx) error {
		ib := tx.Bucket(idBucket).Bucket([]byte(field))
		v := ib.Get(idKey(id))
		if v != nil {
			val, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "reading id %d in field %v", id, field)
	}
	if !found {
		return "", errors.Errorf("requested unknown id %d in field %v", id, field)
	}
	return val, nil
}

// GetID returns the id mapped to val in field, allocating the next id if val
// has not been seen.
func (bt *Translator) GetID(field, val string) (id uint64, err error) {
	if err = bt.addField(field); err != nil {
		return 0, errors.Wrap(err, "getting id")
	}
	bval := []byte(val)
	var ret []byte
	err = bt.Db.View(func(tx *bolt.Tx) error {
		vb := tx.Bucket(valBucket).Bucket([]byte(field))
		if v := vb.Get(bval); v != nil {
			ret = append(ret, v...)
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "checking for existing id")
	}
	if ret != nil {
		return binary.BigEndian.Uint64(ret), nil
	}
	err = bt.Db.Batch(func(tx *bolt.Tx) error {
		vb := tx.Bucket(valBucket).Bucket([]byte(field))
		if v := vb.Get(bval); v != nil {
			id = binary.BigEndian.Uint64(v)
			return nil
		}
		ib := tx.Bucket(idBucket).Bucket([]byte(field))
		seq, err := vb.NextSequence()
		if err != nil {
			return errors.Wrap(err, "getting next sequence")
		}
		id = seq - 1
		key := idKey(id)
		if err := vb.Put(bval, key); err != nil {
			return errors.Wrap(err, "putting val->id")
		}
		if err := ib.Put(key, bval); err != nil {
			return errors.Wrap(err, "putting id->val")
		}
		return nil
	})
	return id, errors.Wrap(err, "allocating id")
}

// BulkAdd assigns consecutive ids starting at start to vals in field. It
// does not check for existing mappings.
func (bt *Translator) BulkAdd(field string, start uint64, vals []string) error {
	if err := bt.addField(field); err != nil {
		return errors.Wrap(err, "bulk adding")
	}
	return bt.Db.Update(func(tx *bolt.Tx) error {
		ib := tx.Bucket(idBucket).Bucket([]byte(field))
		vb := tx.Bucket(valBucket).Bucket([]byte(field))
		id := start
		for _, val := range vals {
			key := idKey(id)
			if err := vb.Put([]byte(val), key); err != nil {
				return errors.Wrap(err, "putting val->id")
			}
			if err := ib.Put(key, []byte(val)); err != nil {
				return errors.Wrap(err, "putting id->val")
			}
			id++
		}
		if id > vb.Sequence() {
			return vb.SetSequence(id)
		}
		return nil
	})
}

func idKey(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

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

package wdk

import (
	"sync"

	"github.com/pkg/errors"
)

// Translator maps string values (participant identifiers, device serials...)
// of a named field to dense integer ids and back. Ids are allocated per field
// from 0 in first-seen order. Implementations must be thread safe.
type Translator interface {
	GetID(field, val string) (uint64, error)
	Get(field string, id uint64) (string, error)
}

// MapTranslator is an in-memory implementation of Translator using maps.
type MapTranslator struct {
	lock   sync.RWMutex
	fields map[string]*MapFieldTranslator
}

// NewMapTranslator creates a new MapTranslator.
func NewMapTranslator() *MapTranslator {
	return &MapTranslator{
		fields: make(map[string]*MapFieldTranslator),
	}
}

func (m *MapTranslator) getFieldTranslator(field string) *MapFieldTranslator {
	m.lock.RLock()
	if mt, ok := m.fields[field]; ok {
		m.lock.RUnlock()
		return mt
	}
	m.lock.RUnlock()
	m.lock.Lock()
	defer m.lock.Unlock()
	if mt, ok := m.fields[field]; ok {
		return mt
	}
	m.fields[field] = NewMapFieldTranslator()
	return m.fields[field]
}

// Get returns the value mapped to the given id in the given field.
func (m *MapTranslator) Get(field string, id uint64) (string, error) {
	val, err := m.getFieldTranslator(field).Get(id)
	if err != nil {
		return "", errors.Wrapf(err, "field '%v', id %v", field, id)
	}
	return val, nil
}

// GetID returns the integer id associated with the given value in the given
// field. It allocates a new ID if the value is not found.
func (m *MapTranslator) GetID(field, val string) (id uint64, err error) {
	return m.getFieldTranslator(field).GetID(val)
}

// MapFieldTranslator is an in-memory translator for a single field using
// sync.Map and a slice. A value's id is its index in the slice.
type MapFieldTranslator struct {
	m sync.Map

	l sync.RWMutex
	s []string
}

// NewMapFieldTranslator creates a new MapFieldTranslator.
func NewMapFieldTranslator() *MapFieldTranslator {
	return &MapFieldTranslator{
		s: make([]string, 0),
	}
}

// Get returns the value mapped to the given id.
func (m *MapFieldTranslator) Get(id uint64) (string, error) {
	m.l.RLock()
	defer m.l.RUnlock()
	if uint64(len(m.s)) <= id {
		return "", errors.Errorf("requested unknown id %d in MapTranslator", id)
	}
	return m.s[id], nil
}

// GetID returns the integer id associated with the given value. It allocates a
// new ID if the value is not found.
func (m *MapFieldTranslator) GetID(val string) (id uint64, err error) {
	if idv, ok := m.m.Load(val); ok {
		return idv.(uint64), nil
	}
	m.l.Lock()
	defer m.l.Unlock()
	if idv, ok := m.m.Load(val); ok {
		return idv.(uint64), nil
	}
	nextid := uint64(len(m.s))
	m.s = append(m.s, val)
	m.m.Store(val, nextid)
	return nextid, nil
}

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

// Package file resolves local paths and URLs into openers for the readers in
// the csv and json packages.
package file

import (
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/wearable-lab/wdk"
)

// Openers returns one OpenStringer per location. Locations starting with
// "http" are fetched with GET; anything else is a local path, and a directory
// stands for every regular file directly inside it, in name order.
func Openers(locations ...string) ([]wdk.OpenStringer, error) {
	ret := make([]wdk.OpenStringer, 0, len(locations))
	for _, loc := range locations {
		if strings.HasPrefix(loc, "http") {
			ret = append(ret, urlOpener(loc))
			continue
		}
		info, err := os.Stat(loc)
		if err != nil {
			return nil, errors.Wrap(err, "statting path")
		}
		if !info.IsDir() {
			ret = append(ret, urlOpener(loc))
			continue
		}
		infos, err := ioutil.ReadDir(loc)
		if err != nil {
			return nil, errors.Wrap(err, "reading directory")
		}
		names := make([]string, 0, len(infos))
		for _, info = range infos {
			if info.Mode().IsRegular() {
				names = append(names, info.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			ret = append(ret, urlOpener(path.Join(loc, name)))
		}
	}
	return ret, nil
}

// Opener returns the OpenStringer for a single file or URL.
func Opener(location string) wdk.OpenStringer {
	return urlOpener(location)
}

// urlOpener turns a URL or file (string) into an OpenStringer.
type urlOpener string

func (u urlOpener) Open() (io.ReadCloser, error) {
	url := string(u)
	if strings.HasPrefix(url, "http") {
		resp, err := http.Get(url)
		if err != nil {
			return nil, errors.Wrap(err, "getting via http")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Errorf("getting via http: status %s", resp.Status)
		}
		return resp.Body, nil
	}
	f, err := os.Open(url)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (u urlOpener) String() string {
	return string(u)
}

// Reader is a wdk.Reader which opens locations with Opener and hands the
// content to a Decoder.
type Reader struct {
	Decoder wdk.Decoder
}

// Read implements wdk.Reader.
func (r Reader) Read(location, name string) (*wdk.Table, error) {
	rc, err := Opener(location).Open()
	if err != nil {
		return nil, errors.Wrapf(err, "opening '%s'", location)
	}
	defer rc.Close()
	return r.Decoder.Decode(rc, name)
}

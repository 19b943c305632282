// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package sparklog

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// DecodeError wraps a failure to read the container structure of a log
// file (corrupt gzip header, corrupt zip central directory). It is never
// raised for encoding problems within an otherwise-readable container;
// those are repaired with UTF-8 replacement instead.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder is a transparent reader over plain, gzip, and zip containers.
type Decoder struct{}

// NewDecoder returns a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode reads path and returns its fully decoded text: gzip is inflated,
// zip yields its first non-directory member's content, plain files are
// read as-is. Invalid UTF-8 bytes are replaced, never rejected. Trailing
// `\r` before each `\n` is stripped so downstream consumers see clean
// Unix-style lines.
func (d *Decoder) Decode(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", &DecodeError{Path: path, Err: err}
	}
	return d.DecodeBytes(path, raw)
}

// DecodeBytes decodes an already-read byte slice, dispatching on path's
// extension. Exposed separately so callers that already hold the bytes can
// decode them without a round trip through the filesystem.
func (d *Decoder) DecodeBytes(path string, raw []byte) (string, error) {
	var body []byte

	switch {
	case strings.HasSuffix(strings.ToLower(path), ".gz"):
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return "", &DecodeError{Path: path, Err: err}
		}
		defer gz.Close()
		body, err = io.ReadAll(gz)
		if err != nil {
			return "", &DecodeError{Path: path, Err: err}
		}

	case strings.HasSuffix(strings.ToLower(path), ".zip"):
		zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
		if err != nil {
			return "", &DecodeError{Path: path, Err: err}
		}
		var member *zip.File
		for _, f := range zr.File {
			if !f.FileInfo().IsDir() {
				member = f
				break
			}
		}
		if member == nil {
			return "", nil
		}
		rc, err := member.Open()
		if err != nil {
			return "", &DecodeError{Path: path, Err: err}
		}
		defer rc.Close()
		body, err = io.ReadAll(rc)
		if err != nil {
			return "", &DecodeError{Path: path, Err: err}
		}

	default:
		body = raw
	}

	text := strings.ToValidUTF8(string(body), "�")
	return stripCarriageReturns(text), nil
}

// stripCarriageReturns removes a trailing \r before every \n, preserving
// empty lines as empty strings.
func stripCarriageReturns(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// Lines splits already-decoded text into physical lines, dropping a
// trailing empty line produced by a final newline (consistent with how
// line-oriented tools report line counts).
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

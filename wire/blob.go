// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"bytes"
	"encoding/base64"
)

// blobLineQuartets is the number of base64 quartets per output line: 18
// quartets is exactly 72 encoded characters per line.
const blobLineQuartets = 18
const blobLineChars = blobLineQuartets * 4

// appendBLOBBody base64-encodes data with the standard alphabet and
// standard padding, then writes it to buf line-wrapped to 72 encoded
// characters per line, with a newline after every line including the
// last (partial) one. It writes via bytes.Buffer.Write, never through a
// Printf-style function, precisely so base64 output (which may contain
// '%') is never misinterpreted as a format string.
func appendBLOBBody(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := blobLineChars
		if n > len(encoded) {
			n = len(encoded)
		}
		buf.WriteString(encoded[:n])
		buf.WriteByte('\n')
		encoded = encoded[n:]
	}
}

// EncodeBLOB base64-encodes data and line-wraps it exactly as
// appendBLOBBody does, returning the bytes directly. Exposed for callers
// that need the framed payload on its own (e.g. tests, or a decoder that
// re-validates a captured frame).
func EncodeBLOB(data []byte) []byte {
	var buf bytes.Buffer
	appendBLOBBody(&buf, data)
	return buf.Bytes()
}

// DecodeBLOB reverses EncodeBLOB/appendBLOBBody: it strips line breaks
// and decodes the standard-alphabet, standard-padded base64 payload.
func DecodeBLOB(framed []byte) ([]byte, error) {
	stripped := bytes.ReplaceAll(framed, []byte{'\n'}, nil)
	stripped = bytes.ReplaceAll(stripped, []byte{'\r'}, nil)
	return base64.StdEncoding.DecodeString(string(stripped))
}

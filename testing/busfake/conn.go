// Copyright 2018 Google Inc.
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

package busfake

import (
	"github.com/kkretzschmar/indigo-go/testing/mockio"
)

// Conn pairs a mockio.Readable and mockio.Writable into a single
// io.ReadWriteCloser, standing in for a real net.Conn when testing
// wire.Client against a scripted inbound byte stream while capturing
// whatever it writes back.
type Conn struct {
	*mockio.Readable
	Out *mockio.Writable
}

// NewConn constructs a Conn with empty input; write to Conn.WriteString
// to feed bytes as if received from the wire, and read Conn.Out to
// inspect what was sent back.
func NewConn() *Conn {
	return &Conn{Readable: mockio.Stdin(), Out: mockio.Stdout()}
}

// Write satisfies io.Writer by recording to Out, distinct from the
// embedded Readable.Write which feeds the read side.
func (c *Conn) Write(p []byte) (int, error) { return c.Out.Write(p) }

// Close is a no-op; mockio streams need no teardown.
func (c *Conn) Close() error { return nil }

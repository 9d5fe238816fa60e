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

// Package logging provides a minimal, ID-tagged debug logger used
// throughout the bus, device, driver and wire packages. Log is always
// emitted; Fine is gated by SetVerbose and is meant for the high-volume
// per-notification tracing that would otherwise drown out real messages
// during an image-transfer burst.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
)

var (
	logger  = log.New(os.Stderr, "", log.LstdFlags)
	verbose int32
)

// SetOutput redirects log output; primarily for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetVerbose enables or disables Fine logging.
func SetVerbose(v bool) {
	if v {
		atomic.StoreInt32(&verbose, 1)
	} else {
		atomic.StoreInt32(&verbose, 0)
	}
}

// Log always emits a formatted message.
func Log(format string, args ...interface{}) {
	logger.Output(2, fmt.Sprintf(format, args...))
}

// Fine emits a formatted message only when verbose logging is enabled.
// Callers on hot paths (per-notification dispatch) should prefer Fine so
// the default build stays quiet under the multi-kHz notification bursts
// a caller chooses to enable.
func Fine(format string, args ...interface{}) {
	if atomic.LoadInt32(&verbose) == 0 {
		return
	}
	logger.Output(2, fmt.Sprintf(format, args...))
}

// ident identifies an object by its concrete type and address, so two
// instances of the same type get distinct, stable identifiers.
type ident struct {
	typeName string
	address  uintptr
	label    string
}

func (i *ident) String() string {
	base := i.typeName
	if i.address != 0 {
		base = fmt.Sprintf("%s#%x", i.typeName, i.address&0xffff)
	}
	if i.label != "" {
		return fmt.Sprintf("%s<%s>", base, i.label)
	}
	return base
}

var (
	idsMu sync.Mutex
	ids   = map[uintptr]*ident{}
)

func identify(thing interface{}) *ident {
	v := reflect.ValueOf(thing)
	typeName := "nil"
	var addr uintptr
	if v.IsValid() {
		typeName = v.Type().String()
		for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
			if v.IsNil() {
				break
			}
			v = v.Elem()
		}
		if v.CanAddr() {
			addr = v.UnsafeAddr()
		}
	}
	idsMu.Lock()
	defer idsMu.Unlock()
	if addr != 0 {
		if existing, ok := ids[addr]; ok && existing.typeName == typeName {
			return existing
		}
	}
	id := &ident{typeName: typeName, address: addr}
	if addr != 0 {
		ids[addr] = id
	}
	return id
}

// ID returns a unique, stable name for thing, of the form 'type#addr'.
// Useful as a log-line prefix to separate output from multiple instances
// of the same type (e.g. two CCD devices sharing one hardware handle).
func ID(thing interface{}) string {
	return identify(thing).String()
}

// Label attaches a human-meaningful label to thing's identifier, e.g.
// logging.Label(dev, "altair-0") so subsequent ID(dev) calls print
// "ccd.Device#1<altair-0>" instead of just "ccd.Device#1".
func Label(thing interface{}, label string) {
	identify(thing).label = label
}

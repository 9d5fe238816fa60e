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

/*
Package imaging implements the image pipeline hook between a driver's
raw pixel delivery and a caller-supplied sink: it reserves room for a
FITS primary header ahead of the pixel data and prepends that header in
place, without copying the pixel buffer.
*/
package imaging

import (
	"fmt"
	"strings"

	"github.com/martinlindhe/unit"

	"github.com/kkretzschmar/indigo-go/format"
	"github.com/kkretzschmar/indigo-go/logging"
)

// fitsBlockSize is the FITS record length: every header (and the data
// area) is padded to a multiple of this many bytes.
const fitsBlockSize = 2880

// headerCardSize is the fixed width of one FITS header card.
const headerCardSize = 80

// mandatoryCardCount is the number of cards writeHeader emits: SIMPLE,
// BITPIX, NAXIS, NAXIS1, NAXIS2, plus END. 6 cards fit in one 2880-byte
// block (36 cards of 80 bytes), so HeaderSize is exactly one block for
// every bit depth this package supports.
const mandatoryCardCount = 6

// HeaderSize is the compile-time reserved prefix: the smallest multiple
// of fitsBlockSize that accommodates the full mandatory keyword set for
// every supported bit depth (8-, 16- and 32-bit integer samples; any
// other depth is written as BITPIX 16).
const HeaderSize = fitsBlockSize

func init() {
	if mandatoryCardCount*headerCardSize > fitsBlockSize {
		panic("imaging: mandatory FITS header exceeds one block")
	}
}

// Sink receives a completed, header-prefixed frame. The callee owns buf
// read-only for the duration of the call.
type Sink func(buf []byte, width, height, bitsPerPixel int, isRaw bool, hint string)

// Process prepends a FITS primary header into the first HeaderSize bytes
// of buf (which the driver must have left reserved and unfilled ahead of
// its pixel data) and invokes sink with the now-complete buffer. No
// pixel bytes are copied; only the reserved header region is written.
func Process(buf []byte, width, height, bitsPerPixel int, isRaw bool, hint string, sink Sink) {
	if len(buf) < HeaderSize {
		panic("imaging: buffer too small for reserved FITS header")
	}
	writeHeader(buf[:HeaderSize], width, height, bitsPerPixel)
	logging.Fine("imaging: delivering %s frame (%s)", hint,
		format.Bytesize(unit.Datasize(len(buf))*unit.Byte))
	if sink != nil {
		sink(buf, width, height, bitsPerPixel, isRaw, hint)
	}
}

func bitpix(bitsPerPixel int) int {
	switch bitsPerPixel {
	case 8:
		return 8
	case 32:
		return 32
	default:
		return 16
	}
}

func card(keyword, value string) string {
	line := fmt.Sprintf("%-8s= %20s", keyword, value)
	return fitField(line)
}

func fitField(s string) string {
	if len(s) > headerCardSize {
		return s[:headerCardSize]
	}
	return s + strings.Repeat(" ", headerCardSize-len(s))
}

func writeHeader(dst []byte, width, height, bitsPerPixel int) {
	cards := []string{
		fitField("SIMPLE  =                    T"),
		card("BITPIX", fmt.Sprintf("%d", bitpix(bitsPerPixel))),
		card("NAXIS", "2"),
		card("NAXIS1", fmt.Sprintf("%d", width)),
		card("NAXIS2", fmt.Sprintf("%d", height)),
		fitField("END"),
	}
	off := 0
	for _, c := range cards {
		off += copy(dst[off:], c)
	}
	for ; off < len(dst); off++ {
		dst[off] = ' '
	}
}

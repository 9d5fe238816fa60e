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
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/kkretzschmar/indigo-go/logging"
	"github.com/kkretzschmar/indigo-go/property"
)

// changeTarget receives decoded client-originated writes and
// getProperties replay requests. *bus.Bus combined with a *Client
// implements this, but it is declared narrowly here so the decoder does
// not need to import the bus package.
type changeTarget interface {
	ChangeProperty(device string, v property.Vector) error
}

// propertySource supplies the set of currently-defined vectors a
// getProperties request should be replayed against.
type propertySource interface {
	ReplayTo(device, name string)
}

// blobFilter records the per-(device,name) enableBLOB setting.
type blobFilter struct {
	Never, Also, Only string
}

// Decoder streams inbound XML fragments off r and converts them to
// bus.ChangeProperty calls, enableBLOB filter updates, and getProperties
// replay triggers. A malformed or unrecognised element is discarded and
// parsing continues: a bad client never disconnects the stream by
// itself sending garbage.
type Decoder struct {
	xd     *xml.Decoder
	target changeTarget
	source propertySource

	// BLOBMode, keyed by "device\x00name" ("" device/name means the
	// bus-wide wildcard set by a bare <enableBLOB>).
	BLOBMode map[string]string
}

// NewDecoder constructs a Decoder reading INDI-dialect XML fragments from
// r. Elements may be concatenated without any whitespace
// separator; encoding/xml's streaming Decoder already tolerates this.
func NewDecoder(r io.Reader, target changeTarget, source propertySource) *Decoder {
	xd := xml.NewDecoder(r)
	// The wire dialect is not strictly well-formed at the top level (a
	// sequence of sibling elements with no enclosing root), so auto-close
	// is required to let the same Decoder keep reading past each element.
	xd.Strict = false
	xd.AutoClose = xml.HTMLAutoClose
	return &Decoder{xd: xd, target: target, source: source, BLOBMode: map[string]string{}}
}

// Run consumes the stream until EOF or a non-recoverable read error.
// Per-element structural problems are logged and skipped; they never
// cause Run to return early.
func (d *Decoder) Run() error {
	for {
		tok, err := d.xd.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if err := d.dispatch(start); err != nil {
			logging.Log("wire: discarding %s: %v", start.Name.Local, err)
		}
	}
}

func (d *Decoder) dispatch(start xml.StartElement) error {
	switch {
	case start.Name.Local == "getProperties":
		return d.handleGetProperties(start)
	case start.Name.Local == "enableBLOB":
		return d.handleEnableBLOB(start)
	case strings.HasPrefix(start.Name.Local, "new") && strings.HasSuffix(start.Name.Local, "Vector"):
		return d.handleNewVector(start)
	default:
		return d.xd.Skip()
	}
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (d *Decoder) handleGetProperties(start xml.StartElement) error {
	device := attr(start, "device")
	name := attr(start, "name")
	if err := d.xd.Skip(); err != nil {
		return err
	}
	if d.source != nil {
		d.source.ReplayTo(device, name)
	}
	return nil
}

func (d *Decoder) handleEnableBLOB(start xml.StartElement) error {
	device := attr(start, "device")
	name := attr(start, "name")
	var mode string
	depth := 0
	for {
		tok, err := d.xd.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if depth == 0 {
				mode += string(t)
			}
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				d.BLOBMode[device+"\x00"+name] = strings.TrimSpace(mode)
				return nil
			}
			depth--
		}
	}
}

// handleNewVector decodes a <new{Type}Vector device name>...<one{Type}
// name>value</one{Type}>...</new{Type}Vector> element into a
// property.Vector and routes it to d.target.
func (d *Decoder) handleNewVector(start xml.StartElement) error {
	typeName := strings.TrimSuffix(strings.TrimPrefix(start.Name.Local, "new"), "Vector")
	typ, ok := parseType(typeName)
	if !ok {
		return d.xd.Skip()
	}
	device := attr(start, "device")
	name := attr(start, "name")
	v := property.Vector{Device: device, Name: name, Type: typ}

	itemTag := "one" + typeName
	for {
		tok, err := d.xd.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return d.target.ChangeProperty(device, v)
			}
		case xml.StartElement:
			if t.Name.Local != itemTag {
				d.xd.Skip()
				continue
			}
			itemName := attr(t, "name")
			text, err := d.readCharData(t)
			if err != nil {
				return err
			}
			v.Items = append(v.Items, decodeItem(typ, itemName, text))
		}
	}
}

func (d *Decoder) readCharData(start xml.StartElement) (string, error) {
	var sb strings.Builder
	for {
		tok, err := d.xd.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return sb.String(), nil
			}
		}
	}
}

func parseType(s string) (property.Type, bool) {
	switch s {
	case "Text":
		return property.Text, true
	case "Number":
		return property.Number, true
	case "Switch":
		return property.Switch, true
	case "BLOB":
		return property.BLOB, true
	default:
		return 0, false
	}
}

func decodeItem(typ property.Type, name, text string) property.Item {
	text = strings.TrimSpace(text)
	switch typ {
	case property.Text:
		return property.NewText(name, "", text)
	case property.Number:
		f, _ := strconv.ParseFloat(text, 64)
		return property.NewNumber(name, "", property.NumberPayload{Target: f})
	case property.Switch:
		on := text == "On" || text == "on" || text == "true"
		return property.NewSwitch(name, "", on)
	case property.BLOB:
		bytes, _ := DecodeBLOB([]byte(text))
		return property.NewBLOB(name, "", property.BLOBPayload{Bytes: bytes, Size: len(bytes)})
	default:
		return property.Item{}
	}
}

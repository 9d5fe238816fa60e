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

/*
Package wire implements the streaming XML adapter: it turns bus property
notifications into the INDI-compatible wire dialect, including
line-wrapped base64 BLOB framing, and parses the inbound dialect back
into bus.ChangeProperty calls.

Encoding builds one fully-formed element per notification in a buffer
and writes it to the stream in a single Write call, rather than holding
the stream lock across several small writes: this keeps concurrent
notifications from different devices from interleaving mid-element on
the wire.
*/
package wire

import (
	"bytes"
	"fmt"
	"html"
	"strconv"

	"github.com/kkretzschmar/indigo-go/property"
)

// escape escapes &, <, >, ' and " for use inside an XML attribute value.
func escape(s string) string {
	return html.EscapeString(s)
}

// formatNumber renders a float64 in the shortest representation that
// re-parses to an identical double (strconv's -1 precision guarantees
// round-trip fidelity).
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// itemText renders the wire text content of a single item, excluding the
// BLOB case which is handled separately by appendBLOB (base64 framing).
func itemText(v property.Vector, it property.Item) string {
	switch v.Type {
	case property.Text:
		return it.Text()
	case property.Number:
		return formatNumber(it.NumberValue().Value)
	case property.Switch:
		if it.SwitchValue() {
			return "On"
		}
		return "Off"
	case property.Light:
		return it.LightState().String()
	default:
		return ""
	}
}

// EncodeDefine renders a defProperty notification: one def{Type}Vector
// element wrapping one def{Type} element per item.
func EncodeDefine(device string, v property.Vector) []byte {
	var buf bytes.Buffer
	tag := "def" + v.Type.String() + "Vector"
	fmt.Fprintf(&buf, "<%s device='%s' name='%s' group='%s' label='%s' perm='%s' state='%s'",
		tag, escape(device), escape(v.Name), escape(v.Group), escape(v.Label), v.Perm, v.State)
	if v.Type == property.Switch {
		fmt.Fprintf(&buf, " rule='%s'", v.Rule)
	}
	buf.WriteString(">\n")
	itemTag := "def" + v.Type.String()
	for _, it := range v.Items {
		if v.Type == property.BLOB {
			fmt.Fprintf(&buf, "  <%s name='%s' label='%s' size='%d' format='%s'>\n",
				itemTag, escape(it.Name), escape(it.Label), it.BLOBValue().Size, escape(it.BLOBValue().Format))
			if v.State == property.OK {
				appendBLOBBody(&buf, it.BLOBValue().Bytes)
			}
			fmt.Fprintf(&buf, "</%s>\n", itemTag)
			continue
		}
		fmt.Fprintf(&buf, "  <%s name='%s' label='%s'>%s</%s>\n",
			itemTag, escape(it.Name), escape(it.Label), escape(itemText(v, it)), itemTag)
	}
	fmt.Fprintf(&buf, "</%s>\n", tag)
	return buf.Bytes()
}

// EncodeUpdate renders a setProperty notification: one set{Type}Vector
// element wrapping one one{Type} element per item. A BLOB item's bytes
// are only included when the vector's state is OK; in any other state
// the element still carries its size/format metadata, with an empty body.
func EncodeUpdate(device string, v property.Vector) []byte {
	var buf bytes.Buffer
	tag := "set" + v.Type.String() + "Vector"
	fmt.Fprintf(&buf, "<%s device='%s' name='%s' state='%s'", tag, escape(device), escape(v.Name), v.State)
	if v.Message != "" {
		fmt.Fprintf(&buf, " message='%s'", escape(v.Message))
	}
	buf.WriteString(">\n")
	itemTag := "one" + v.Type.String()
	for _, it := range v.Items {
		if v.Type == property.BLOB {
			fmt.Fprintf(&buf, "  <%s name='%s' size='%d' format='%s'>\n",
				itemTag, escape(it.Name), it.BLOBValue().Size, escape(it.BLOBValue().Format))
			if v.State == property.OK {
				appendBLOBBody(&buf, it.BLOBValue().Bytes)
			}
			fmt.Fprintf(&buf, "</%s>\n", itemTag)
			continue
		}
		fmt.Fprintf(&buf, "  <%s name='%s'>%s</%s>\n",
			itemTag, escape(it.Name), escape(itemText(v, it)), itemTag)
	}
	fmt.Fprintf(&buf, "</%s>\n", tag)
	return buf.Bytes()
}

// EncodeDelete renders a delProperty notification. The trailing slash is
// always emitted; the decoder separately tolerates the legacy
// non-self-closing form on input.
func EncodeDelete(device string, v property.Vector) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<delProperty device='%s' name='%s'", escape(device), escape(v.Name))
	if v.Message != "" {
		fmt.Fprintf(&buf, " message='%s'", escape(v.Message))
	}
	buf.WriteString("/>\n")
	return buf.Bytes()
}

// EncodeMessage renders a standalone broadcast message, not tied to any
// particular property vector.
func EncodeMessage(device, text string) []byte {
	var buf bytes.Buffer
	buf.WriteString("<message ")
	if device != "" {
		fmt.Fprintf(&buf, "device='%s' ", escape(device))
	}
	fmt.Fprintf(&buf, "message='%s'/>\n", escape(text))
	return buf.Bytes()
}

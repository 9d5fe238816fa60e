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

package wire

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/kkretzschmar/indigo-go/property"
)

// DecodeSnapshot parses a sequence of def{Type}Vector elements, as
// written by SaveConfig via EncodeDefine, back into property.Vector
// values for LoadConfig to apply.
func DecodeSnapshot(data []byte) ([]property.Vector, error) {
	xd := xml.NewDecoder(bytes.NewReader(data))
	xd.Strict = false
	xd.AutoClose = xml.HTMLAutoClose

	var out []property.Vector
	for {
		tok, err := xd.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !strings.HasPrefix(start.Name.Local, "def") || !strings.HasSuffix(start.Name.Local, "Vector") {
			continue
		}
		v, err := decodeDefVector(xd, start)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
}

func decodeDefVector(xd *xml.Decoder, start xml.StartElement) (property.Vector, error) {
	typeName := strings.TrimSuffix(strings.TrimPrefix(start.Name.Local, "def"), "Vector")
	typ, ok := parseType(typeName)
	if !ok {
		return property.Vector{}, xd.Skip()
	}
	v := property.Vector{Device: attr(start, "device"), Name: attr(start, "name"), Type: typ}
	itemTag := "def" + typeName

	for {
		tok, err := xd.Token()
		if err != nil {
			return property.Vector{}, err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return v, nil
			}
		case xml.StartElement:
			if t.Name.Local != itemTag {
				xd.Skip()
				continue
			}
			name := attr(t, "name")
			var sb strings.Builder
			for {
				tok2, err := xd.Token()
				if err != nil {
					return property.Vector{}, err
				}
				if cd, ok := tok2.(xml.CharData); ok {
					sb.Write(cd)
					continue
				}
				if end, ok := tok2.(xml.EndElement); ok && end.Name.Local == itemTag {
					break
				}
			}
			v.Items = append(v.Items, decodeItem(typ, name, sb.String()))
		}
	}
}

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

package device

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/kkretzschmar/indigo-go/colors"
	"github.com/kkretzschmar/indigo-go/property"
)

// defaultLightColors gives every state a color even before a client calls
// colors.Set, the same fallback colors.Scheme provides for "good"/"bad".
var defaultLightColors = map[property.State]colorful.Color{
	property.Idle:  mustHex("#888888"),
	property.OK:    mustHex("#00a000"),
	property.Busy:  mustHex("#e0a000"),
	property.Alert: mustHex("#c00000"),
}

func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// LightColor maps a LIGHT item's state to the color a client should render
// it in, preferring a color scheme entry the client loaded with
// colors.LoadFromArgs over the built-in default.
func LightColor(state property.State) colorful.Color {
	var name string
	switch state {
	case property.OK:
		name = "good"
	case property.Alert:
		name = "bad"
	case property.Busy:
		name = "degraded"
	default:
		name = "idle"
	}
	if c := colors.Scheme(name); c != nil {
		return c.Colorful()
	}
	return defaultLightColors[state]
}

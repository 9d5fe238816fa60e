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

package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyValuesSingleItemWriteSelectsExclusively(t *testing.T) {
	current := NewSwitchVector("dev", "CONNECTION", "", "", ReadWrite, OneOfMany,
		NewSwitch("CONNECT", "", false), NewSwitch("DISCONNECT", "", true))

	write := NewSwitchVector("dev", "CONNECTION", "", "", ReadWrite, OneOfMany,
		NewSwitch("CONNECT", "", true))

	out, err := CopyValues(current, write, true)
	require.NoError(t, err)
	connect, _ := out.Item("CONNECT")
	disconnect, _ := out.Item("DISCONNECT")
	assert.True(t, connect.SwitchValue())
	assert.False(t, disconnect.SwitchValue())
}

func TestCopyValuesExclusiveSelectMatchesThreeWaySwitch(t *testing.T) {
	current := NewSwitchVector("dev", "MODE", "", "", ReadWrite, OneOfMany,
		NewSwitch("A", "", true), NewSwitch("B", "", false), NewSwitch("C", "", false))

	write := NewSwitchVector("dev", "MODE", "", "", ReadWrite, OneOfMany,
		NewSwitch("B", "", true))

	out, err := CopyValues(current, write, true)
	require.NoError(t, err)
	a, _ := out.Item("A")
	b, _ := out.Item("B")
	c, _ := out.Item("C")
	assert.False(t, a.SwitchValue())
	assert.True(t, b.SwitchValue())
	assert.False(t, c.SwitchValue())
}

func TestCopyValuesAtMostOneClearsOthersOnSelect(t *testing.T) {
	current := NewSwitchVector("dev", "FILTER", "", "", ReadWrite, AtMostOne,
		NewSwitch("RED", "", true), NewSwitch("GREEN", "", false))

	write := NewSwitchVector("dev", "FILTER", "", "", ReadWrite, AtMostOne,
		NewSwitch("GREEN", "", true))

	out, err := CopyValues(current, write, true)
	require.NoError(t, err)
	red, _ := out.Item("RED")
	green, _ := out.Item("GREEN")
	assert.False(t, red.SwitchValue())
	assert.True(t, green.SwitchValue())
}

func TestCopyValuesFullSetWriteUnaffectedByExclusiveSelect(t *testing.T) {
	current := NewSwitchVector("dev", "CONNECTION", "", "", ReadWrite, OneOfMany,
		NewSwitch("CONNECT", "", false), NewSwitch("DISCONNECT", "", true))

	write := NewSwitchVector("dev", "CONNECTION", "", "", ReadWrite, OneOfMany,
		NewSwitch("CONNECT", "", true), NewSwitch("DISCONNECT", "", false))

	out, err := CopyValues(current, write, true)
	require.NoError(t, err)
	connect, _ := out.Item("CONNECT")
	disconnect, _ := out.Item("DISCONNECT")
	assert.True(t, connect.SwitchValue())
	assert.False(t, disconnect.SwitchValue())
}

func TestCopyValuesAllFalseWriteStillValidatesArity(t *testing.T) {
	current := NewSwitchVector("dev", "CONNECTION", "", "", ReadWrite, OneOfMany,
		NewSwitch("CONNECT", "", true), NewSwitch("DISCONNECT", "", false))

	write := NewSwitchVector("dev", "CONNECTION", "", "", ReadWrite, OneOfMany,
		NewSwitch("CONNECT", "", false))

	_, err := CopyValues(current, write, true)
	assert.Error(t, err, "turning the only true item off with no replacement violates OneOfMany")
}

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

import "fmt"

// copiers is a dispatch table keyed by Type, used by CopyValues to apply one
// src item's payload onto the matching dst item without a switch in the hot
// path (per the "dispatch tables per variant" design note).
var copiers = map[Type]func(dst, src Item) Item{
	Text:   func(dst, src Item) Item { return dst.withText(src.Text()) },
	Number: func(dst, src Item) Item { return dst.withNumber(mergeNumber(dst.NumberValue(), src.NumberValue())) },
	Switch: func(dst, src Item) Item { return dst.withSwitch(src.SwitchValue()) },
	Light:  func(dst, src Item) Item { return dst }, // LIGHT items are never client-writable.
	BLOB:   func(dst, src Item) Item { return dst.withBLOB(src.BLOBValue()) },
}

// mergeNumber applies a client-requested Target while preserving the
// device-observed Value and the min/max/step schema.
func mergeNumber(dst, src NumberPayload) NumberPayload {
	dst.Target = src.Target
	return dst
}

// CopyValues applies the item values of src onto a clone of dst, which must
// be owned by the device handling the write. Only items named in src are
// touched; unnamed dst items are preserved unaltered, except that a write
// turning on an item of a SWITCH vector with rule ONE_OF_MANY or
// AT_MOST_ONE forces every item src does not name to false (see
// exclusiveSelect). If subsetOnly is
// false, src naming an item absent from dst is a bad_request. CopyValues
// enforces arity rules for SWITCH vectors with rule ONE_OF_MANY or AT_MOST_ONE,
// rejecting the whole write rather than applying a partial one.
func CopyValues(dst, src Vector, subsetOnly bool) (Vector, error) {
	if dst.Type != src.Type {
		return Vector{}, fmt.Errorf("%s.%s: type mismatch: %w", dst.Device, dst.Name, ReasonBadRequest)
	}
	out := dst.Clone()
	copier := copiers[dst.Type]
	for _, s := range src.Items {
		idx := -1
		for i, d := range out.Items {
			if d.Name == s.Name {
				idx = i
				break
			}
		}
		if idx == -1 {
			if subsetOnly {
				continue
			}
			return Vector{}, fmt.Errorf("%s.%s: unknown item %q: %w", dst.Device, dst.Name, s.Name, ReasonBadRequest)
		}
		out.Items[idx] = copier(out.Items[idx], s)
	}
	if dst.Type == Switch && (out.Rule == OneOfMany || out.Rule == AtMostOne) {
		exclusiveSelect(out, src)
	}
	if dst.Type == Switch {
		if err := validateSwitchRule(out); err != nil {
			return Vector{}, err
		}
	}
	return out, nil
}

// exclusiveSelect implements the normal INDI write: a client picks a
// ONE_OF_MANY/AT_MOST_ONE vector's new selection by naming only the item(s)
// it wants on, not the whole set. If src turned any item true, every item
// src did not name is forced false, so a single-item write such as
// {CONNECT=true} against {CONNECT=false,DISCONNECT=true} yields
// {CONNECT=true,DISCONNECT=false} instead of failing arity validation.
func exclusiveSelect(out, src Vector) {
	anyTrue := false
	named := make(map[string]bool, len(src.Items))
	for _, s := range src.Items {
		named[s.Name] = true
		if s.SwitchValue() {
			anyTrue = true
		}
	}
	if !anyTrue {
		return
	}
	for i, d := range out.Items {
		if !named[d.Name] {
			out.Items[i] = d.withSwitch(false)
		}
	}
}

// validateSwitchRule enforces: exactly one true item for ONE_OF_MANY,
// at most one for AT_MOST_ONE, whenever state != ALERT. ANY_OF_MANY is
// unconstrained.
func validateSwitchRule(v Vector) error {
	if v.State == Alert {
		return nil
	}
	trueCount := 0
	for _, it := range v.Items {
		if it.SwitchValue() {
			trueCount++
		}
	}
	switch v.Rule {
	case OneOfMany:
		if trueCount != 1 {
			return fmt.Errorf("%s.%s: OneOfMany requires exactly one true item, got %d: %w",
				v.Device, v.Name, trueCount, ReasonBadRequest)
		}
	case AtMostOne:
		if trueCount > 1 {
			return fmt.Errorf("%s.%s: AtMostOne requires at most one true item, got %d: %w",
				v.Device, v.Name, trueCount, ReasonBadRequest)
		}
	}
	return nil
}

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

// Reason is the bus-wide error taxonomy. It implements error so it
// can be returned, wrapped with fmt.Errorf("...: %w", reason), and matched
// with errors.Is.
type Reason string

// Error implements the error interface.
func (r Reason) Error() string { return string(r) }

// The error kinds used throughout the bus.
const (
	// ReasonOK is not itself returned as an error; it documents success.
	ReasonOK          Reason = "ok"
	ReasonFailed      Reason = "failed"
	ReasonTooMany     Reason = "too_many_elements"
	ReasonLocked      Reason = "lock_error"
	ReasonNotFound    Reason = "not_found"
	ReasonUnsupported Reason = "unsupported"
	ReasonBadRequest  Reason = "bad_request"
)

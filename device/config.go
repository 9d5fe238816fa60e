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
	"github.com/spf13/afero"

	"github.com/kkretzschmar/indigo-go/property"
	"github.com/kkretzschmar/indigo-go/wire"
)

// fs is package-level, like the teacher's modules swap in afero.NewOsFs
// at init and afero.NewMemMapFs in tests, so SAVE_CONFIG/LOAD_CONFIG are
// testable without touching the real filesystem.
var fs = afero.NewOsFs()

// SetFilesystem overrides the filesystem used by SaveConfig/LoadConfig,
// for tests.
func SetFilesystem(f afero.Fs) { fs = f }

// SaveConfig snapshots every vector b currently owns to path, wrapped in
// the same XML dialect the wire adapter uses for outbound definitions.
func SaveConfig(b *Base, path string) error {
	var out []byte
	for _, p := range b.Properties() {
		out = append(out, wire.EncodeDefine(b.ID(), p)...)
	}
	return afero.WriteFile(fs, path, out, 0o644)
}

// LoadConfig reads a snapshot written by SaveConfig and applies each
// vector's item values onto the matching live vector via CopyValues,
// preserving any item named in the live vector but absent from the
// snapshot.
func LoadConfig(b *Base, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	snapshot, err := wire.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	for _, p := range snapshot {
		current, ok := b.Vector(p.Name)
		if !ok {
			continue
		}
		merged, err := property.CopyValues(current, p, true)
		if err != nil {
			continue
		}
		merged.State = property.OK
		b.Update(merged)
	}
	return nil
}

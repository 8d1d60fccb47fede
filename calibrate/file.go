// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package calibrate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Set holds calibration tables read from a file, indexed by
// instrument name and then motor number.
// Sample file:
//  airspeed:
//    0:
//      - {value: 40, angle: 32}
//      - {value: 100, angle: 161}
//      - {value: 200, angle: 315}
type Set map[string]map[int]*Table

// Load reads and validates a calibration file.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a YAML calibration document.
func Parse(data []byte) (Set, error) {
	var raw map[string]map[int][]Point
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, err
	}
	s := make(Set)
	for name, motors := range raw {
		s[name] = make(map[int]*Table)
		for m, pts := range motors {
			t, err := New(pts...)
			if err != nil {
				return nil, fmt.Errorf("%s motor %d: %w", name, m, err)
			}
			s[name][m] = t
		}
	}
	return s, nil
}

// Lookup returns the table for an instrument's motor, if present.
func (s Set) Lookup(instrument string, motor int) (*Table, bool) {
	t, ok := s[instrument][motor]
	return t, ok
}

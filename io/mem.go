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

package io

import (
	"fmt"
	"sync/atomic"
)

// MemPin is an in-memory pin used by the simulator and tests.
// It records the current value and the number of changes, and
// can also be read as an input.
type MemPin struct {
	value   atomic.Int32
	changes atomic.Int64
}

// Set records the output value.
func (m *MemPin) Set(v int) error {
	if v != 0 && v != 1 {
		return fmt.Errorf("illegal value %d", v)
	}
	if old := m.value.Swap(int32(v)); old != int32(v) {
		m.changes.Add(1)
	}
	return nil
}

// Value returns the last value set.
func (m *MemPin) Value() int {
	return int(m.value.Load())
}

// Get returns the last value set.
func (m *MemPin) Get() (int, error) {
	return m.Value(), nil
}

// Changes returns the number of times the output has changed.
func (m *MemPin) Changes() int64 {
	return m.changes.Load()
}

// MemCoil creates a Coil backed by 4 MemPins, returning both.
func MemCoil() (*Coil, [4]*MemPin) {
	var pins [4]*MemPin
	s := make([]Setter, 4)
	for i := range pins {
		pins[i] = new(MemPin)
		s[i] = pins[i]
	}
	c, _ := NewCoil(s...)
	return c, pins
}

// Pattern returns the current 4 bit output pattern of a set of MemPins.
func Pattern(pins [4]*MemPin) uint8 {
	var p uint8
	for _, m := range pins {
		p = p<<1 | uint8(m.Value())
	}
	return p
}

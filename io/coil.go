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
)

// Coil drives the 4 windings of a unipolar stepper motor
// (e.g a 28BYJ-48 via a ULN2003 driver).
type Coil struct {
	pins [4]Setter
}

// NewCoil creates a Coil from the 4 winding outputs.
func NewCoil(pins ...Setter) (*Coil, error) {
	if len(pins) != 4 {
		return nil, fmt.Errorf("coil: %d pins (need 4)", len(pins))
	}
	c := new(Coil)
	copy(c.pins[:], pins)
	return c, nil
}

// Output sets the windings from a 4 bit pattern, where bit 3
// drives the first winding and bit 0 drives the last.
func (c *Coil) Output(pattern uint8) error {
	for i, p := range c.pins {
		if err := p.Set(int(pattern>>(3-i)) & 1); err != nil {
			return err
		}
	}
	return nil
}

// Off removes the power from all windings.
func (c *Coil) Off() error {
	return c.Output(0)
}

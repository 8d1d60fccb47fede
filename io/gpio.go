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

	gpio "github.com/aamcrae/gpio"
)

// Pins is a set of GPIOs opened via sysfs.
type Pins []*gpio.Gpio

// OutputPins opens the GPIOs as outputs.
// If any pin fails to open, the pins already opened are closed.
func OutputPins(nums ...int) (Pins, error) {
	var p Pins
	for _, n := range nums {
		g, err := gpio.OutputPin(n)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("pin %d: %v", n, err)
		}
		p = append(p, g)
	}
	return p, nil
}

// InputPins opens the GPIOs as inputs.
// No edge detection is set, so Get returns the current level without waiting.
func InputPins(nums ...int) (Pins, error) {
	var p Pins
	for _, n := range nums {
		g, err := gpio.Pin(n)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("pin %d: %v", n, err)
		}
		p = append(p, g)
	}
	return p, nil
}

// OpenCoil opens the 4 GPIOs driving a motor's windings.
// The pins are returned so they can be closed.
func OpenCoil(nums [4]int) (*Coil, Pins, error) {
	p, err := OutputPins(nums[:]...)
	if err != nil {
		return nil, nil, err
	}
	c, err := NewCoil(p.Setters()...)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return c, p, nil
}

// Setters returns the pins as Setters.
func (p Pins) Setters() []Setter {
	s := make([]Setter, len(p))
	for i, g := range p {
		s[i] = g
	}
	return s
}

// Getters returns the pins as Getters.
func (p Pins) Getters() []Getter {
	g := make([]Getter, len(p))
	for i, v := range p {
		g[i] = v
	}
	return g
}

// Close releases all the pins.
func (p Pins) Close() {
	for _, g := range p {
		g.Close()
	}
}

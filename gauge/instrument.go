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

package gauge

import (
	"fmt"
	"sort"

	"github.com/aamcrae/gauge/calibrate"
)

// MotorConfig describes a single needle of an instrument.
type MotorConfig struct {
	Pins    [4]int           // GPIOs driving the coil windings
	Reverse bool             // Step sequence runs backwards
	Wrap    bool             // Values are headings, wrapped to [0, 360)
	Table   *calibrate.Table // May be nil if the motor is only driven by angle
}

// Target is a needle movement requested by a Linkage.
type Target struct {
	Motor int
	Angle int
}

// Linkage converts VALUE commands for instruments whose needles depend
// on each other. Value returns the needle movements for the value,
// or false if the linkage does not handle this motor.
type Linkage interface {
	Value(motor int, value float64, tables []*calibrate.Table) ([]Target, bool)
}

// Instrument is a gauge with 1 or 2 needles.
type Instrument struct {
	Name   string
	Motors []MotorConfig
	Link   Linkage
}

// Default coil GPIOs.
var (
	motor0Pins = [4]int{3, 4, 5, 6}
	motor1Pins = [4]int{7, 8, 9, 10}
)

var profiles = map[string]func() *Instrument{
	"airspeed": func() *Instrument {
		return &Instrument{
			Name: "airspeed",
			Motors: []MotorConfig{
				{Pins: motor0Pins, Table: calibrate.MustNew(
					calibrate.Point{Value: 40, Angle: 32},
					calibrate.Point{Value: 50, Angle: 52},
					calibrate.Point{Value: 60, Angle: 72},
					calibrate.Point{Value: 70, Angle: 94},
					calibrate.Point{Value: 80, Angle: 116},
					calibrate.Point{Value: 90, Angle: 138},
					calibrate.Point{Value: 100, Angle: 161},
					calibrate.Point{Value: 110, Angle: 182},
					calibrate.Point{Value: 120, Angle: 203},
					calibrate.Point{Value: 200, Angle: 315},
				)},
			},
		}
	},
	"gyrocompass": func() *Instrument {
		return &Instrument{
			Name: "gyrocompass",
			Motors: []MotorConfig{
				{Pins: motor0Pins, Reverse: true, Wrap: true, Table: compassTable()},
				{Pins: motor1Pins, Wrap: true},
			},
			Link: new(HeadingBug),
		}
	},
	"attitude": func() *Instrument {
		return &Instrument{
			Name: "attitude",
			Motors: []MotorConfig{
				// Roll
				{Pins: motor0Pins, Table: calibrate.MustNew(
					calibrate.Point{Value: -180, Angle: 0},
					calibrate.Point{Value: -135, Angle: 45},
					calibrate.Point{Value: -90, Angle: 90},
					calibrate.Point{Value: -45, Angle: 135},
					calibrate.Point{Value: 0, Angle: 180},
					calibrate.Point{Value: 45, Angle: 225},
					calibrate.Point{Value: 90, Angle: 270},
					calibrate.Point{Value: 135, Angle: 315},
					calibrate.Point{Value: 180, Angle: 360},
				)},
				// Pitch
				{Pins: motor1Pins, Table: calibrate.MustNew(
					calibrate.Point{Value: -90, Angle: 0},
					calibrate.Point{Value: -70, Angle: 40},
					calibrate.Point{Value: -50, Angle: 80},
					calibrate.Point{Value: -25, Angle: 130},
					calibrate.Point{Value: 0, Angle: 180},
					calibrate.Point{Value: 25, Angle: 230},
					calibrate.Point{Value: 50, Angle: 280},
					calibrate.Point{Value: 70, Angle: 320},
					calibrate.Point{Value: 90, Angle: 360},
				)},
			},
		}
	},
	"turn": func() *Instrument {
		return &Instrument{
			Name: "turn",
			Motors: []MotorConfig{
				{Pins: motor0Pins, Table: calibrate.MustNew(
					calibrate.Point{Value: -3, Angle: 0},
					calibrate.Point{Value: -2, Angle: 60},
					calibrate.Point{Value: -1, Angle: 120},
					calibrate.Point{Value: 0, Angle: 180},
					calibrate.Point{Value: 1, Angle: 240},
					calibrate.Point{Value: 2, Angle: 300},
					calibrate.Point{Value: 3, Angle: 360},
				)},
			},
		}
	},
	"vsi": func() *Instrument {
		return &Instrument{
			Name: "vsi",
			Motors: []MotorConfig{
				{Pins: motor0Pins, Table: calibrate.MustNew(
					calibrate.Point{Value: -2000, Angle: 95},
					calibrate.Point{Value: -1000, Angle: 182},
					calibrate.Point{Value: 0, Angle: 270},
					calibrate.Point{Value: 1000, Angle: 358},
					calibrate.Point{Value: 2000, Angle: 85},
				)},
			},
		}
	},
}

func compassTable() *calibrate.Table {
	var p []calibrate.Point
	for a := 0; a <= 360; a += 45 {
		p = append(p, calibrate.Point{Value: float64(a), Angle: a})
	}
	return calibrate.MustNew(p...)
}

// Profile returns a new instance of the named built-in instrument.
func Profile(name string) (*Instrument, error) {
	f, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("%s: unknown instrument", name)
	}
	return f(), nil
}

// Profiles returns the names of the built-in instruments.
func Profiles() []string {
	var n []string
	for k := range profiles {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}

// Override replaces the built-in calibration tables with any
// provided for this instrument.
func (inst *Instrument) Override(set calibrate.Set) {
	for i := range inst.Motors {
		if t, ok := set.Lookup(inst.Name, i); ok {
			inst.Motors[i].Table = t
		}
	}
}

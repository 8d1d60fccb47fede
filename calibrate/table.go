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

// Package calibrate converts instrument values to gauge angles using
// a table of calibration breakpoints.
package calibrate

import (
	"errors"
	"fmt"
	"math"
)

// ErrTable is returned (wrapped) when a calibration table is malformed.
var ErrTable = errors.New("invalid calibration table")

// Point is a single calibration breakpoint, mapping an
// instrument value to a needle angle in degrees.
type Point struct {
	Value float64 `yaml:"value"`
	Angle int     `yaml:"angle"`
}

// Table is an ordered set of breakpoints, with strictly increasing values.
// The angles do not need to be monotonic; a gauge that sweeps across
// the 0/360 boundary (e.g a vertical speed dial) is simply a table where the
// angle drops back towards 0 between two breakpoints.
// A Table is immutable once created.
type Table struct {
	points []Point
}

// New creates a Table from the breakpoints provided.
// At least 2 points are required, values must be strictly increasing
// and angles must lie within [0, 360].
func New(points ...Point) (*Table, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: %d breakpoints (need at least 2)", ErrTable, len(points))
	}
	for i, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, fmt.Errorf("%w: breakpoint %d: value is not finite", ErrTable, i)
		}
		if p.Angle < 0 || p.Angle > 360 {
			return nil, fmt.Errorf("%w: breakpoint %d: angle %d out of range", ErrTable, i, p.Angle)
		}
		if i > 0 && p.Value <= points[i-1].Value {
			return nil, fmt.Errorf("%w: breakpoint %d: value %g not greater than %g", ErrTable, i, p.Value, points[i-1].Value)
		}
	}
	t := new(Table)
	t.points = append([]Point(nil), points...)
	return t, nil
}

// MustNew is like New, but panics if the table is invalid.
// Used for built-in tables.
func MustNew(points ...Point) *Table {
	t, err := New(points...)
	if err != nil {
		panic(err)
	}
	return t
}

// Points returns a copy of the breakpoints.
func (t *Table) Points() []Point {
	return append([]Point(nil), t.points...)
}

// Min returns the lowest calibrated value.
func (t *Table) Min() float64 {
	return t.points[0].Value
}

// Max returns the highest calibrated value.
func (t *Table) Max() float64 {
	return t.points[len(t.points)-1].Value
}

// Angle converts a value to a needle angle using linear interpolation
// between the breakpoints that bracket the value.
// Values outside the table are clamped to the first or last angle.
// A value that lies exactly on a breakpoint returns that breakpoint's angle.
func (t *Table) Angle(value float64) int {
	first := t.points[0]
	if value <= first.Value {
		return first.Angle
	}
	last := t.points[len(t.points)-1]
	if value >= last.Value {
		return last.Angle
	}
	for i := 0; i < len(t.points)-1; i++ {
		p1 := t.points[i]
		p2 := t.points[i+1]
		if value >= p1.Value && value < p2.Value {
			if value == p1.Value {
				return p1.Angle
			}
			ratio := (value - p1.Value) / (p2.Value - p1.Value)
			return int(math.Round(float64(p1.Angle) + ratio*float64(p2.Angle-p1.Angle)))
		}
	}
	// Not reachable with a validated table.
	return first.Angle
}

// Wrap normalises a heading style value into the range [0, 360).
func Wrap(value float64) float64 {
	v := math.Mod(value, 360)
	if v < 0 {
		v += 360
	}
	return v
}

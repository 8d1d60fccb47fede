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

// Package motion plans needle movements on a circular dial.
package motion

import (
	"math"
)

// StepsPerRev is the number of full steps in a single revolution
// of the needle stepper.
const StepsPerRev = 2048

// Plan is a single planned movement of a needle.
// Target is the normalised target angle (0-359), Delta the signed
// angular distance in degrees, Steps the unsigned step count and
// Direction is +1 (clockwise) or -1 (counter-clockwise).
type Plan struct {
	Target    int
	Delta     int
	Steps     int
	Direction int
}

// Angle returns the displayed angle (0-359) for an absolute step position,
// rounded to the nearest degree.
// The step position is unbounded, so it may include multiple revolutions
// in either direction.
func Angle(position int64) int {
	a := int(math.Round(float64(position)*360/StepsPerRev)) % 360
	if a < 0 {
		a += 360
	}
	return a
}

// Steps returns the number of steps corresponding to an angle in degrees.
func Steps(degrees int) int {
	return int(math.Round(float64(degrees) * StepsPerRev / 360))
}

// PlanMove plans the movement of a needle from its current step position to
// the target angle, after clamping the target to [min, max].
// The shortest path around the dial is always chosen, so a needle never
// travels more than 180 degrees.
// false is returned if the needle is already at the target.
func PlanMove(position int64, target, min, max int) (Plan, bool) {
	if target < min {
		target = min
	}
	if target > max {
		target = max
	}
	current := Angle(position)
	norm := target % 360
	if norm < 0 {
		norm += 360
	}
	delta := norm - current
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	if delta == 0 {
		return Plan{Target: norm}, false
	}
	p := Plan{Target: norm, Delta: delta, Direction: 1}
	if delta < 0 {
		p.Direction = -1
		delta = -delta
	}
	p.Steps = Steps(delta)
	return p, true
}

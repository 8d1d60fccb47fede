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
	"math"

	"github.com/aamcrae/gauge/calibrate"
)

// HeadingBug links the compass card (motor 0) and the heading bug (motor 1)
// of a gyrocompass. The bug is positioned relative to the card, so it
// must be moved whenever either the heading or the selected bug heading changes.
// The bug heading starts at 0.
type HeadingBug struct {
	heading float64
	bug     float64
}

// Value implements Linkage.
func (h *HeadingBug) Value(motor int, value float64, tables []*calibrate.Table) ([]Target, bool) {
	switch motor {
	case 0:
		h.heading = calibrate.Wrap(value)
		a := int(math.Round(h.heading)) % 360
		if len(tables) > 0 && tables[0] != nil {
			a = tables[0].Angle(h.heading)
		}
		return []Target{{Motor: 0, Angle: a}, {Motor: 1, Angle: h.Relative()}}, true
	case 1:
		h.bug = calibrate.Wrap(value)
		return []Target{{Motor: 1, Angle: h.Relative()}}, true
	}
	return nil, false
}

// Relative returns the angle of the bug relative to the compass card.
func (h *HeadingBug) Relative() int {
	return int(math.Round(calibrate.Wrap(h.bug-h.heading))) % 360
}

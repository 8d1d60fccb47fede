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

package monitor

import (
	"log"
	"math"
	"net/http"

	"github.com/fogleman/gg"

	"github.com/aamcrae/gauge/stepper"
)

const dialSize = 400

// Needle colours, by motor.
var needleRGB = [][3]float64{
	{1, 1, 1},
	{1, 0.5, 0},
}

func (s *Server) dial(w http.ResponseWriter, r *http.Request) {
	c := DrawDial(s.dev.Status())
	w.Header().Set("Content-Type", "image/png")
	if err := c.EncodePNG(w); err != nil {
		log.Printf("monitor: error writing image: %v", err)
	}
}

// DrawDial renders a dial face with a needle for each motor.
// 0 degrees is at the top, increasing clockwise.
func DrawDial(motors []stepper.Status) *gg.Context {
	c := gg.NewContext(dialSize, dialSize)
	mid := float64(dialSize) / 2
	c.SetRGB(0.1, 0.1, 0.1)
	c.Clear()
	c.SetRGB(0.8, 0.8, 0.8)
	c.SetLineWidth(3)
	c.DrawCircle(mid, mid, mid-10)
	c.Stroke()
	for a := 0; a < 360; a += 30 {
		tick := 15.0
		if a%90 == 0 {
			tick = 30
		}
		drawRadial(c, mid, float64(a), mid-10-tick, mid-10, 2)
	}
	for i, m := range motors {
		rgb := needleRGB[i%len(needleRGB)]
		c.SetRGB(rgb[0], rgb[1], rgb[2])
		width := 8.0
		length := mid - 40
		if i > 0 {
			width = 4
			length = mid - 20
		}
		drawRadial(c, mid, float64(m.Angle), 0, length, width)
	}
	c.SetRGB(0.5, 0.5, 0.5)
	c.DrawCircle(mid, mid, 10)
	c.Fill()
	return c
}

// drawRadial draws a line along the angle between the two radii.
func drawRadial(c *gg.Context, mid, angle, from, to, width float64) {
	rad := angle * math.Pi / 180
	x, y := math.Sin(rad), -math.Cos(rad)
	c.SetLineWidth(width)
	c.DrawLine(mid+x*from, mid+y*from, mid+x*to, mid+y*to)
	c.Stroke()
}

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

package stepper

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/aamcrae/gauge/io"
	"github.com/aamcrae/gauge/motion"
)

// manualTimer lets a test drive the ticks directly.
type manualTimer struct {
	running bool
	starts  int
	stops   int
}

func (t *manualTimer) Start() {
	t.running = true
	t.starts++
}

func (t *manualTimer) Stop() {
	t.running = false
	t.stops++
}

// run ticks the motor until it stops or max ticks have elapsed.
func run(m *Motor, t *manualTimer, max int) int {
	n := 0
	for t.running && n < max {
		n++
		if !m.Tick() {
			t.running = false
		}
	}
	return n
}

func newTestMotor(reverse bool) (*Motor, *manualTimer, [4]*io.MemPin) {
	c, pins := io.MemCoil()
	m := NewMotor(0, c, reverse)
	t := new(manualTimer)
	m.Attach(t)
	return m, t, pins
}

func TestMove(t *testing.T) {
	Convey("Given an idle motor at 0", t, func() {
		m, tm, pins := newTestMotor(false)
		So(m.Active(), ShouldBeFalse)
		So(m.Tick(), ShouldBeFalse)

		Convey("moving to 90 steps a quarter revolution clockwise", func() {
			p, ok := m.MoveTo(90, 0, 360)
			So(ok, ShouldBeTrue)
			So(p.Steps, ShouldEqual, motion.StepsPerRev/4)
			So(m.Active(), ShouldBeTrue)
			So(tm.running, ShouldBeTrue)
			So(run(m, tm, 10000), ShouldEqual, motion.StepsPerRev/4)
			So(m.Active(), ShouldBeFalse)
			st := m.Status()
			So(st.Steps, ShouldEqual, motion.StepsPerRev/4)
			So(st.Angle, ShouldEqual, 90)
			So(st.Target, ShouldEqual, 90)
			So(st.Faults, ShouldEqual, 0)
		})
		Convey("each tick outputs the pattern for the current phase", func() {
			m.MoveTo(1, 0, 360)
			So(m.Tick(), ShouldBeTrue)
			So(io.Pattern(pins), ShouldEqual, FullStep[0])
			So(m.Tick(), ShouldBeTrue)
			So(io.Pattern(pins), ShouldEqual, FullStep[1])
			So(m.Tick(), ShouldBeTrue)
			So(io.Pattern(pins), ShouldEqual, FullStep[2])
			So(m.Tick(), ShouldBeTrue)
			So(io.Pattern(pins), ShouldEqual, FullStep[3])
			So(m.Tick(), ShouldBeTrue)
			So(io.Pattern(pins), ShouldEqual, FullStep[0])
		})
		Convey("counter-clockwise moves run the phases backwards", func() {
			m.MoveTo(359, 0, 360)
			So(m.Tick(), ShouldBeTrue)
			So(io.Pattern(pins), ShouldEqual, FullStep[0])
			So(m.Tick(), ShouldBeTrue)
			So(io.Pattern(pins), ShouldEqual, FullStep[3])
			So(m.Tick(), ShouldBeTrue)
			So(io.Pattern(pins), ShouldEqual, FullStep[2])
			So(m.Steps(), ShouldEqual, -3)
		})
		Convey("moving to the current angle does nothing", func() {
			_, ok := m.MoveTo(0, 0, 360)
			So(ok, ShouldBeFalse)
			So(m.Active(), ShouldBeFalse)
			So(tm.running, ShouldBeFalse)
		})
	})
}

func TestReverse(t *testing.T) {
	Convey("a reversed motor runs the phases backwards but counts the same", t, func() {
		m, tm, pins := newTestMotor(true)
		m.MoveTo(1, 0, 360)
		So(m.Tick(), ShouldBeTrue)
		So(io.Pattern(pins), ShouldEqual, FullStep[0])
		So(m.Tick(), ShouldBeTrue)
		So(io.Pattern(pins), ShouldEqual, FullStep[3])
		run(m, tm, 100)
		So(m.Steps(), ShouldEqual, motion.Steps(1))
	})
}

func TestPreempt(t *testing.T) {
	Convey("Given a motor part way through a move", t, func() {
		m, tm, _ := newTestMotor(false)
		m.MoveTo(180, 0, 360)
		So(run(m, tm, 300), ShouldEqual, 300)
		So(m.Active(), ShouldBeTrue)
		stops := tm.stops

		Convey("a new move is planned from the actual position", func() {
			p, ok := m.MoveTo(0, 0, 360)
			So(tm.stops, ShouldEqual, stops+1)
			So(ok, ShouldBeTrue)
			So(p.Direction, ShouldEqual, -1)
			So(p.Delta, ShouldEqual, -motion.Angle(300))
			So(p.Steps, ShouldEqual, motion.Steps(motion.Angle(300)))
			run(m, tm, 10000)
			So(m.Status().Angle, ShouldEqual, 0)
			So(m.Steps(), ShouldEqual, 300-p.Steps)
		})
		Convey("zeroing abandons the move without stepping", func() {
			m.Zero()
			So(m.Active(), ShouldBeFalse)
			So(m.Steps(), ShouldEqual, 0)
			So(tm.running, ShouldBeFalse)
			So(m.Tick(), ShouldBeFalse)
			So(m.Steps(), ShouldEqual, 0)
		})
	})
}

func TestNotify(t *testing.T) {
	Convey("completion and zeroing are notified", t, func() {
		m, tm, _ := newTestMotor(false)
		var got []Status
		m.Notify = func(s Status) {
			got = append(got, s)
		}
		m.MoveTo(45, 0, 360)
		run(m, tm, 10000)
		So(len(got), ShouldEqual, 1)
		So(got[0].Angle, ShouldEqual, 45)
		So(got[0].Active, ShouldBeFalse)
		m.Zero()
		So(len(got), ShouldEqual, 2)
		So(got[1].Steps, ShouldEqual, 0)
	})
}

func TestZeroIdempotent(t *testing.T) {
	Convey("the same move from a zeroed motor gives the same plan", t, func() {
		m, tm, _ := newTestMotor(false)
		m.MoveTo(123, 0, 360)
		run(m, tm, 10000)
		m.Zero()
		p1, ok1 := m.MoveTo(107, 0, 360)
		run(m, tm, 10000)
		m.Zero()
		m.Zero()
		p2, ok2 := m.MoveTo(107, 0, 360)
		So(ok1, ShouldBeTrue)
		So(ok2, ShouldBeTrue)
		So(p2, ShouldResemble, p1)
	})
}

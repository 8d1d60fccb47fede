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

// Package stepper sequences the steps of the needle stepper motors.
package stepper

import (
	"log"
	"sync/atomic"

	"github.com/aamcrae/gauge/motion"
)

// FullStep is the full step sequence of outputs, one 4 bit
// coil pattern per phase.
var FullStep = [4]uint8{
	0b1100,
	0b0110,
	0b0011,
	0b1001,
}

// Coil is the output driven on each step.
type Coil interface {
	Output(uint8) error
}

// Timer periodically invokes the motor's Tick method.
// Stop must not return while a tick is in progress, and Start restarts
// the period from zero.
type Timer interface {
	Start()
	Stop()
}

// Status is a snapshot of a motor's state.
type Status struct {
	ID     int   `json:"id"`
	Steps  int64 `json:"steps"`
	Angle  int   `json:"angle"`
	Target int   `json:"target"`
	Active bool  `json:"active"`
	Faults int64 `json:"faults"`
}

// Motor represents one needle stepper.
// The step position is an absolute number, referenced from 0 when the
// motor is created or zeroed, and may be negative or span multiple revolutions.
//
// Two execution contexts share the motor: the timer, which calls Tick, and
// the foreground, which calls MoveTo and Zero. The foreground always stops the
// timer before writing the move fields (active, remaining, direction, target),
// and the timer is the only writer of the position and phase while it runs.
// Position, active and target are also published atomically so that
// Status may be called from any goroutine.
type Motor struct {
	ID      int
	Reverse bool         // Phase sequence runs backwards (mechanically reversed wiring)
	Notify  func(Status) // Called on completion, in timer context. Must not block.
	coil    Coil
	timer   Timer
	phase   int // Index into the step sequence
	remain  int // Steps remaining in current move
	dir     int // +1 or -1
	pos     atomic.Int64
	active  atomic.Bool
	target  atomic.Int32
	faults  atomic.Int64
}

// NewMotor creates a motor driving the coil.
// A timer must be attached before the motor is moved.
func NewMotor(id int, coil Coil, reverse bool) *Motor {
	m := new(Motor)
	m.ID = id
	m.coil = coil
	m.Reverse = reverse
	m.dir = 1
	return m
}

// Attach sets the timer used to sequence the steps.
func (m *Motor) Attach(t Timer) {
	m.timer = t
}

// Steps returns the current absolute step position.
func (m *Motor) Steps() int64 {
	return m.pos.Load()
}

// Active returns true if a move is in progress.
func (m *Motor) Active() bool {
	return m.active.Load()
}

// Status returns a snapshot of the motor state.
func (m *Motor) Status() Status {
	p := m.pos.Load()
	return Status{
		ID:     m.ID,
		Steps:  p,
		Angle:  motion.Angle(p),
		Target: int(m.target.Load()),
		Active: m.active.Load(),
		Faults: m.faults.Load(),
	}
}

// MoveTo plans and starts a move to the target angle, clamped to [min, max].
// Any move in progress is abandoned, and the new move is planned from
// the actual current position of the motor.
// false is returned if no movement is required.
func (m *Motor) MoveTo(target, min, max int) (motion.Plan, bool) {
	m.timer.Stop()
	pos := m.pos.Load()
	p, ok := motion.PlanMove(pos, target, min, max)
	if !ok {
		m.active.Store(false)
		m.remain = 0
		m.target.Store(int32(p.Target))
		log.Printf("motor %d: already at target %d°", m.ID, p.Target)
		return p, false
	}
	log.Printf("motor %d: start current=%d° (steps %d), target=%d° (delta %d°, steps %d, %s)",
		m.ID, motion.Angle(pos), pos, p.Target, p.Delta, p.Steps, dirName(p.Direction))
	m.target.Store(int32(p.Target))
	m.remain = p.Steps
	m.dir = p.Direction
	m.active.Store(true)
	m.timer.Start()
	return p, true
}

// Zero abandons any move in progress and resets the position
// and phase to 0 without moving the motor.
func (m *Motor) Zero() {
	m.timer.Stop()
	m.active.Store(false)
	m.remain = 0
	m.pos.Store(0)
	m.phase = 0
	m.target.Store(0)
	log.Printf("motor %d: zeroed", m.ID)
	if m.Notify != nil {
		m.Notify(m.Status())
	}
}

// Tick performs a single step of the current move.
// It returns false when there is nothing more to do, so the
// timer can be disarmed.
func (m *Motor) Tick() bool {
	if !m.active.Load() || m.remain <= 0 {
		return false
	}
	if err := m.coil.Output(FullStep[m.phase]); err != nil {
		m.faults.Add(1)
	}
	inc := m.dir
	if m.Reverse {
		inc = -inc
	}
	m.phase = (m.phase + inc) & 3
	m.remain--
	m.pos.Add(int64(m.dir))
	if m.remain > 0 {
		return true
	}
	m.active.Store(false)
	s := m.Status()
	log.Printf("motor %d: reached target %d° (steps %d)", m.ID, s.Angle, s.Steps)
	if m.Notify != nil {
		m.Notify(s)
	}
	return false
}

func dirName(d int) string {
	if d > 0 {
		return "CW"
	}
	return "CCW"
}

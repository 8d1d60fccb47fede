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
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aamcrae/gauge/calibrate"
	"github.com/aamcrae/gauge/stepper"
)

// MaxMotors is the maximum number of needles on a device.
const MaxMotors = 2

// ErrClosed is returned for commands received after the device is closed.
var ErrClosed = errors.New("device closed")

// TimerFunc creates the timer that sequences the steps of a motor.
type TimerFunc func(tick func() bool) stepper.Timer

// Ticks returns a TimerFunc creating a background Ticker for each motor.
func Ticks(period time.Duration) TimerFunc {
	return func(tick func() bool) stepper.Timer {
		return stepper.NewTicker(period, tick)
	}
}

// Device is a single instrument and the motors driving its needles.
// Commands are serialised so that only one foreground caller is
// mutating the motors at any time.
type Device struct {
	ID         string
	Instrument *Instrument
	Started    time.Time
	mu         sync.Mutex
	closed     bool
	motors     []*stepper.Motor
	coils      []stepper.Coil
	timers     []stepper.Timer
	tables     []*calibrate.Table
	wmu        sync.RWMutex
	watchers   []func(stepper.Status)
}

// NewDevice creates the motors for the instrument, one per coil.
func NewDevice(id string, inst *Instrument, coils []stepper.Coil, timer TimerFunc) (*Device, error) {
	if n := len(inst.Motors); n < 1 || n > MaxMotors {
		return nil, fmt.Errorf("%s: %d motors (must be 1 to %d)", inst.Name, n, MaxMotors)
	}
	if len(coils) != len(inst.Motors) {
		return nil, fmt.Errorf("%s: %d coils for %d motors", inst.Name, len(coils), len(inst.Motors))
	}
	d := new(Device)
	d.ID = id
	d.Instrument = inst
	d.Started = time.Now()
	d.coils = coils
	for i, mc := range inst.Motors {
		m := stepper.NewMotor(i, coils[i], mc.Reverse)
		m.Notify = d.notify
		t := timer(m.Tick)
		m.Attach(t)
		d.motors = append(d.motors, m)
		d.timers = append(d.timers, t)
		d.tables = append(d.tables, mc.Table)
	}
	log.Printf("%s: %s instrument with %d motor(s)", id, inst.Name, len(d.motors))
	return d, nil
}

// Watch registers a function to be called when a motor
// completes a move or is zeroed. It is called from the step timer
// context, so it must not block.
func (d *Device) Watch(f func(stepper.Status)) {
	d.wmu.Lock()
	d.watchers = append(d.watchers, f)
	d.wmu.Unlock()
}

func (d *Device) notify(s stepper.Status) {
	d.wmu.RLock()
	defer d.wmu.RUnlock()
	for _, f := range d.watchers {
		f(s)
	}
}

// Motors returns the number of motors.
func (d *Device) Motors() int {
	return len(d.motors)
}

// Status returns the state of all the motors.
func (d *Device) Status() []stepper.Status {
	var s []stepper.Status
	for _, m := range d.motors {
		s = append(s, m.Status())
	}
	return s
}

// MotorStatus returns the state of a single motor.
func (d *Device) MotorStatus(id int) (stepper.Status, error) {
	m, err := d.motor(id)
	if err != nil {
		return stepper.Status{}, err
	}
	return m.Status(), nil
}

// Uptime returns the time since the device was started.
func (d *Device) Uptime() time.Duration {
	return time.Since(d.Started)
}

// Dispatch parses and executes a command datagram.
func (d *Device) Dispatch(b []byte) error {
	c, err := Parse(b)
	if err != nil {
		return err
	}
	return d.Handle(c)
}

// Handle executes a single command.
func (d *Device) Handle(c Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	m, err := d.motor(c.Motor)
	if err != nil {
		return err
	}
	switch c.Kind {
	case Value:
		return d.value(m, c.Value)
	case Angle:
		m.MoveTo(c.Angle, 0, 360)
	case Move:
		m.MoveTo(c.Angle, c.Min, c.Max)
	case Zero:
		m.Zero()
	default:
		return fmt.Errorf("%w: %v", ErrUnknown, c.Kind)
	}
	return nil
}

// Home moves all the needles to 0 degrees.
func (d *Device) Home() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	for _, m := range d.motors {
		m.MoveTo(0, 0, 360)
	}
}

// Close stops the motors and turns off the coils.
// Later commands are rejected with ErrClosed.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for i, t := range d.timers {
		t.Stop()
		if c, ok := t.(interface{ Close() }); ok {
			c.Close()
		}
		if err := d.coils[i].Output(0); err != nil {
			log.Printf("%s: motor %d: coils off: %v", d.ID, i, err)
		}
	}
}

func (d *Device) value(m *stepper.Motor, v float64) error {
	if l := d.Instrument.Link; l != nil {
		if targets, ok := l.Value(m.ID, v, d.tables); ok {
			for _, t := range targets {
				tm, err := d.motor(t.Motor)
				if err != nil {
					return err
				}
				log.Printf("motor %d: value %g -> %d°", t.Motor, v, t.Angle)
				tm.MoveTo(t.Angle, 0, 360)
			}
			return nil
		}
	}
	tbl := d.tables[m.ID]
	if tbl == nil {
		return fmt.Errorf("%w: motor %d", ErrNoTable, m.ID)
	}
	if d.Instrument.Motors[m.ID].Wrap {
		v = calibrate.Wrap(v)
	}
	a := tbl.Angle(v)
	log.Printf("motor %d: value %g -> %d°", m.ID, v, a)
	m.MoveTo(a, 0, 360)
	return nil
}

func (d *Device) motor(id int) (*stepper.Motor, error) {
	if id < 0 || id >= len(d.motors) {
		return nil, fmt.Errorf("%w: %d", ErrNoMotor, id)
	}
	return d.motors[id], nil
}

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

// Package input reads rotary encoders and reports their
// movement to the hub.
package input

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/aamcrae/gauge/io"
)

// PollPeriod is the default encoder sampling period.
const PollPeriod = time.Millisecond

// Event is a change in an encoder's position or button.
type Event struct {
	Name    string
	Value   int
	Pressed bool
}

// String returns the event in its wire format.
func (e Event) String() string {
	b := "released"
	if e.Pressed {
		b = "PRESSED"
	}
	return fmt.Sprintf("ENCODER:%s:%d:%s", e.Name, e.Value, b)
}

// Encoder is a quadrature rotary encoder (e.g an EC11) with a push button.
// The clock input is sampled, and on each falling edge the data input
// indicates the direction of rotation. The button is active low.
type Encoder struct {
	Name    string
	clk     io.Getter
	dt      io.Getter
	btn     io.Getter
	value   int
	lastClk int
	pressed bool
}

// NewEncoder creates an Encoder from the clock, data and button inputs.
func NewEncoder(name string, clk, dt, btn io.Getter) (*Encoder, error) {
	e := new(Encoder)
	e.Name = name
	e.clk = clk
	e.dt = dt
	e.btn = btn
	var err error
	e.lastClk, err = clk.Get()
	if err != nil {
		return nil, fmt.Errorf("%s: clk: %w", name, err)
	}
	return e, nil
}

// Value returns the current encoder count.
func (e *Encoder) Value() int {
	return e.value
}

// Poll samples the inputs once, returning any events.
func (e *Encoder) Poll() ([]Event, error) {
	var ev []Event
	clk, err := e.clk.Get()
	if err != nil {
		return nil, fmt.Errorf("%s: clk: %w", e.Name, err)
	}
	b, err := e.btn.Get()
	if err != nil {
		return nil, fmt.Errorf("%s: btn: %w", e.Name, err)
	}
	pressed := b == 0
	if e.lastClk == 1 && clk == 0 {
		dt, err := e.dt.Get()
		if err != nil {
			return nil, fmt.Errorf("%s: dt: %w", e.Name, err)
		}
		if dt == 1 {
			e.value++
		} else {
			e.value--
		}
		ev = append(ev, Event{Name: e.Name, Value: e.value, Pressed: pressed})
	}
	e.lastClk = clk
	if pressed != e.pressed {
		// Confirm the change with a second read.
		b, err = e.btn.Get()
		if err != nil {
			return nil, fmt.Errorf("%s: btn: %w", e.Name, err)
		}
		if confirm := b == 0; confirm != e.pressed {
			e.pressed = confirm
			ev = append(ev, Event{Name: e.Name, Value: e.value, Pressed: confirm})
		}
	}
	return ev, nil
}

// Run polls the encoder until the context is cancelled, sending
// events to the channel.
func (e *Encoder) Run(ctx context.Context, period time.Duration, out chan<- Event) error {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		ev, err := e.Poll()
		if err != nil {
			return err
		}
		for _, v := range ev {
			select {
			case out <- v:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Sender sends encoder events to the hub.
type Sender struct {
	conn net.Conn
}

// NewSender creates a Sender to the hub's encoder port.
func NewSender(hub string, port int) (*Sender, error) {
	conn, err := net.Dial("udp", net.JoinHostPort(hub, fmt.Sprint(port)))
	if err != nil {
		return nil, err
	}
	return &Sender{conn: conn}, nil
}

// Run sends events until the channel is closed or the context is cancelled.
// Send failures are logged.
func (s *Sender) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if _, err := s.conn.Write([]byte(e.String())); err != nil {
				log.Printf("encoder: send failed: %v", err)
			}
		}
	}
}

// Close closes the connection.
func (s *Sender) Close() error {
	return s.conn.Close()
}

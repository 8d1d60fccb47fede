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

// Simulator gauge program.
// Runs an instrument on in-memory coils, sweeping the needles through
// the calibration range, with the monitor and command port available.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aamcrae/gauge/gauge"
	gio "github.com/aamcrae/gauge/io"
	"github.com/aamcrae/gauge/monitor"
	"github.com/aamcrae/gauge/remote"
	"github.com/aamcrae/gauge/stepper"
)

var instrument = flag.String("instrument", "airspeed", "Instrument profile")
var port = flag.Int("port", 8080, "Web server port number, 0 to disable")
var command = flag.Int("command", 49003, "UDP command port, 0 to disable")
var step = flag.Duration("step", 5*time.Millisecond, "Step period")
var sweep = flag.Bool("sweep", true, "Sweep the needles through the calibration range")
var points = flag.Int("points", 8, "Number of points in each sweep")

func main() {
	flag.Parse()
	inst, err := gauge.Profile(*instrument)
	if err != nil {
		log.Fatalf("%v (available: %s)", err, strings.Join(gauge.Profiles(), ", "))
	}
	var coils []stepper.Coil
	var pins [][4]*gio.MemPin
	for range inst.Motors {
		c, p := gio.MemCoil()
		coils = append(coils, c)
		pins = append(pins, p)
	}
	dev, err := gauge.NewDevice("sim-"+inst.Name, inst, coils, gauge.Ticks(*step))
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer dev.Close()
	done := make(chan stepper.Status, 10)
	dev.Watch(func(s stepper.Status) {
		select {
		case done <- s:
		default:
		}
	})
	ctx := context.Background()
	if *port != 0 {
		go func() {
			log.Fatal(monitor.New(dev.ID, dev).ListenAndServe(ctx, *port))
		}()
	}
	if *command != 0 {
		l, err := remote.Listen(ctx, *command, dev)
		if err != nil {
			log.Fatalf("command port %d: %v", *command, err)
		}
		go l.Run(ctx, nil)
	}
	for {
		if *sweep {
			for i, m := range inst.Motors {
				if m.Table == nil && inst.Link == nil {
					continue
				}
				for _, v := range sweepValues(m, *points) {
					cmd := fmt.Sprintf("VALUE:%d:%g", i, v)
					if err := dev.Dispatch([]byte(cmd)); err != nil {
						log.Printf("%s: %v", cmd, err)
						continue
					}
					wait(dev, done)
					fmt.Printf("%s -> %s\n", cmd, positions(dev, pins))
				}
			}
		}
		time.Sleep(time.Second * 5)
		fmt.Printf("%s\n", positions(dev, pins))
	}
}

// sweepValues returns evenly spaced values across the motor's table,
// or across a full circle for a motor without a table.
func sweepValues(m gauge.MotorConfig, n int) []float64 {
	lo, hi := 0.0, 360.0
	if m.Table != nil {
		lo, hi = m.Table.Min(), m.Table.Max()
	}
	var v []float64
	for i := 0; i <= n; i++ {
		v = append(v, lo+(hi-lo)*float64(i)/float64(n))
	}
	return v
}

// wait waits for all the motors to stop.
func wait(dev *gauge.Device, done chan stepper.Status) {
	for {
		active := false
		for _, s := range dev.Status() {
			active = active || s.Active
		}
		if !active {
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func positions(dev *gauge.Device, pins [][4]*gio.MemPin) string {
	var b strings.Builder
	for i, s := range dev.Status() {
		fmt.Fprintf(&b, "[motor %d: %3d° steps %6d coil %04b] ", i, s.Angle, s.Steps, gio.Pattern(pins[i]))
	}
	return b.String()
}

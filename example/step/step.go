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

// Program to demonstrate how to drive a needle stepper.

package main

import (
	"flag"
	"log"
	"time"

	"github.com/aamcrae/gauge/io"
	"github.com/aamcrae/gauge/motion"
	"github.com/aamcrae/gauge/stepper"
)

var gpios = []*int{
	flag.Int("a1", 3, "GPIO pin for motor input 1"),
	flag.Int("a2", 4, "GPIO pin for motor input 2"),
	flag.Int("a3", 5, "GPIO pin for motor input 3"),
	flag.Int("a4", 6, "GPIO pin for motor input 4"),
}
var period = flag.Duration("period", 5*time.Millisecond, "Step period")
var angle = flag.Int("angle", 90, "Angle to swing the needle")
var reverse = flag.Bool("reverse", false, "Reverse the step sequence")

func main() {
	flag.Parse()
	var pins [4]int
	for i, gp := range gpios {
		pins[i] = *gp
	}
	coil, p, err := io.OpenCoil(pins)
	if err != nil {
		log.Fatalf("Coil %v: %v", pins, err)
	}
	defer p.Close()
	defer coil.Off()
	m := stepper.NewMotor(0, coil, *reverse)
	done := make(chan stepper.Status, 1)
	m.Notify = func(s stepper.Status) {
		done <- s
	}
	t := stepper.NewTicker(*period, m.Tick)
	defer t.Close()
	m.Attach(t)
	now := time.Now()
	a := *angle
	for i := 0; i < 10; i++ {
		if _, ok := m.MoveTo(a, 0, 360); ok {
			<-done
		}
		a = (360 - a) % 360
	}
	if _, ok := m.MoveTo(0, 0, 360); ok {
		<-done
	}
	log.Printf("Elapsed = %s, position = %d steps (%d per revolution)", time.Since(now), m.Steps(), motion.StepsPerRev)
}

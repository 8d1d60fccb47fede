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

// Program to demonstrate how to read a rotary encoder.

package main

import (
	"context"
	"flag"
	"log"

	"github.com/aamcrae/gauge/input"
	"github.com/aamcrae/gauge/io"
)

var clk = flag.Int("clk", 2, "GPIO pin for encoder clock")
var dt = flag.Int("dt", 3, "GPIO pin for encoder data")
var btn = flag.Int("btn", 10, "GPIO pin for encoder button")
var name = flag.String("name", "EC11_HdgBug", "Encoder name")

func main() {
	flag.Parse()
	p, err := io.InputPins(*clk, *dt, *btn)
	if err != nil {
		log.Fatalf("Encoder: %v", err)
	}
	defer p.Close()
	g := p.Getters()
	e, err := input.NewEncoder(*name, g[0], g[1], g[2])
	if err != nil {
		log.Fatalf("Encoder: %v", err)
	}
	events := make(chan input.Event)
	go func() {
		if err := e.Run(context.Background(), input.PollPeriod, events); err != nil {
			log.Fatalf("%v", err)
		}
	}()
	for ev := range events {
		log.Printf("%s", ev)
	}
}

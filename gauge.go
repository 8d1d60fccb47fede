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

// Gauge daemon: drives the needle steppers of an instrument from
// commands received over UDP.

package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aamcrae/gauge/gauge"
	gio "github.com/aamcrae/gauge/io"
	"github.com/aamcrae/gauge/input"
	"github.com/aamcrae/gauge/monitor"
	"github.com/aamcrae/gauge/remote"
	"github.com/aamcrae/gauge/stepper"
	"github.com/aamcrae/gauge/telemetry"
)

var configFile = flag.String("config", "gauge.conf", "Configuration file")

func main() {
	flag.Parse()
	cfg, err := gauge.ReadConfig(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if cfg.Log != 0 {
		ls, err := remote.NewLogStream(ctx, cfg.Log)
		if err != nil {
			log.Fatalf("log stream: %v", err)
		}
		defer ls.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, ls))
		log.Printf("log: streaming on %s", ls.Addr())
	}
	inst, err := cfg.NewInstrument()
	if err != nil {
		log.Fatalf("%s: %v", cfg.Instrument, err)
	}
	var coils []stepper.Coil
	for i, m := range inst.Motors {
		c, pins, err := gio.OpenCoil(m.Pins)
		if err != nil {
			log.Fatalf("motor %d: %v", i, err)
		}
		defer pins.Close()
		coils = append(coils, c)
	}
	dev, err := gauge.NewDevice(cfg.ID, inst, coils, gauge.Ticks(cfg.Step))
	if err != nil {
		log.Fatalf("%s: %v", cfg.ID, err)
	}
	defer dev.Close()
	if cfg.MQTT != "" {
		client, err := telemetry.Connect(cfg.MQTT, cfg.ID)
		if err != nil {
			log.Fatalf("telemetry: %v", err)
		}
		defer client.Close()
		t := telemetry.New(cfg.ID, client)
		dev.Watch(t.Notify)
		go t.Run(ctx)
	}
	dev.Home()

	wd := remote.NewWatchdog(remote.DefaultTimeout)
	l, err := remote.Listen(ctx, cfg.Command, dev)
	if err != nil {
		log.Fatalf("command port %d: %v", cfg.Command, err)
	}
	if cfg.Hub != "" {
		hb := remote.NewHeartbeat(cfg.ID, cfg.Hub, cfg.Heartbeat, cfg.Interval)
		kick := wd.Register("heartbeat")
		go func() {
			if err := hb.Run(ctx, kick); err != nil {
				log.Fatalf("%v", err)
			}
		}()
		startEncoders(ctx, cfg)
	} else {
		log.Printf("no hub configured, heartbeat disabled")
	}
	if cfg.Monitor != 0 {
		m := monitor.New(cfg.ID, dev)
		go func() {
			if err := m.ListenAndServe(ctx, cfg.Monitor); err != nil {
				log.Fatalf("monitor: %v", err)
			}
		}()
	}
	go wd.Run(ctx)
	l.Run(ctx, wd.Register("command"))
	log.Printf("%s: shutting down", cfg.ID)
}

// startEncoders starts reading the encoders, sending events to the hub.
func startEncoders(ctx context.Context, cfg *gauge.Config) {
	if len(cfg.Encoders) == 0 {
		return
	}
	s, err := input.NewSender(cfg.Hub, cfg.Encoder)
	if err != nil {
		log.Fatalf("encoder: %v", err)
	}
	events := make(chan input.Event, 16)
	go s.Run(ctx, events)
	for _, ec := range cfg.Encoders {
		pins, err := gio.InputPins(ec.Clk, ec.Dt, ec.Btn)
		if err != nil {
			log.Fatalf("%s: %v", ec.Name, err)
		}
		g := pins.Getters()
		e, err := input.NewEncoder(ec.Name, g[0], g[1], g[2])
		if err != nil {
			log.Fatalf("%s: %v", ec.Name, err)
		}
		go func(name string) {
			defer pins.Close()
			if err := e.Run(ctx, input.PollPeriod, events); err != nil {
				log.Printf("%s: %v", name, err)
			}
		}(ec.Name)
		log.Printf("%s: encoder on pins %d,%d,%d", ec.Name, ec.Clk, ec.Dt, ec.Btn)
	}
}

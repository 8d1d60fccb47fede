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
	"time"

	"github.com/aamcrae/config"
	"github.com/aamcrae/gauge/calibrate"
	"github.com/caarlos0/env/v6"
	"go.uber.org/multierr"
)

// Config is the device configuration, read from a configuration file
// and then overridden from the environment.
type Config struct {
	ID         string `env:"GAUGE_ID"`
	Instrument string `env:"GAUGE_INSTRUMENT"`
	Hub        string `env:"GAUGE_HUB"`
	Command    int
	Heartbeat  int
	Encoder    int
	Interval   time.Duration
	Log        int
	Step       time.Duration
	Monitor    int    `env:"GAUGE_MONITOR"`
	MQTT       string `env:"GAUGE_MQTT"`
	Tables     string
	Motors     map[int]MotorPins
	Encoders   []EncoderConfig
}

// MotorPins overrides the coil GPIOs of a motor.
type MotorPins struct {
	Pins    [4]int
	Reverse *bool // nil keeps the instrument's setting
}

// EncoderConfig is a rotary encoder with a push button.
type EncoderConfig struct {
	Name string
	Clk  int
	Dt   int
	Btn  int
}

// Default returns the configuration used for any settings
// not present in the configuration file.
func Default() *Config {
	return &Config{
		ID:         "gauge",
		Instrument: "airspeed",
		Command:    49003,
		Heartbeat:  49002,
		Encoder:    49004,
		Interval:   5 * time.Second,
		Log:        9998,
		Step:       5 * time.Millisecond,
		Motors:     make(map[int]MotorPins),
	}
}

// ReadConfig reads the configuration file, applies any environment
// overrides and validates the result.
func ReadConfig(path string) (*Config, error) {
	conf, err := config.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c, err := ParseConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseConfig extracts the device configuration from the config sections.
// Sample config:
//  [device]
//  id=ESP_Airspeed          # device name, used in heartbeats
//  instrument=airspeed      # built-in instrument profile
//  hub=192.168.1.10         # address of the hub receiving heartbeats and encoder events
//  command=49003            # UDP command port
//  heartbeat=49002          # hub heartbeat port
//  encoder=49004            # hub encoder event port
//  interval=5s              # heartbeat interval
//  log=9998                 # TCP log stream port, 0 to disable
//  step=5ms                 # motor step period
//  monitor=8080             # HTTP monitor port, 0 to disable
//  mqtt=tcp://hub:1883      # MQTT broker for telemetry
//  tables=tables.yaml       # calibration table overrides
//  [motor0]
//  stepper=3,4,5,6          # coil GPIOs
//  reverse=1                # step sequence runs backwards
//  [encoder0]
//  name=EC11_HdgBug
//  pins=2,3,10              # clk, dt, button
func ParseConfig(conf *config.Config) (*Config, error) {
	c := Default()
	s := conf.GetSection("device")
	if s == nil {
		return nil, errors.New("no config for device")
	}
	var errs error
	str := func(key string, v *string) {
		if a, err := s.GetArg(key); err == nil && a != "" {
			*v = a
		}
	}
	num := func(key string, v *int) {
		if a, err := s.GetArg(key); err != nil || a == "" {
			return
		}
		n, err := s.Parse(key, "%d", v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %v", key, err))
		} else if n != 1 {
			errs = multierr.Append(errs, fmt.Errorf("%s: argument count", key))
		}
	}
	dur := func(key string, v *time.Duration) {
		a, err := s.GetArg(key)
		if err != nil || a == "" {
			return
		}
		d, err := time.ParseDuration(a)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %v", key, err))
			return
		}
		*v = d
	}
	str("id", &c.ID)
	str("instrument", &c.Instrument)
	str("hub", &c.Hub)
	num("command", &c.Command)
	num("heartbeat", &c.Heartbeat)
	num("encoder", &c.Encoder)
	dur("interval", &c.Interval)
	num("log", &c.Log)
	dur("step", &c.Step)
	num("monitor", &c.Monitor)
	str("mqtt", &c.MQTT)
	str("tables", &c.Tables)
	for i := 0; i < MaxMotors; i++ {
		m, ok, err := motorConfig(conf, i)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if ok {
			c.Motors[i] = m
		}
	}
	for i := 0; ; i++ {
		e, ok, err := encoderConfig(conf, i)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		if !ok {
			break
		}
		c.Encoders = append(c.Encoders, e)
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

func motorConfig(conf *config.Config, i int) (MotorPins, bool, error) {
	var m MotorPins
	name := fmt.Sprintf("motor%d", i)
	s := conf.GetSection(name)
	if s == nil {
		return m, false, nil
	}
	n, err := s.Parse("stepper", "%d,%d,%d,%d", &m.Pins[0], &m.Pins[1], &m.Pins[2], &m.Pins[3])
	if err != nil {
		return m, false, fmt.Errorf("%s: stepper: %v", name, err)
	}
	if n != 4 {
		return m, false, fmt.Errorf("%s: invalid stepper arguments", name)
	}
	if a, err := s.GetArg("reverse"); err == nil && a != "" {
		var r int
		if n, err := s.Parse("reverse", "%d", &r); err != nil || n != 1 {
			return m, false, fmt.Errorf("%s: reverse: invalid value", name)
		}
		rev := r != 0
		m.Reverse = &rev
	}
	return m, true, nil
}

func encoderConfig(conf *config.Config, i int) (EncoderConfig, bool, error) {
	var e EncoderConfig
	name := fmt.Sprintf("encoder%d", i)
	s := conf.GetSection(name)
	if s == nil {
		return e, false, nil
	}
	e.Name = name
	if a, err := s.GetArg("name"); err == nil && a != "" {
		e.Name = a
	}
	n, err := s.Parse("pins", "%d,%d,%d", &e.Clk, &e.Dt, &e.Btn)
	if err != nil {
		return e, true, fmt.Errorf("%s: pins: %v", name, err)
	}
	if n != 3 {
		return e, true, fmt.Errorf("%s: invalid pins arguments", name)
	}
	return e, true, nil
}

// Validate checks the configuration, reporting all problems found.
func (c *Config) Validate() error {
	var errs error
	if c.ID == "" {
		errs = multierr.Append(errs, errors.New("id: must be set"))
	}
	if _, ok := profiles[c.Instrument]; !ok {
		errs = multierr.Append(errs, fmt.Errorf("instrument: unknown instrument %q", c.Instrument))
	}
	port := func(name string, p int, optional bool) {
		if (p == 0 && optional) || (p > 0 && p < 65536) {
			return
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: invalid port %d", name, p))
	}
	port("command", c.Command, false)
	port("heartbeat", c.Heartbeat, false)
	port("encoder", c.Encoder, false)
	port("log", c.Log, true)
	port("monitor", c.Monitor, true)
	if c.Interval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("interval: must be positive"))
	}
	if c.Step <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("step: must be positive"))
	}
	for i := range c.Motors {
		if i < 0 || i >= MaxMotors {
			errs = multierr.Append(errs, fmt.Errorf("motor%d: %w", i, ErrNoMotor))
		}
	}
	return errs
}

// NewInstrument creates the configured instrument, applying any
// calibration table and pin overrides.
func (c *Config) NewInstrument() (*Instrument, error) {
	inst, err := Profile(c.Instrument)
	if err != nil {
		return nil, err
	}
	if c.Tables != "" {
		set, err := calibrate.Load(c.Tables)
		if err != nil {
			return nil, err
		}
		inst.Override(set)
	}
	for i, m := range c.Motors {
		if i >= len(inst.Motors) {
			return nil, fmt.Errorf("motor%d: %w for %s", i, ErrNoMotor, inst.Name)
		}
		inst.Motors[i].Pins = m.Pins
		if m.Reverse != nil {
			inst.Motors[i].Reverse = *m.Reverse
		}
	}
	return inst, nil
}

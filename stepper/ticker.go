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
	"sync/atomic"
	"time"
)

// Ticker is a Timer that runs the tick function in a background goroutine.
// Ticks and control requests are handled in the same goroutine, so once
// Stop returns no tick is running, and none will run until Start is called.
type Ticker struct {
	period  time.Duration
	tick    func() bool
	ctl     chan ctlMsg
	done    chan struct{}
	running atomic.Bool
}

type ctlMsg struct {
	run bool
	ack chan struct{}
}

// NewTicker creates a stopped Ticker that will call tick once per period.
// If tick returns false, the ticker stops itself.
func NewTicker(period time.Duration, tick func() bool) *Ticker {
	t := new(Ticker)
	t.period = period
	t.tick = tick
	t.ctl = make(chan ctlMsg)
	t.done = make(chan struct{})
	go t.handler()
	return t
}

// Start arms the ticker, with the first tick one period from now.
func (t *Ticker) Start() {
	t.send(true)
}

// Stop disarms the ticker, waiting for any tick in progress to complete.
func (t *Ticker) Stop() {
	t.send(false)
}

// Running returns true if the ticker is armed.
func (t *Ticker) Running() bool {
	return t.running.Load()
}

// Close stops the ticker and terminates the goroutine.
// The ticker must not be used after Close.
func (t *Ticker) Close() {
	close(t.ctl)
	<-t.done
}

func (t *Ticker) send(run bool) {
	ack := make(chan struct{})
	t.ctl <- ctlMsg{run: run, ack: ack}
	<-ack
}

// goroutine handler
// Listens on the control channel, and calls the tick function
// on each period while armed.
func (t *Ticker) handler() {
	defer close(t.done)
	var tk *time.Ticker
	var c <-chan time.Time
	halt := func() {
		if tk != nil {
			tk.Stop()
			tk = nil
			c = nil
		}
		t.running.Store(false)
	}
	defer halt()
	for {
		select {
		case m, ok := <-t.ctl:
			if !ok {
				return
			}
			halt()
			if m.run {
				tk = time.NewTicker(t.period)
				c = tk.C
				t.running.Store(true)
			}
			close(m.ack)
		case <-c:
			if !t.tick() {
				halt()
			}
		}
	}
}

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

package remote

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout is the longest a watched loop may go without a kick.
const DefaultTimeout = 60 * time.Second

// Watchdog checks that registered loops are still running.
// Each loop calls its kick function regularly; a loop that has not
// kicked within the timeout is considered hung.
type Watchdog struct {
	Timeout time.Duration
	mu      sync.Mutex
	last    map[string]time.Time
	now     func() time.Time
}

// NewWatchdog creates a Watchdog with the timeout.
func NewWatchdog(timeout time.Duration) *Watchdog {
	w := new(Watchdog)
	w.Timeout = timeout
	w.last = make(map[string]time.Time)
	w.now = time.Now
	return w
}

// Register adds a loop to be watched, returning its kick function.
func (w *Watchdog) Register(name string) func() {
	w.mu.Lock()
	w.last[name] = w.now()
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		w.last[name] = w.now()
		w.mu.Unlock()
	}
}

// Check returns an error naming any loops that have not kicked within the timeout.
func (w *Watchdog) Check() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	var hung []string
	for name, t := range w.last {
		if now.Sub(t) > w.Timeout {
			hung = append(hung, name)
		}
	}
	if len(hung) == 0 {
		return nil
	}
	sort.Strings(hung)
	return fmt.Errorf("watchdog: no activity for %s from %s", w.Timeout, strings.Join(hung, ", "))
}

// Run checks the loops until the context is cancelled.
// A hung loop is fatal.
func (w *Watchdog) Run(ctx context.Context) {
	t := time.NewTicker(w.Timeout / 4)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := w.Check(); err != nil {
				log.Fatalf("%v", err)
			}
		}
	}
}

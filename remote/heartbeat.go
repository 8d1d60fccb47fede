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
	"net"
	"time"
)

// Number of heartbeats between info log messages.
const heartbeatLog = 6

// Format returns the heartbeat message for a device.
func Format(id string, uptime time.Duration) string {
	return fmt.Sprintf("HEARTBEAT:%s:%d", id, int64(uptime/time.Second))
}

// Heartbeat periodically sends a liveness datagram to the hub.
type Heartbeat struct {
	ID       string
	Dest     string        // host:port of the hub
	Interval time.Duration // Period between heartbeats
	Delay    time.Duration // Delay before the first heartbeat
	Kick     time.Duration // Period between watchdog kicks
	Started  time.Time     // Reference for the uptime
}

// NewHeartbeat creates a Heartbeat sending to the hub address.
func NewHeartbeat(id, hub string, port int, interval time.Duration) *Heartbeat {
	h := new(Heartbeat)
	h.ID = id
	h.Dest = net.JoinHostPort(hub, fmt.Sprint(port))
	h.Interval = interval
	h.Delay = 2 * time.Second
	h.Kick = time.Second
	h.Started = time.Now()
	return h
}

// Run sends heartbeats until the context is cancelled.
// Send failures are logged, and retried on the next interval.
// The watchdog is kicked every Kick period regardless of the heartbeat interval.
func (h *Heartbeat) Run(ctx context.Context, kick func()) error {
	conn, err := net.Dial("udp", h.Dest)
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	defer conn.Close()
	log.Printf("heartbeat: sending to %s every %s", h.Dest, h.Interval)
	if kick == nil {
		kick = func() {}
	}
	kt := time.NewTicker(h.Kick)
	defer kt.Stop()
	send := time.NewTimer(h.Delay)
	defer send.Stop()
	count := 0
	kick()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-kt.C:
			kick()
			continue
		case <-send.C:
		}
		kick()
		send.Reset(h.Interval)
		msg := Format(h.ID, time.Since(h.Started))
		if _, err := conn.Write([]byte(msg)); err != nil {
			log.Printf("heartbeat: send failed: %v", err)
			continue
		}
		count++
		if count%heartbeatLog == 1 {
			log.Printf("heartbeat: OK (%s)", msg)
		}
	}
}

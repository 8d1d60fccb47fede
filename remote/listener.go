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

// Package remote provides the network services of a gauge device:
// the UDP command listener, the heartbeat sent to the hub, and the
// TCP log stream.
package remote

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"time"
)

// BufferSize is the size of the command receive buffer.
const BufferSize = 1024

// pollTimeout is the receive deadline, allowing the
// listener to check for cancellation and kick the watchdog.
const pollTimeout = time.Second

// Dispatcher executes a command datagram.
type Dispatcher interface {
	Dispatch([]byte) error
}

// Listener receives command datagrams and passes them to the Dispatcher.
type Listener struct {
	conn net.PacketConn
	d    Dispatcher
}

// Listen opens the UDP command port.
func Listen(ctx context.Context, port int, d Dispatcher) (*Listener, error) {
	conn, err := listenUDP(ctx, port)
	if err != nil {
		return nil, err
	}
	l := new(Listener)
	l.conn = conn
	l.d = d
	log.Printf("command: listening on %s", conn.LocalAddr())
	return l, nil
}

// Addr returns the local address of the listener.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Run reads and dispatches commands until the context is cancelled.
// kick is called at least once every receive timeout.
// Malformed commands are logged and dropped.
func (l *Listener) Run(ctx context.Context, kick func()) error {
	defer l.conn.Close()
	buf := make([]byte, BufferSize)
	for {
		if kick != nil {
			kick()
		}
		if ctx.Err() != nil {
			return nil
		}
		l.conn.SetReadDeadline(time.Now().Add(pollTimeout))
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("command: receive failed: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		log.Printf("command: received %q from %s", buf[:n], from)
		if err := l.d.Dispatch(buf[:n]); err != nil {
			log.Printf("command: %v", err)
		}
	}
}

// Close closes the command socket, which terminates Run.
func (l *Listener) Close() error {
	return l.conn.Close()
}

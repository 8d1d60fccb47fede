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
	"log"
	"net"
	"sync"
	"time"
)

// writeTimeout limits how long a slow log client can stall the logger.
const writeTimeout = 100 * time.Millisecond

// LogStream copies log output to a single TCP client.
// A new client replaces any existing one, and a client that cannot
// be written to is dropped.
type LogStream struct {
	ln     net.Listener
	mu     sync.Mutex
	client net.Conn
}

// NewLogStream opens the log stream port and starts accepting clients.
func NewLogStream(ctx context.Context, port int) (*LogStream, error) {
	ln, err := listenTCP(ctx, port)
	if err != nil {
		return nil, err
	}
	s := new(LogStream)
	s.ln = ln
	go s.accept()
	return s, nil
}

// Addr returns the address of the listener.
func (s *LogStream) Addr() net.Addr {
	return s.ln.Addr()
}

// Connected returns true if a client is attached.
func (s *LogStream) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// Write sends the data to the client, if any.
// Errors are never returned, so the logger is not affected by the client.
func (s *LogStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := s.client.Write(p); err != nil {
			s.client.Close()
			s.client = nil
		}
	}
	return len(p), nil
}

// Close shuts down the listener and the client.
func (s *LogStream) Close() error {
	err := s.ln.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	return err
}

func (s *LogStream) accept() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.client != nil {
			s.client.Close()
		}
		s.client = c
		s.mu.Unlock()
		log.Printf("log: client %s connected", c.RemoteAddr())
	}
}

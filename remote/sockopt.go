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
	"net"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenConfig returns a ListenConfig that sets SO_REUSEADDR on the
// socket, so that a restarted daemon can bind immediately.
func listenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			err := c.Control(func(fd uintptr) {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return serr
		},
	}
}

// listenUDP opens a UDP socket on the port.
func listenUDP(ctx context.Context, port int) (net.PacketConn, error) {
	return listenConfig().ListenPacket(ctx, "udp4", net.JoinHostPort("", strconv.Itoa(port)))
}

// listenTCP opens a TCP listener on the port.
func listenTCP(ctx context.Context, port int) (net.Listener, error) {
	return listenConfig().Listen(ctx, "tcp4", net.JoinHostPort("", strconv.Itoa(port)))
}

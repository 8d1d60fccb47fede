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

// Bench utility
// Interactive shell to send commands to a gauge device, and to
// watch the heartbeats and encoder events it sends to the hub.

package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/aamcrae/gauge/gauge"
)

var device = flag.String("device", "127.0.0.1:49003", "Device command address")
var heartbeat = flag.Int("heartbeat", 49002, "Heartbeat port to listen on")
var encoder = flag.Int("encoder", 49004, "Encoder event port to listen on")

func main() {
	flag.Parse()
	conn, err := net.Dial("udp", *device)
	if err != nil {
		log.Fatalf("%s: %v", *device, err)
	}
	defer conn.Close()
	send := func(c *ishell.Context, cmd gauge.Command) {
		s := cmd.String()
		if _, err := conn.Write([]byte(s)); err != nil {
			c.Err(err)
			return
		}
		c.Printf("Sent %s to %s\n", s, *device)
	}

	shell := ishell.New()
	shell.Println("Gauge bench shell")
	shell.ShowPrompt(true)
	shell.AddCmd(&ishell.Cmd{
		Name: "value",
		Help: "value [motor] <value>",
		Func: func(c *ishell.Context) {
			cmd, err := parseArgs(c.Args, gauge.Value)
			if err != nil {
				c.Err(err)
				return
			}
			send(c, cmd)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "angle",
		Help: "angle [motor] <degrees>",
		Func: func(c *ishell.Context) {
			cmd, err := parseArgs(c.Args, gauge.Angle)
			if err != nil {
				c.Err(err)
				return
			}
			send(c, cmd)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "move",
		Help: "move <motor> <degrees> <min> <max>",
		Func: func(c *ishell.Context) {
			cmd, err := parseArgs(c.Args, gauge.Move)
			if err != nil {
				c.Err(err)
				return
			}
			send(c, cmd)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "zero",
		Help: "zero [motor]",
		Func: func(c *ishell.Context) {
			cmd, err := parseArgs(c.Args, gauge.Zero)
			if err != nil {
				c.Err(err)
				return
			}
			send(c, cmd)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "raw",
		Help: "raw <command> - send the command text as is",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Println("Usage: raw <command>")
				return
			}
			if _, err := conn.Write([]byte(c.Args[0])); err != nil {
				c.Err(err)
			}
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "listen",
		Help: "listen [seconds] - show heartbeats and encoder events",
		Func: func(c *ishell.Context) {
			d := 10 * time.Second
			if len(c.Args) > 0 {
				s, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				d = time.Duration(s) * time.Second
			}
			if err := listen(c, d, *heartbeat, *encoder); err != nil {
				c.Err(err)
			}
		},
	})
	shell.Run()
}

// parseArgs builds a command from the shell arguments.
// An omitted motor number defaults to 0.
func parseArgs(args []string, k gauge.Kind) (gauge.Command, error) {
	c := gauge.Command{Kind: k, Max: 360}
	num := func(i int) (int, error) {
		return strconv.Atoi(args[i])
	}
	var err error
	switch k {
	case gauge.Value:
		switch len(args) {
		case 1:
			c.Value, err = strconv.ParseFloat(args[0], 64)
		case 2:
			if c.Motor, err = num(0); err == nil {
				c.Value, err = strconv.ParseFloat(args[1], 64)
			}
		default:
			err = fmt.Errorf("value: wrong number of arguments")
		}
	case gauge.Angle:
		switch len(args) {
		case 1:
			c.Angle, err = num(0)
		case 2:
			if c.Motor, err = num(0); err == nil {
				c.Angle, err = num(1)
			}
		default:
			err = fmt.Errorf("angle: wrong number of arguments")
		}
	case gauge.Move:
		if len(args) != 4 {
			return c, fmt.Errorf("move: wrong number of arguments")
		}
		f := []*int{&c.Motor, &c.Angle, &c.Min, &c.Max}
		for i := range f {
			if *f[i], err = num(i); err != nil {
				break
			}
		}
	case gauge.Zero:
		if len(args) > 0 {
			c.Motor, err = num(0)
		}
	}
	return c, err
}

// listen prints the datagrams received on the ports for the duration.
func listen(c *ishell.Context, d time.Duration, ports ...int) error {
	msgs := make(chan string, 10)
	var conns []net.PacketConn
	for _, p := range ports {
		pc, err := net.ListenPacket("udp", fmt.Sprintf(":%d", p))
		if err != nil {
			for _, o := range conns {
				o.Close()
			}
			return err
		}
		conns = append(conns, pc)
		go func() {
			buf := make([]byte, 1024)
			for {
				n, from, err := pc.ReadFrom(buf)
				if err != nil {
					return
				}
				msgs <- fmt.Sprintf("%s: %s", from, buf[:n])
			}
		}()
	}
	defer func() {
		for _, pc := range conns {
			pc.Close()
		}
	}()
	c.Printf("Listening for %s\n", d)
	end := time.After(d)
	for {
		select {
		case m := <-msgs:
			c.Println(m)
		case <-end:
			return nil
		}
	}
}

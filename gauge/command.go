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

// Package gauge implements the instrument device: the command protocol,
// the built-in instrument profiles and the set of motors that
// make up a device.
package gauge

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxCommand is the largest command datagram accepted.
const MaxCommand = 1024

var (
	ErrUnknown = errors.New("unknown command")
	ErrSyntax  = errors.New("malformed command")
	ErrNoMotor = errors.New("no such motor")
	ErrNoTable = errors.New("no calibration table")
)

// Kind is the type of a command.
type Kind int

const (
	Value Kind = iota // Instrument value, converted via calibration
	Angle             // Absolute needle angle
	Move              // Needle angle with bounds
	Zero              // Reset the position reference
)

func (k Kind) String() string {
	switch k {
	case Value:
		return "VALUE"
	case Angle:
		return "ANGLE"
	case Move:
		return "MOVE"
	case Zero:
		return "ZERO"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Command is a single parsed command.
type Command struct {
	Kind  Kind
	Motor int
	Value float64
	Angle int
	Min   int
	Max   int
}

func (c Command) String() string {
	switch c.Kind {
	case Value:
		return fmt.Sprintf("VALUE:%d:%g", c.Motor, c.Value)
	case Angle:
		return fmt.Sprintf("ANGLE:%d:%d", c.Motor, c.Angle)
	case Move:
		return fmt.Sprintf("MOVE:%d:%d:%d:%d", c.Motor, c.Angle, c.Min, c.Max)
	}
	return fmt.Sprintf("ZERO:%d", c.Motor)
}

// Parse decodes a command datagram.
// Trailing whitespace and NULs are ignored. Numeric fields are scanned
// from the front of each field, so trailing garbage after a number is ignored.
//
//	VALUE:<value>            motor 0
//	VALUE:<motor>:<value>
//	ANGLE:<angle>            motor 0
//	ANGLE:<motor>:<angle>
//	MOVE:<motor>:<angle>:<min>:<max>
//	ZERO:<motor>
//
// MOVE fields that are missing take the defaults motor 0, angle 0, min 0
// and max 360, as does a missing ZERO motor.
func Parse(b []byte) (Command, error) {
	if len(b) > MaxCommand {
		b = b[:MaxCommand]
	}
	s := strings.TrimRight(string(b), " \t\r\n\x00")
	c := Command{Min: 0, Max: 360}
	switch {
	case strings.HasPrefix(s, "VALUE:"):
		c.Kind = Value
		arg := s[6:]
		if n, _ := fmt.Sscanf(arg, "%d:%f", &c.Motor, &c.Value); n != 2 {
			c.Motor = 0
			if n, _ := fmt.Sscanf(arg, "%f", &c.Value); n != 1 {
				return c, fmt.Errorf("%w: %q", ErrSyntax, s)
			}
		}
		if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
			return c, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
	case strings.HasPrefix(s, "ANGLE:"):
		c.Kind = Angle
		arg := s[6:]
		if n, _ := fmt.Sscanf(arg, "%d:%d", &c.Motor, &c.Angle); n != 2 {
			c.Motor = 0
			if n, _ := fmt.Sscanf(arg, "%d", &c.Angle); n != 1 {
				return c, fmt.Errorf("%w: %q", ErrSyntax, s)
			}
		}
	case strings.HasPrefix(s, "MOVE:"):
		c.Kind = Move
		var f [4]int
		f[3] = 360
		n, _ := fmt.Sscanf(s[5:], "%d:%d:%d:%d", &f[0], &f[1], &f[2], &f[3])
		// Fields from the first one not scanned keep their defaults.
		def := [4]int{0, 0, 0, 360}
		for i := n; i < len(f); i++ {
			f[i] = def[i]
		}
		c.Motor, c.Angle, c.Min, c.Max = f[0], f[1], f[2], f[3]
	case strings.HasPrefix(s, "ZERO:"):
		c.Kind = Zero
		if n, _ := fmt.Sscanf(s[5:], "%d", &c.Motor); n != 1 {
			c.Motor = 0
		}
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	return c, nil
}

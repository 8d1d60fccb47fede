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
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/aamcrae/gauge/io"
)

func TestTicker(t *testing.T) {
	Convey("the ticker stops itself when the tick returns false", t, func() {
		var n atomic.Int32
		done := make(chan struct{})
		tk := NewTicker(time.Millisecond, func() bool {
			if n.Add(1) == 5 {
				close(done)
				return false
			}
			return true
		})
		defer tk.Close()
		So(tk.Running(), ShouldBeFalse)
		tk.Start()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("ticker did not run")
		}
		// Allow the handler to process the disarm.
		deadline := time.Now().Add(5 * time.Second)
		for tk.Running() && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		So(tk.Running(), ShouldBeFalse)
		So(n.Load(), ShouldEqual, 5)
	})

	Convey("Stop waits for a tick in progress", t, func() {
		var inTick atomic.Bool
		entered := make(chan struct{}, 1)
		tk := NewTicker(time.Millisecond, func() bool {
			inTick.Store(true)
			select {
			case entered <- struct{}{}:
			default:
			}
			time.Sleep(20 * time.Millisecond)
			inTick.Store(false)
			return true
		})
		defer tk.Close()
		tk.Start()
		<-entered
		tk.Stop()
		So(inTick.Load(), ShouldBeFalse)
		So(tk.Running(), ShouldBeFalse)
	})
}

func TestMotorOnTicker(t *testing.T) {
	Convey("a motor driven by a real ticker reaches its target", t, func() {
		c, _ := io.MemCoil()
		m := NewMotor(1, c, false)
		done := make(chan Status, 1)
		m.Notify = func(s Status) {
			done <- s
		}
		tk := NewTicker(100*time.Microsecond, m.Tick)
		defer tk.Close()
		m.Attach(tk)
		m.MoveTo(90, 0, 360)
		// Preempt part way through.
		time.Sleep(2 * time.Millisecond)
		m.MoveTo(300, 0, 360)
		select {
		case s := <-done:
			So(s.Angle, ShouldEqual, 300)
			So(s.Active, ShouldBeFalse)
		case <-time.After(10 * time.Second):
			t.Fatal("move did not complete")
		}
	})
}

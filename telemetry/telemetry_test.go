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

package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/aamcrae/gauge/stepper"
)

type message struct {
	topic   string
	payload []byte
}

type chanPublisher chan message

func (c chanPublisher) Publish(topic string, payload []byte) error {
	c <- message{topic, payload}
	if topic == Topic("bad", 0) {
		return errors.New("broker unavailable")
	}
	return nil
}

func TestTelemetry(t *testing.T) {
	Convey("Motor events are published as JSON", t, func() {
		So(Topic("ESP_Airspeed", 1), ShouldEqual, "gauge/ESP_Airspeed/motor/1")
		pub := make(chanPublisher, 10)
		tm := New("ESP_Airspeed", pub)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go tm.Run(ctx)
		tm.Notify(stepper.Status{ID: 0, Steps: 609, Angle: 107})
		select {
		case m := <-pub:
			So(m.topic, ShouldEqual, "gauge/ESP_Airspeed/motor/0")
			var e Event
			So(json.Unmarshal(m.payload, &e), ShouldBeNil)
			So(e.Device, ShouldEqual, "ESP_Airspeed")
			So(e.Motor, ShouldEqual, 0)
			So(e.Steps, ShouldEqual, 609)
			So(e.Angle, ShouldEqual, 107)
			So(e.Time.IsZero(), ShouldBeFalse)
		case <-time.After(5 * time.Second):
			t.Fatal("event not published")
		}
	})

	Convey("Notify does not block when the queue is full", t, func() {
		tm := New("ESP_Airspeed", make(chanPublisher))
		for i := 0; i < queueDepth+5; i++ {
			tm.Notify(stepper.Status{ID: 0, Steps: int64(i)})
		}
		So(tm.Dropped(), ShouldEqual, 5)
	})

	Convey("Publish errors do not stop the publisher", t, func() {
		pub := make(chanPublisher, 10)
		tm := New("bad", pub)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go tm.Run(ctx)
		tm.Notify(stepper.Status{ID: 0})
		tm.Notify(stepper.Status{ID: 1})
		for _, want := range []string{Topic("bad", 0), Topic("bad", 1)} {
			select {
			case m := <-pub:
				So(m.topic, ShouldEqual, want)
			case <-time.After(5 * time.Second):
				t.Fatal("event not published")
			}
		}
	})
}

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

package monitor

import (
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/aamcrae/gauge/gauge"
	"github.com/aamcrae/gauge/stepper"
)

type fakeDevice struct {
	mu       sync.Mutex
	motors   []stepper.Status
	commands []string
}

func (f *fakeDevice) Status() []stepper.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stepper.Status(nil), f.motors...)
}

func (f *fakeDevice) MotorStatus(id int) (stepper.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id < 0 || id >= len(f.motors) {
		return stepper.Status{}, fmt.Errorf("%w: %d", gauge.ErrNoMotor, id)
	}
	return f.motors[id], nil
}

func (f *fakeDevice) Dispatch(b []byte) error {
	c, err := gauge.Parse(b)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.Motor >= len(f.motors) {
		return fmt.Errorf("%w: %d", gauge.ErrNoMotor, c.Motor)
	}
	f.commands = append(f.commands, c.String())
	f.motors[c.Motor].Target = c.Angle
	return nil
}

func (f *fakeDevice) Uptime() time.Duration {
	return 42 * time.Second
}

func newFake() *fakeDevice {
	return &fakeDevice{motors: []stepper.Status{
		{ID: 0, Steps: 512, Angle: 90},
		{ID: 1, Steps: -57, Angle: 350, Active: true, Target: 300},
	}}
}

func TestAPI(t *testing.T) {
	Convey("Given a monitor for a device", t, func() {
		dev := newFake()
		srv := New("ESP_Gyrocompass", dev)
		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, nil))
			return w
		}

		Convey("the device status is returned", func() {
			w := get("/api/status")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			var st DeviceStatus
			So(json.Unmarshal(w.Body.Bytes(), &st), ShouldBeNil)
			So(st.Device, ShouldEqual, "ESP_Gyrocompass")
			So(st.Uptime, ShouldEqual, 42)
			So(st.Motors, ShouldResemble, dev.motors)
		})
		Convey("a single motor can be queried", func() {
			w := get("/api/motors/1")
			So(w.Code, ShouldEqual, http.StatusOK)
			var st stepper.Status
			So(json.Unmarshal(w.Body.Bytes(), &st), ShouldBeNil)
			So(st.Angle, ShouldEqual, 350)
			So(st.Active, ShouldBeTrue)
			So(get("/api/motors/2").Code, ShouldEqual, http.StatusNotFound)
			So(get("/api/motors/x").Code, ShouldEqual, http.StatusBadRequest)
		})
		Convey("commands are passed to the device", func() {
			post := func(body string) int {
				w := httptest.NewRecorder()
				srv.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/api/command", strings.NewReader(body)))
				return w.Code
			}
			So(post("ANGLE:0:45"), ShouldEqual, http.StatusOK)
			So(post("MOVE:1:90:0:180"), ShouldEqual, http.StatusOK)
			So(post("ANGLE:5:45"), ShouldEqual, http.StatusNotFound)
			So(post("SPIN"), ShouldEqual, http.StatusBadRequest)
			So(dev.commands, ShouldResemble, []string{"ANGLE:0:45", "MOVE:1:90:0:180"})
			So(dev.motors[1].Target, ShouldEqual, 90)
		})
		Convey("the dial is rendered as a PNG", func() {
			w := get("/dial.png")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "image/png")
			img, err := png.Decode(w.Body)
			So(err, ShouldBeNil)
			So(img.Bounds().Dx(), ShouldEqual, dialSize)
		})
	})
}

func TestStream(t *testing.T) {
	Convey("The status is streamed over a websocket", t, func() {
		dev := newFake()
		srv := New("ESP_Airspeed", dev)
		srv.Interval = 10 * time.Millisecond
		ts := httptest.NewServer(srv.Handler())
		defer ts.Close()
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()
		for i := 0; i < 3; i++ {
			var st DeviceStatus
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			So(conn.ReadJSON(&st), ShouldBeNil)
			So(st.Device, ShouldEqual, "ESP_Airspeed")
			So(len(st.Motors), ShouldEqual, 2)
		}
	})
}

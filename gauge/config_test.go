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

package gauge

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const testConfig = `[device]
id=ESP_Gyrocompass
instrument=gyrocompass
hub=192.168.1.10
interval=10s
log=0
step=2ms
tables=%s
[motor1]
stepper=11,12,13,14
reverse=1
[encoder0]
name=EC11_HdgBug
pins=2,3,10
`

const testTables = `gyrocompass:
  0:
    - {value: 0, angle: 0}
    - {value: 360, angle: 180}
`

// writeConfig creates a config file and calibration tables in a
// temporary directory, returning the config file path.
func writeConfig(t *testing.T, conf string) string {
	dir := t.TempDir()
	tables := filepath.Join(dir, "tables.yaml")
	if err := os.WriteFile(tables, []byte(testTables), 0644); err != nil {
		t.Fatal(err)
	}
	f := filepath.Join(dir, "gauge.conf")
	if err := os.WriteFile(f, []byte(fmt.Sprintf(conf, tables)), 0644); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestReadConfig(t *testing.T) {
	Convey("Given a configuration file", t, func() {
		f := writeConfig(t, testConfig)

		Convey("the settings are read, with defaults for the rest", func() {
			c, err := ReadConfig(f)
			So(err, ShouldBeNil)
			So(c.ID, ShouldEqual, "ESP_Gyrocompass")
			So(c.Instrument, ShouldEqual, "gyrocompass")
			So(c.Hub, ShouldEqual, "192.168.1.10")
			So(c.Command, ShouldEqual, 49003)
			So(c.Heartbeat, ShouldEqual, 49002)
			So(c.Interval, ShouldEqual, 10*time.Second)
			So(c.Log, ShouldEqual, 0)
			So(c.Step, ShouldEqual, 2*time.Millisecond)
			So(c.Monitor, ShouldEqual, 0)
			So(len(c.Motors), ShouldEqual, 1)
			So(c.Motors[1].Pins, ShouldResemble, [4]int{11, 12, 13, 14})
			So(c.Encoders, ShouldResemble, []EncoderConfig{{Name: "EC11_HdgBug", Clk: 2, Dt: 3, Btn: 10}})
		})
		Convey("the environment overrides the file", func() {
			t.Setenv("GAUGE_HUB", "10.0.0.1")
			t.Setenv("GAUGE_MONITOR", "8080")
			c, err := ReadConfig(f)
			So(err, ShouldBeNil)
			So(c.Hub, ShouldEqual, "10.0.0.1")
			So(c.Monitor, ShouldEqual, 8080)
		})
		Convey("the instrument is built with the overrides", func() {
			c, err := ReadConfig(f)
			So(err, ShouldBeNil)
			inst, err := c.NewInstrument()
			So(err, ShouldBeNil)
			So(inst.Motors[0].Pins, ShouldResemble, [4]int{3, 4, 5, 6})
			So(inst.Motors[0].Reverse, ShouldBeTrue)
			So(inst.Motors[0].Table.Angle(180), ShouldEqual, 90)
			So(inst.Motors[1].Pins, ShouldResemble, [4]int{11, 12, 13, 14})
			So(inst.Motors[1].Reverse, ShouldBeTrue)
		})
	})

	Convey("All the problems in a configuration are reported", t, func() {
		f := writeConfig(t, "[device]\ninstrument=altimeter\nstep=fast\ninterval=-1s\ntables=%s\n")
		_, err := ReadConfig(f)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "step")
		c := Default()
		c.Instrument = "altimeter"
		c.Command = 70000
		c.Interval = 0
		err = c.Validate()
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "altimeter")
		So(err.Error(), ShouldContainSubstring, "command")
		So(err.Error(), ShouldContainSubstring, "interval")
	})

	Convey("A missing device section is an error", t, func() {
		f := writeConfig(t, "[motor0]\nstepper=1,2,3,4\n# %s\n")
		_, err := ReadConfig(f)
		So(err, ShouldNotBeNil)
	})
}

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

package main

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/aamcrae/gauge/gauge"
)

func TestParseArgs(t *testing.T) {
	Convey("Shell arguments build commands", t, func() {
		c, err := parseArgs([]string{"75"}, gauge.Value)
		So(err, ShouldBeNil)
		So(c.String(), ShouldEqual, "VALUE:0:75")
		c, err = parseArgs([]string{"1", "90.5"}, gauge.Value)
		So(err, ShouldBeNil)
		So(c.String(), ShouldEqual, "VALUE:1:90.5")
		c, err = parseArgs([]string{"1", "45"}, gauge.Angle)
		So(err, ShouldBeNil)
		So(c.String(), ShouldEqual, "ANGLE:1:45")
		c, err = parseArgs([]string{"0", "400", "0", "360"}, gauge.Move)
		So(err, ShouldBeNil)
		So(c.String(), ShouldEqual, "MOVE:0:400:0:360")
		c, err = parseArgs(nil, gauge.Zero)
		So(err, ShouldBeNil)
		So(c.String(), ShouldEqual, "ZERO:0")
	})
	Convey("Bad arguments are rejected", t, func() {
		_, err := parseArgs([]string{"x"}, gauge.Angle)
		So(err, ShouldNotBeNil)
		_, err = parseArgs([]string{"1", "2", "3"}, gauge.Value)
		So(err, ShouldNotBeNil)
		_, err = parseArgs([]string{"1", "2"}, gauge.Move)
		So(err, ShouldNotBeNil)
		_, err = parseArgs([]string{"0", "90", "a", "360"}, gauge.Move)
		So(err, ShouldNotBeNil)
	})
}

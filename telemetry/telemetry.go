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

// Package telemetry publishes motor events to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/aamcrae/gauge/stepper"
)

// Queue depth of unpublished events.
const queueDepth = 32

// Event is the JSON payload published for a motor.
type Event struct {
	Device string    `json:"device"`
	Motor  int       `json:"motor"`
	Steps  int64     `json:"steps"`
	Angle  int       `json:"angle"`
	Time   time.Time `json:"time"`
}

// Publisher sends a message to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Topic returns the topic for a device's motor.
func Topic(device string, motor int) string {
	return fmt.Sprintf("gauge/%s/motor/%d", device, motor)
}

// Telemetry queues motor events and publishes them in the background.
type Telemetry struct {
	Device  string
	pub     Publisher
	events  chan Event
	dropped atomic.Int64
}

// New creates a Telemetry publishing via pub.
func New(device string, pub Publisher) *Telemetry {
	t := new(Telemetry)
	t.Device = device
	t.pub = pub
	t.events = make(chan Event, queueDepth)
	return t
}

// Notify queues an event for the motor status. It never blocks;
// if the queue is full the event is dropped.
func (t *Telemetry) Notify(s stepper.Status) {
	e := Event{Device: t.Device, Motor: s.ID, Steps: s.Steps, Angle: s.Angle, Time: time.Now()}
	select {
	case t.events <- e:
	default:
		t.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (t *Telemetry) Dropped() int64 {
	return t.dropped.Load()
}

// Run publishes queued events until the context is cancelled.
func (t *Telemetry) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-t.events:
			payload, err := json.Marshal(e)
			if err != nil {
				log.Printf("telemetry: marshal error: %v", err)
				continue
			}
			if err := t.pub.Publish(Topic(e.Device, e.Motor), payload); err != nil {
				log.Printf("telemetry: publish error: %v", err)
			}
		}
	}
}

// Client is a Publisher using an MQTT broker connection.
type Client struct {
	client mqtt.Client
}

// Connect connects to the MQTT broker.
func Connect(broker, clientID string) (*Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.Printf("telemetry: connected to %s", broker)
	return &Client{client: c}, nil
}

// Publish implements Publisher.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 0, true, payload)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(250)
}

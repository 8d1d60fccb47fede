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

// Package monitor serves the state of a gauge device over HTTP.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/aamcrae/gauge/gauge"
	"github.com/aamcrae/gauge/stepper"
)

// Device is the device being monitored.
type Device interface {
	Status() []stepper.Status
	MotorStatus(id int) (stepper.Status, error)
	Dispatch([]byte) error
	Uptime() time.Duration
}

// DeviceStatus is the response of the status endpoint and websocket stream.
type DeviceStatus struct {
	Device string           `json:"device"`
	Uptime int64            `json:"uptime"`
	Motors []stepper.Status `json:"motors"`
}

// ErrResponse is the JSON body returned on a failed request.
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	ErrorText      string `json:"error,omitempty"`
}

// Render implements render.Renderer.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errBadRequest(err error) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusBadRequest, StatusText: "Invalid request.", ErrorText: err.Error()}
}

func errNotFound(err error) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Not found.", ErrorText: err.Error()}
}

// Server is the monitor HTTP server.
type Server struct {
	ID       string
	Interval time.Duration // Websocket update period
	dev      Device
	router   chi.Router
}

// New creates a monitor for the device.
func New(id string, dev Device) *Server {
	s := new(Server)
	s.ID = id
	s.Interval = 200 * time.Millisecond
	s.dev = dev
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Get("/motors/{id}", s.motor)
		r.Post("/command", s.command)
	})
	r.Get("/dial.png", s.dial)
	r.Get("/ws", s.stream)
	s.router = r
	return s
}

// Handler returns the HTTP handler for the monitor.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the monitor on the port until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: s.router}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Printf("monitor: starting server on %s", srv.Addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) snapshot() DeviceStatus {
	return DeviceStatus{
		Device: s.ID,
		Uptime: int64(s.dev.Uptime() / time.Second),
		Motors: s.dev.Status(),
	}
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.snapshot())
}

func (s *Server) motor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		render.Render(w, r, errBadRequest(err))
		return
	}
	st, err := s.dev.MotorStatus(id)
	if err != nil {
		render.Render(w, r, errNotFound(err))
		return
	}
	render.JSON(w, r, st)
}

// command accepts a command line in the body, using the same
// format as the UDP command port.
func (s *Server) command(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(io.LimitReader(r.Body, gauge.MaxCommand))
	if err != nil {
		render.Render(w, r, errBadRequest(err))
		return
	}
	log.Printf("monitor: command %q from %s", b, r.RemoteAddr)
	if err := s.dev.Dispatch(b); err != nil {
		if errors.Is(err, gauge.ErrNoMotor) {
			render.Render(w, r, errNotFound(err))
		} else {
			render.Render(w, r, errBadRequest(err))
		}
		return
	}
	render.JSON(w, r, s.snapshot())
}

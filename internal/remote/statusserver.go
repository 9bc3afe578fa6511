// Package remote implements Milton's minimal read-only status surface
// and Redis-backed ambient/profile override store (spec.md §6 "Remote
// status/telemetry"), modeled on the teacher's serving.APIServer
// (fasthttp + fasthttp-routing) and profiling.RedisPriorityFetcher.
package remote

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	routing "github.com/jackwhelpton/fasthttp-routing/v2"
	"github.com/valyala/fasthttp"

	"github.com/brettski74/milton/internal/status"
)

// StatusServer exposes the current run's latest Status and full history
// over HTTP, plus a keypress injection endpoint for headless operation
// (spec.md §6), grounded on the teacher's serving.APIServer router
// wiring.
type StatusServer struct {
	mu      sync.RWMutex
	latest  *status.Status
	history []*status.Status

	keypresses chan byte
}

// NewStatusServer returns a server with an empty history and a buffered
// keypress channel the EventLoop can consume from in place of a
// controlling TTY.
func NewStatusServer() *StatusServer {
	return &StatusServer{keypresses: make(chan byte, 16)}
}

// Keys exposes the injected keypress channel for wiring into
// eventloop.EventLoop.Keys.
func (s *StatusServer) Keys() <-chan byte { return s.keypresses }

// Record appends s to the server's view of the run history, called once
// per tick by the event loop alongside its own in-process history.
func (s *StatusServer) Record(sample *status.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = sample
	s.history = append(s.history, sample)
}

// Latest returns the most recently recorded Status, or nil if none has
// been recorded yet.
func (s *StatusServer) Latest() *status.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// HistoryCSV renders the recorded history in the same column layout as
// the GET /history.csv endpoint.
func (s *StatusServer) HistoryCSV() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	b.WriteString("now,temperature,power,set_power,stage\n")
	for _, sample := range s.history {
		fmt.Fprintf(&b, "%f,%f,%f,%f,%s\n", sample.Now, sample.Temperature, sample.Power, sample.SetPower, sample.StageName)
	}
	return b.String()
}

// InjectKey enqueues a synthetic keypress for the EventLoop's KeyInput
// state to consume, returning false if the buffer is full.
func (s *StatusServer) InjectKey(key byte) bool {
	select {
	case s.keypresses <- key:
		return true
	default:
		return false
	}
}

// ListenAndServe blocks serving the status API on addr.
func (s *StatusServer) ListenAndServe(addr string) error {
	router := routing.New()

	router.Get("/status", s.statusHandler())
	router.Get("/history.csv", s.historyHandler())
	router.Post("/keypress", s.keypressHandler())

	return fasthttp.ListenAndServe(addr, router.HandleRequest)
}

func (s *StatusServer) statusHandler() routing.Handler {
	return func(c *routing.Context) error {
		latest := s.Latest()
		if latest == nil {
			c.SetStatusCode(fasthttp.StatusNoContent)
			return nil
		}

		b, err := json.Marshal(latest)
		if err != nil {
			return fmt.Errorf("could not marshal status: %w", err)
		}
		return c.Write(b)
	}
}

func (s *StatusServer) historyHandler() routing.Handler {
	return func(c *routing.Context) error {
		return c.Write(s.HistoryCSV())
	}
}

func (s *StatusServer) keypressHandler() routing.Handler {
	return func(c *routing.Context) error {
		var body struct {
			Key string `json:"key"`
		}
		if err := c.Read(&body); err != nil {
			return err
		}
		if body.Key == "" {
			c.SetStatusCode(fasthttp.StatusBadRequest)
			return c.Write("key is required\n")
		}

		s.InjectKey(body.Key[0])
		return c.Write("ok\n")
	}
}

package main

import (
	"github.com/brettski74/milton/internal/eventloop"
	"github.com/brettski74/milton/internal/logging"
	"github.com/brettski74/milton/internal/remote"
	"github.com/brettski74/milton/internal/status"
)

// runCommandCapabilities is the `run` subcommand's eventloop.Command: it
// logs every tick and mirrors it into the optional status server, and asks
// the event loop to stop early only when logging a tick fails (otherwise
// the profile engine's own Done() check ends the run).
type runCommandCapabilities struct {
	logger       logging.Logger
	statusServer *remote.StatusServer
}

func (c runCommandCapabilities) Capabilities() eventloop.Capabilities {
	return eventloop.Capabilities{
		TimerEvent: func(s *status.Status) (eventloop.Signal, error) {
			if c.statusServer != nil {
				c.statusServer.Record(s)
			}
			if err := c.logger.Log(s); err != nil {
				return eventloop.Stop, err
			}
			return eventloop.Continue, nil
		},
		Warn: func(message string) {
			// A logging failure here is itself just a missed warning;
			// nothing in the run depends on it being delivered, unlike
			// TimerEvent's Log call above.
			_ = c.logger.LogWarning(message)
		},
	}
}

// Package telemetry maintains the live event connection to the
// automation process: it dials the stream, lets the server replay its
// history backlog, classifies every pushed event, and keeps a bounded
// log view plus aggregate counters for the console to render.
package telemetry

import (
	"context"
	"time"

	"github.com/coder/websocket"

	"github.com/vitrine/dmconsole/internal/config"
	"github.com/vitrine/dmconsole/internal/pkg/logger"
)

// Consumer owns the connection lifecycle: Connecting -> Open ->
// {Closed-Clean, Closed-Error}, with an automatic reconnect after a
// fixed delay on either close path.
//
// Reconnects are unconditional and unbounded with no backoff growth.
// That is the behavior the automation stack was built around; under a
// sustained outage this dials every ReconnectDelay. Do not add backoff
// here without flagging the change.
type Consumer struct {
	url   string
	delay time.Duration
	state *State
	relay func([]byte)
}

// NewConsumer creates a Consumer feeding state from the stream at url.
func NewConsumer(url string, cfg config.TelemetryConfig, state *State) *Consumer {
	return &Consumer{
		url:   url,
		delay: cfg.ReconnectDelay(),
		state: state,
	}
}

// SetRelay installs a hook called with every raw frame after it has
// been applied, used by the console's SSE stream. Must be set before
// Run.
func (c *Consumer) SetRelay(fn func([]byte)) {
	c.relay = fn
}

// Run dials and re-dials the stream until ctx is canceled. Teardown via
// ctx simply stops future event delivery; there is nothing to flush.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if err := c.session(ctx); err != nil {
			logger.Warn("telemetry: connection lost", "url", c.url, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.delay):
		}
	}
}

// session runs one connection from dial to close.
func (c *Consumer) session(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 20)

	// Session state starts empty; the server resends whatever history
	// it keeps as a backlog event.
	c.state.reset()
	c.state.setConnected(true)
	defer c.state.setConnected(false)
	logger.Info("telemetry: connected", "url", c.url)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		c.state.Apply(data)
		if c.relay != nil {
			c.relay(data)
		}
	}
}

package sidecar

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type Config struct {
	// URL of the sidecar websocket endpoint, e.g. ws://127.0.0.1:8765/call
	URL            string
	AuthHeaderFunc func(ctx context.Context) (string, error)
	Headers        http.Header
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	PingInterval   time.Duration

	// EventBuffer is the capacity of the Events channel.
	EventBuffer int
	Logger      *slog.Logger
}

func (c *Config) Defaults() {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 5 * time.Second
	}
	if c.PingInterval == 0 {
		c.PingInterval = 5 * time.Second
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = 16
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

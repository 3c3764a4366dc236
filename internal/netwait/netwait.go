// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

// package netwait polls a TCP endpoint until it accepts connections.
// It backs the "wait for the database" step of the run sequence: the
// database container may come up seconds after the site process does.
package netwait // import "siteman/internal/netwait"

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DialFunc matches net.DialTimeout and is injectable for tests.
type DialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

const (
	// DefaultAttempts is how many connection attempts are made before
	// giving up.
	DefaultAttempts = 50
	// DefaultInterval is the pause between attempts.
	DefaultInterval = 3 * time.Second
)

// Options tunes the polling loop. Zero values fall back to the defaults.
type Options struct {
	Attempts int
	Interval time.Duration
	// Timeout bounds a single dial. Defaults to Interval.
	Timeout time.Duration
	// Dial is the dial function; defaults to net.DialTimeout.
	Dial DialFunc
}

func (o *Options) fill() error {
	if o.Attempts == 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Attempts < 0 {
		return fmt.Errorf("netwait: attempts must be positive, got %d", o.Attempts)
	}
	if o.Interval == 0 {
		o.Interval = DefaultInterval
	}
	if o.Timeout == 0 {
		o.Timeout = o.Interval
	}
	if o.Dial == nil {
		o.Dial = net.DialTimeout
	}
	return nil
}

// Wait blocks until a TCP connection to host:port succeeds, making at most
// opts.Attempts attempts with opts.Interval between them. The first
// successful connection is closed immediately and nil is returned. After
// the attempt budget is exhausted the last dial error is wrapped and
// returned. Cancelling the context aborts the wait, including mid-sleep.
func Wait(ctx context.Context, host string, port int, opts Options) error {
	if err := opts.fill(); err != nil {
		return err
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var lastErr error

	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := opts.Dial("tcp", addr, opts.Timeout)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err

		if attempt == opts.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.Interval):
		}
	}

	return fmt.Errorf("netwait: %s not reachable after %d attempts: %w", addr, opts.Attempts, lastErr)
}

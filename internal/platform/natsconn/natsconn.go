// Package natsconn dials NATS with a shared retry policy so every
// service fails fast the same way when the broker is unreachable.
package natsconn

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Options configures the connection. Zero values fall back to env vars
// and then to built-in defaults.
type Options struct {
	URL           string // NATS_URL, default nats://nats:4222
	Name          string // connection name shown in NATS monitoring
	MaxReconnects int    // NATS_MAX_RECONNECTS, default 5
	ReconnectWait time.Duration
}

// Connect dials NATS and returns an error instead of retrying forever,
// so callers decide whether a missing broker is fatal.
func Connect(opts Options) (*nats.Conn, error) {
	if opts.URL == "" {
		if opts.URL = strings.TrimSpace(os.Getenv("NATS_URL")); opts.URL == "" {
			opts.URL = "nats://nats:4222"
		}
	}
	if opts.MaxReconnects == 0 {
		opts.MaxReconnects = envInt("NATS_MAX_RECONNECTS", 5)
	}
	if opts.ReconnectWait == 0 {
		opts.ReconnectWait = envDuration("NATS_RECONNECT_WAIT", 2*time.Second)
	}

	connOpts := []nats.Option{
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.RetryOnFailedConnect(false),
	}
	if opts.Name != "" {
		connOpts = append(connOpts, nats.Name(opts.Name))
	}

	nc, err := nats.Connect(opts.URL, connOpts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", opts.URL, err)
	}
	return nc, nil
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Package telemetry spools client-reported events locally and forwards
// them to the provider in batches. Delivery is at-least-once: the spool
// is only truncated after the provider acknowledged a batch, so a failed
// delivery is retried in full on the next cycle.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/destinationbook/boatserver/internal/config"
)

// Poster is the outbound transport the collector delivers batches over.
type Poster interface {
	Post(ctx context.Context, rawURL string, form url.Values) ([]byte, error)
}

// Collector owns the local telemetry spool. Append and Deliver are safe
// for concurrent use; the spool is never read and written at the same
// time.
type Collector struct {
	mu sync.Mutex

	spoolPath string
	endpoint  string
	apiKey    string
	device    string

	poster  Poster
	log     *slog.Logger
	backoff time.Duration
	retries uint64
}

// NewCollector builds a Collector from the remote and sync configuration.
func NewCollector(cfg *config.Config, poster Poster, log *slog.Logger) *Collector {
	return &Collector{
		spoolPath: cfg.Sync.TelemetrySpool,
		endpoint:  cfg.Remote.TelemetryURL(),
		apiKey:    cfg.Remote.APIKey,
		device:    cfg.Sync.DeviceUUID,
		poster:    poster,
		log:       log,
		backoff:   time.Second,
		retries:   3,
	}
}

// Append records one event line in the spool. Embedded newlines are
// flattened so the spool stays one event per line.
func (c *Collector) Append(line []byte) error {
	event := strings.TrimSpace(strings.ReplaceAll(string(line), "\n", " "))
	if event == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.spoolPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("telemetry.Collector.Append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(event + "\n"); err != nil {
		return fmt.Errorf("telemetry.Collector.Append: %w", err)
	}
	return nil
}

// Deliver posts the current spool contents to the provider as one batch.
// Transient failures are retried with exponential backoff; if every
// attempt fails the spool is left intact and the whole batch is retried
// on the next delivery cycle. An empty or missing spool is a no-op.
func (c *Collector) Deliver(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := os.ReadFile(c.spoolPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("telemetry.Collector.Deliver: %w", err)
	}
	if len(strings.TrimSpace(string(payload))) == 0 {
		return nil
	}

	batch := uuid.NewString()
	form := url.Values{
		"api_key":      {c.apiKey},
		"device[uuid]": {c.device},
		"batch":        {batch},
		"events":       {string(payload)},
	}

	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := c.poster.Post(ctx, c.endpoint, form); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("telemetry.Collector.Deliver: batch %s: %w", batch, err)
	}

	if err := os.Truncate(c.spoolPath, 0); err != nil {
		return fmt.Errorf("telemetry.Collector.Deliver: truncate spool: %w", err)
	}
	c.log.Info("telemetry delivered", "batch", batch, "bytes", len(payload))
	return nil
}

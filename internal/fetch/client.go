// Package fetch downloads fantasy-API resources into the snapshot store.
// Responses are cached on disk; a snapshot younger than the freshness window
// is served without touching the network.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"

	"fplcast/internal/logging"
	"fplcast/internal/store"
)

type Client struct {
	HTTP      *http.Client
	Store     *store.SnapshotStore
	BaseURL   string
	UserAgent string
	Sleep     time.Duration
	Freshness time.Duration
	Attempts  uint

	log *logrus.Entry
}

// NewClient returns a client for the fantasy API writing into st. Snapshots
// are considered fresh for a day, matching the upstream update cadence.
func NewClient(st *store.SnapshotStore) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: 20 * time.Second},
		Store:     st,
		BaseURL:   "https://fantasy.premierleague.com/api",
		UserAgent: "fplcast/1.0",
		Sleep:     500 * time.Millisecond,
		Freshness: 24 * time.Hour,
		Attempts:  3,
		log:       logging.WithComponent("fetch"),
	}
}

// FetchRaw downloads urlPath (like "/bootstrap-static/") and snapshots it
// under rel. A fresh snapshot short-circuits the request unless force is set.
// Network failures and 5xx responses are retried with backoff; client errors
// fail immediately.
func (c *Client) FetchRaw(ctx context.Context, urlPath, rel string, force bool) ([]byte, error) {
	if !force {
		if latest, err := c.Store.Latest(rel); err == nil && store.Fresh(latest, c.Freshness, time.Now()) {
			return c.Store.Read(rel, latest)
		}
	}

	c.log.WithFields(logrus.Fields{"url": urlPath, "resource": rel}).Info("Fetching resource")

	body, err := retry.DoWithData(
		func() ([]byte, error) { return c.get(ctx, urlPath) },
		retry.Context(ctx),
		retry.Attempts(c.Attempts),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.WithError(err).WithField("attempt", n+1).Warn("Retrying fetch")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch: GET %s: %w", urlPath, err)
	}

	if err := c.Store.Write(rel, time.Now(), body, true); err != nil {
		return nil, fmt.Errorf("fetch: snapshot %s: %w", rel, err)
	}
	if c.Sleep > 0 {
		time.Sleep(c.Sleep)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, urlPath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+urlPath, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("status %d body=%s", resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Unrecoverable(statusErr)
		}
		return nil, statusErr
	}
	return body, nil
}

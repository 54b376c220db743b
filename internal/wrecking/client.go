// Package wrecking mirrors station signal values to the external wrecking service.
package wrecking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const setBoostPath = "/reports/set_boost"

// Reporter delivers one station signal report.
type Reporter interface {
	ReportBoost(ctx context.Context, stationID, boost int) error
}

type setBoostPayload struct {
	Station int    `json:"station"`
	Boost   int    `json:"boost"`
	Key     string `json:"key"`
}

// Client is a minimal wrecking REST client.
type Client struct {
	baseURL string
	key     string
	client  *http.Client
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// NewClient constructs a wrecking client.
func NewClient(baseURL, key string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("wrecking: empty base url")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ReportBoost posts the station's current signal value.
func (c *Client) ReportBoost(ctx context.Context, stationID, boost int) error {
	if c == nil || c.baseURL == "" {
		return errors.New("wrecking: empty base url")
	}
	body, err := json.Marshal(setBoostPayload{Station: stationID, Boost: boost, Key: c.key})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+setBoostPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("wrecking: non-2xx response %d", resp.StatusCode)
	}
	return nil
}

package relay

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

// ErrRelayUnavailable marks backend transport failures and error
// responses. Callers log it and carry on; the next cycle retries
// implicitly.
var ErrRelayUnavailable = errors.New("relay backend unavailable")

const requestTimeout = 5 * time.Second

// Position is the fix document posted to the backend.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type buzzResponse struct {
	Data int `json:"data"`
}

// Client talks to the remote backend over HTTP. Best effort by design: no
// retries, no backoff.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// PostPosition relays one corrected fix to the backend.
func (c *Client) PostPosition(ctx context.Context, lat, lon float64) error {
	body, err := json.Marshal(Position{Latitude: lat, Longitude: lon})
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/position", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build position request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: position post returned %s", ErrRelayUnavailable, resp.Status)
	}
	return nil
}

// PollBuzz reports whether the backend alert flag is set.
func (c *Client) PollBuzz(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/buzz", nil)
	if err != nil {
		return false, fmt.Errorf("build buzz request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: buzz poll returned %s", ErrRelayUnavailable, resp.Status)
	}
	var buzz buzzResponse
	if err := json.NewDecoder(resp.Body).Decode(&buzz); err != nil {
		return false, fmt.Errorf("%w: decode buzz response: %v", ErrRelayUnavailable, err)
	}
	return buzz.Data == 1, nil
}

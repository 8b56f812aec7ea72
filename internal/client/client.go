// Package client talks to the edge classification API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Harsh-BH/edgeclassify/internal/domain"
	"github.com/Harsh-BH/edgeclassify/internal/usecase"
)

const defaultHTTPTimeout = 60 * time.Second

// ErrWaitTimeout is returned by WaitForResult when the result does not
// appear before the wait timeout.
var ErrWaitTimeout = errors.New("timed out waiting for result")

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client is an HTTP client for the job API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Submit posts a job. threshold < 0 lets the server apply its default.
// Delivery failures come back as a response with a non-accepted outcome,
// not as an error.
func (c *Client) Submit(ctx context.Context, className string, threshold int) (*domain.SubmitResponse, error) {
	body := map[string]any{"class_name": className}
	if threshold >= 0 {
		body["threshold_percentage"] = threshold
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("client: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/jobs", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp domain.SubmitResponse
	if err := c.do(req, &resp, http.StatusAccepted, http.StatusGatewayTimeout, http.StatusBadGateway); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Result performs one lookup for id.
func (c *Client) Result(ctx context.Context, id domain.CorrelationID) (*domain.ResultLocator, error) {
	endpoint := c.baseURL + "/api/v1/jobs/" + url.PathEscape(id.String()) + "/result"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}

	var loc domain.ResultLocator
	if err := c.do(req, &loc, http.StatusOK); err != nil {
		return nil, err
	}
	return &loc, nil
}

// WaitForResult polls until the result is ready, timeout elapses or ctx is
// done. interval is raised to usecase.MinPollInterval if shorter. onPoll, if
// set, sees every intermediate locator. Transient lookup faults (503) are
// retried; any other error stops the wait.
func (c *Client) WaitForResult(ctx context.Context, id domain.CorrelationID, interval, timeout time.Duration, onPoll func(*domain.ResultLocator)) (*domain.ResultLocator, error) {
	if interval < usecase.MinPollInterval {
		interval = usecase.MinPollInterval
	}
	return c.waitForResult(ctx, id, interval, timeout, onPoll)
}

func (c *Client) waitForResult(ctx context.Context, id domain.CorrelationID, interval, timeout time.Duration, onPoll func(*domain.ResultLocator)) (*domain.ResultLocator, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		loc, err := c.Result(ctx, id)
		switch {
		case err == nil:
			if onPoll != nil {
				onPoll(loc)
			}
			if loc.Ready() {
				return loc, nil
			}
		case ctx.Err() != nil:
		case isUnavailable(err):
		default:
			return nil, err
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("client: %s: %w", id, ErrWaitTimeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func isUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable
}

func (c *Client) do(req *http.Request, out any, okStatus ...int) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	for _, status := range okStatus {
		if resp.StatusCode == status {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("client: decode response: %w", err)
			}
			return nil
		}
	}

	var body struct {
		Error string `json:"error"`
	}
	msg := strconv.Quote(strings.TrimSpace(string(data)))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// Package lms fetches course and user data from the learning management
// system REST API.
package lms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
	"github.com/iishyfishyy/learnq/internal/logging"
)

// Client performs authenticated GETs against a fixed base endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. The key is sent as a Basic credential on
// every request.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchCourses returns every course with its assignments.
func (c *Client) FetchCourses(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := c.get(ctx, "courses", &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// FetchUsers returns every user with their groups.
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.get(ctx, "users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) get(ctx context.Context, endpoint string, target interface{}) error {
	url := c.baseURL + endpoint
	logger := logging.With(logging.Endpoint(url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return lqerrors.NewTransportError(url, err)
	}
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.apiKey)))
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("lms_request_failed", zap.Error(err))
		return lqerrors.NewTransportError(url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return lqerrors.NewTransportError(url, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("lms_request_rejected", zap.Int("status", resp.StatusCode))
		return lqerrors.NewTransportError(url,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))).
			WithContext("status", resp.StatusCode)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return lqerrors.NewTransportError(url, fmt.Errorf("failed to decode response: %w", err))
	}

	logger.Debug("lms_request_completed", logging.Duration(time.Since(start)), zap.Int("bytes", len(body)))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

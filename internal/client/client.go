// Package client fetches frames from a calendar service.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	LocalEndpoint  = "http://127.0.0.1:23366/luatos-calendar/v1"
	RemoteEndpoint = "https://qq.papapoi.com/luatos-calendar/v1"

	DefaultTimeout = 10 * time.Second
)

var ErrStatus = errors.New("unexpected response status")

// Params are the query parameters a device sends with every frame request.
type Params struct {
	Mac       string `yaml:"mac"`
	Battery   int    `yaml:"battery"`
	Location  string `yaml:"location"`
	AppID     string `yaml:"appid"`
	AppSecret string `yaml:"appsecret"`
}

func (p Params) Query() url.Values {
	q := url.Values{}
	q.Set("mac", p.Mac)
	q.Set("battery", strconv.Itoa(p.Battery))
	q.Set("location", p.Location)
	q.Set("appid", p.AppID)
	q.Set("appsecret", p.AppSecret)
	return q
}

type Client struct {
	endpoint *url.URL
	http     *http.Client
	logger   *slog.Logger
}

func New(endpoint string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("Endpoint %q is not a valid URL:\n%w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("Endpoint %q must be an http or https URL", endpoint)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint: u,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Fetch requests one frame and returns the raw response body. Any transport
// failure or non-200 response is returned as an error; nothing is retried.
func (c *Client) Fetch(ctx context.Context, p Params) ([]byte, error) {
	u := *c.endpoint
	q := u.Query()
	for k, v := range p.Query() {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("Couldn't build request:\n%w", err)
	}

	c.logger.Debug("Fetching frame", "endpoint", c.endpoint.String(), "mac", p.Mac, "location", p.Location)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Couldn't fetch frame:\n%w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("%w: %s: %s", ErrStatus, resp.Status, snippet)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Couldn't read frame body:\n%w", err)
	}

	c.logger.Debug("Received frame", "bytes", len(body))
	return body, nil
}

// Package weather reads the current day's weather for a city from the
// yiketianqi free API (https://tianqiapi.com/index/doc?version=day).
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultURL     = "https://www.yiketianqi.com/free/day"
	DefaultTimeout = 5 * time.Second
)

type Weather struct {
	CityID   string `json:"cityid"`
	City     string `json:"city"`
	Wea      string `json:"wea"`
	WeaImg   string `json:"wea_img"`
	Tem      string `json:"tem"`
	TemDay   string `json:"tem_day"`
	TemNight string `json:"tem_night"`
	Win      string `json:"win"`
	WinSpeed string `json:"win_speed"`
	WinMeter string `json:"win_meter"`
	Air      string `json:"air"`
}

// apiError is what the API returns in place of a Weather for bad credentials
// or an unknown city.
type apiError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Get(ctx context.Context, location string, appID string, appSecret string) (*Weather, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("Weather URL is not valid:\n%w", err)
	}
	q := u.Query()
	q.Set("appid", appID)
	q.Set("appsecret", appSecret)
	q.Set("unescape", "1")
	q.Set("cityid", location)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("Couldn't build weather request:\n%w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Couldn't fetch weather:\n%w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Weather API returned %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Couldn't read weather response:\n%w", err)
	}

	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.ErrCode != 0 {
		return nil, fmt.Errorf("Weather API error %d: %s", e.ErrCode, e.ErrMsg)
	}

	var w Weather
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("Couldn't decode weather response:\n%w", err)
	}
	return &w, nil
}

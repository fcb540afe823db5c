// Package gateclient is the camera-side client of the parking API: it reports
// vehicles passing the gate and can follow the live occupancy stream.
package gateclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Client talks to one API instance. Requests are never retried: a repeated
// entry would be counted twice.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Result struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorded reports whether the server persisted the event.
func (r Result) Recorded() bool {
	return r.Status == "success"
}

type SnapshotAck struct {
	Status    string    `json:"status"`
	ZoneID    string    `json:"zoneId"`
	ImageSize int       `json:"imageSize"`
	Timestamp time.Time `json:"timestamp"`
}

type Stats struct {
	Occupied    int        `json:"occupied"`
	Total       int        `json:"total"`
	Available   int        `json:"available"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

type Event struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	LicensePlate string    `json:"licensePlate"`
	ZoneID       string    `json:"zoneId"`
	Timestamp    time.Time `json:"timestamp"`
}

type ZoneState struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Occupied int    `json:"occupied"`
	Free     int    `json:"free"`
}

type LiveState struct {
	TotalCapacity   int         `json:"totalCapacity"`
	CurrentOccupied int         `json:"currentOccupied"`
	AvailableSlots  int         `json:"availableSlots"`
	LastUpdated     *time.Time  `json:"lastUpdated,omitempty"`
	Zones           []ZoneState `json:"zones"`
	Loading         bool        `json:"loading"`
	Error           string      `json:"error,omitempty"`
}

type recordRequest struct {
	LicensePlate string `json:"licensePlate"`
	ZoneID       string `json:"zoneId,omitempty"`
}

// Entry reports a vehicle entering through zoneID; an empty zone lets the
// server pick its default.
func (c *Client) Entry(ctx context.Context, plate, zoneID string) (Result, error) {
	var res Result
	err := c.postJSON(ctx, "/events/entry", recordRequest{LicensePlate: plate, ZoneID: zoneID}, &res)
	return res, err
}

// Exit reports a vehicle leaving.
func (c *Client) Exit(ctx context.Context, plate, zoneID string) (Result, error) {
	var res Result
	err := c.postJSON(ctx, "/events/exit", recordRequest{LicensePlate: plate, ZoneID: zoneID}, &res)
	return res, err
}

// Snapshot uploads a camera frame for acknowledgment.
func (c *Client) Snapshot(ctx context.Context, zoneID string, image []byte) (SnapshotAck, error) {
	var ack SnapshotAck
	err := c.postJSON(ctx, "/events/snapshot", struct {
		ZoneID      string `json:"zoneId"`
		ImageBase64 string `json:"imageBase64"`
	}{
		ZoneID:      zoneID,
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	}, &ack)
	return ack, err
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.getJSON(ctx, "/events/stats", nil, &s)
	return s, err
}

// History returns recent events, newest first. limit <= 0 uses the server default.
func (c *Client) History(ctx context.Context, limit int) ([]Event, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var events []Event
	err := c.getJSON(ctx, "/events/history", query, &events)
	return events, err
}

// Reset zeroes the live count.
func (c *Client) Reset(ctx context.Context) (Result, error) {
	var res Result
	err := c.postJSON(ctx, "/admin/reset", nil, &res)
	return res, err
}

// Watch follows the live stream, calling fn for every state until ctx is
// done, fn returns an error, or the server closes the stream.
func (c *Client) Watch(ctx context.Context, fn func(LiveState) error) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/events/live"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPClient: c.streamClient()})
	if err != nil {
		return fmt.Errorf("dial live stream: %w", err)
	}
	defer conn.CloseNow()

	for {
		var st LiveState
		if err := wsjson.Read(ctx, conn, &st); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read live state: %w", err)
		}
		if err := fn(st); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return err
		}
	}
}

// streamClient drops the request timeout, which would otherwise cut the
// long-lived websocket.
func (c *Client) streamClient() *http.Client {
	hc := *c.httpClient
	hc.Timeout = 0
	return &hc
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

func (c *Client) postJSON(ctx context.Context, path string, body, dest any) error {
	var r io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return json.Unmarshal(body, dest)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Error
	} else {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 512 {
			msg = msg[:512]
		}
		apiErr.Message = msg
	}
	return apiErr
}

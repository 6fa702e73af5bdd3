package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	lperrors "github.com/vango-dev/livepatch/internal/errors"
	"github.com/vango-dev/livepatch/pkg/protocol"
)

// Response is one answered interaction.
type Response struct {
	Status int
	Frames []protocol.Frame

	// Body holds the payload of a non-stream response.
	Body string
}

// Client drives a livepatch server the way a browser would: it sends the
// client signals with every request and merges every signals frame it
// receives into its own store.
type Client struct {
	base *url.URL
	http *http.Client

	mu  sync.Mutex
	doc []byte
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, lperrors.New(lperrors.CodeProbeConnect).
			WithField("base-url").
			WithDetailf("%q is not an absolute http URL.", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: 10 * time.Second},
		doc:  []byte("{}"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Signals returns the client's merged signal store.
func (c *Client) Signals() protocol.Signals {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := protocol.DecodeSignals(c.doc)
	if err != nil {
		return protocol.Signals{}
	}
	return s
}

// SetSignals merges s into the client store, as if the user typed into
// bound inputs.
func (c *Client) SetSignals(s protocol.Signals) error {
	return c.merge(s)
}

func (c *Client) merge(s protocol.Signals) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, err := protocol.MergeSignals(c.doc, s)
	if err != nil {
		return err
	}
	c.doc = doc
	return nil
}

func (c *Client) url(path string) string {
	return c.base.String() + path
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	c.mu.Lock()
	payload := append([]byte(nil), c.doc...)
	c.mu.Unlock()

	target := c.url(path)
	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		target += "?datastar=" + url.QueryEscape(string(payload))
	} else {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Datastar-Request", "true")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func connectError(method, path string, err error) error {
	return lperrors.New(lperrors.CodeProbeConnect).
		WithDetailf("%s %s failed.", method, path).
		Wrap(err)
}

// Do sends one interaction and reads the whole response. Signals frames
// are merged into the client store in order.
func (c *Client) Do(ctx context.Context, method, path string) (*Response, error) {
	return c.do(ctx, method, path, -1)
}

// Stream reads at most n frames of a long-lived response and then hangs up.
func (c *Client) Stream(ctx context.Context, path string, n int) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, n)
}

func (c *Client) do(ctx context.Context, method, path string, limit int) (*Response, error) {
	req, err := c.newRequest(ctx, method, path)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, connectError(method, path, err)
	}
	defer resp.Body.Close()

	out := &Response{Status: resp.StatusCode}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, connectError(method, path, err)
		}
		out.Body = string(body)
		return out, nil
	}

	dec := protocol.NewDecoder(resp.Body)
	for limit < 0 || len(out.Frames) < limit {
		f, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("%s %s: %w", method, path, err)
		}
		if f.Kind == protocol.KindSignals {
			if err := c.merge(f.Signals); err != nil {
				return out, err
			}
		}
		out.Frames = append(out.Frames, *f)
	}
	return out, nil
}

// Page fetches a full document.
func (c *Client) Page(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", connectError(http.MethodGet, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", connectError(http.MethodGet, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return string(body), nil
}

// Health checks that the server answers its liveness route.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/healthz"), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return connectError(http.MethodGet, "/healthz", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return connectError(http.MethodGet, "/healthz", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// WebSocket reads n frames from a WebSocket stream endpoint, one frame per
// text message.
func (c *Client) WebSocket(ctx context.Context, path string, n int) ([]protocol.Frame, error) {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String()+path, nil)
	if err != nil {
		return nil, connectError(http.MethodGet, path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}

	var frames []protocol.Frame
	for len(frames) < n {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return frames, fmt.Errorf("read %s: %w", path, err)
		}
		got, err := protocol.DecodeFrames(msg)
		if err != nil {
			return frames, err
		}
		frames = append(frames, got...)
	}
	return frames, nil
}

// signalString reads a signal as a string, formatting numbers.
func signalString(s protocol.Signals, key string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

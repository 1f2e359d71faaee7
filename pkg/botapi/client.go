package botapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

const defaultAPIBase = "https://api.telegram.org/bot"

// Client issues generic Bot API calls over HTTP. The underlying HTTP client
// is created lazily on first use and shared between outbound calls and the
// polling loop; it is safe for concurrent use.
type Client struct {
	baseURL string
	log     *slog.Logger

	mu       sync.Mutex
	http     *http.Client
	provided *http.Client
}

// apiEnvelope is the response wrapper every Bot API call returns.
type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// NewClient builds a client for the given bot token. The API base defaults to
// the hosted Bot API; pass a non-empty baseURL to target a local server.
func NewClient(token string, baseURL string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if baseURL == "" {
		baseURL = defaultAPIBase + token
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With("component", "botapi.client"),
	}
}

// SetHTTPClient replaces the transport collaborator. Intended for tests and
// custom proxy setups; must be called before the first request.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.provided = httpClient
	c.http = nil
}

// httpClient returns the shared transport, creating it on first use. No
// client-wide timeout is set: long polls block by design and cancellation
// flows through the request context.
func (c *Client) httpClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.http == nil {
		if c.provided != nil {
			c.http = c.provided
		} else {
			c.http = &http.Client{}
		}
	}

	return c.http
}

// Close releases the shared transport. Safe to call repeatedly and before
// first use.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.http != nil {
		c.http.CloseIdleConnections()
		c.http = nil
	}
}

// Do validates, encodes, and issues one call, returning the unwrapped result
// value. Remote-resource and attachment failures surface before any request
// reaches the RPC endpoint.
func (c *Client) Do(ctx context.Context, call Call) (gjson.Result, error) {
	if call.Method == "" {
		return gjson.Result{}, NewError(ErrorTransport, "method name is required")
	}

	if err := c.validateCall(ctx, call); err != nil {
		return gjson.Result{}, err
	}

	body, contentType, err := buildRequestBody(call)
	if err != nil {
		return gjson.Result{}, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+call.Method, body)
	if err != nil {
		return gjson.Result{}, NewError(ErrorTransport, fmt.Sprintf("build request for %q: %v", call.Method, err))
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	response, err := c.httpClient().Do(request)
	if err != nil {
		return gjson.Result{}, NewError(ErrorTransport, fmt.Sprintf("call %q: %v", call.Method, err))
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return gjson.Result{}, NewError(ErrorTransport, fmt.Sprintf("read response for %q: %v", call.Method, err))
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return gjson.Result{}, NewError(ErrorTransport, fmt.Sprintf("parse response for %q: %v", call.Method, err))
	}

	if !envelope.OK {
		description := envelope.Description
		if description == "" {
			description = "unknown error"
		}

		return gjson.Result{}, NewError(ErrorRemoteAPI, description)
	}

	return gjson.ParseBytes(envelope.Result), nil
}

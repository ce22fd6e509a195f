package ollama

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxLineSize bounds bufio.Scanner's line buffer for newline-delimited
// JSON streams. A single generate chunk is small, but defensive sizing
// avoids a hard failure on an unusually long line from a misbehaving
// backend.
const maxLineSize = 1 << 20 // 1 MiB

// Client is a thin, stateless HTTP wrapper around one Ollama-compatible
// backend's base URL. One Client is created per Endpoint and reused for
// the life of a single probe or forwarded request; it is not a
// long-lived process-wide cache.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config controls the transport used by a Client.
type Config struct {
	// Timeout is the overall per-request deadline. Individual calls may
	// also be bounded by a shorter context deadline (e.g. the probe's
	// version/generate timeouts); whichever is shorter wins.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification, for
	// self-signed backend deployments. Off by default.
	InsecureSkipVerify bool
}

// NewClient builds a Client against baseURL (e.g. "http://10.0.0.5:11434").
func NewClient(baseURL string, cfg Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // operator-configured, self-signed backend
			MinVersion:         tls.VersionTLS12,
		}
	}

	httpClient := &http.Client{Transport: transport}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Version calls GET /api/version.
func (c *Client) Version(ctx context.Context) (*VersionResponse, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/api/version", nil, nil)
	if err != nil {
		return nil, err
	}
	var out VersionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode version response: %w", err)
	}
	return &out, nil
}

// Tags calls GET /api/tags.
func (c *Client) Tags(ctx context.Context) (*TagsResponse, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/api/tags", nil, nil)
	if err != nil {
		return nil, err
	}
	var out TagsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	return &out, nil
}

// Generate calls POST /api/generate. When req.Stream is true, onChunk is
// invoked once per newline-delimited JSON line as it arrives; malformed
// lines are skipped with a debug log rather than aborting the call.
// When false, onChunk is invoked exactly once with the full response.
func (c *Client) Generate(ctx context.Context, req GenerateRequest, onChunk func(GenerateChunk) error) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode generate request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/generate", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("generate request to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLineSize))
		return &UpstreamHTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	if !req.Stream {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read generate response: %w", err)
		}
		var chunk GenerateChunk
		if err := json.Unmarshal(body, &chunk); err != nil {
			return fmt.Errorf("decode generate response: %w", err)
		}
		return onChunk(chunk)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk GenerateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			slog.Debug("ollama: skipping malformed generate line", "error", err)
			continue
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read generate stream: %w", err)
	}
	return nil
}

// Raw is a generic passthrough used by the forwarder to proxy arbitrary
// API paths (chat, embeddings, and anything else a client names). method
// and path come from the inbound client request; headers and params are
// forwarded as an explicit map rather than by blindly cloning the
// inbound request, matching the "dynamic attribute forwarding" contract.
//
// When stream is true, onChunk is invoked once per raw line read from
// the upstream body (newlines stripped), and the returned RawResponse's
// Body is empty — the caller is expected to have relayed every chunk to
// its own downstream client already, before the first error (if any) is
// known. When stream is false, the full body is buffered and returned.
func (c *Client) Raw(ctx context.Context, method, path string, headers, params map[string]string, body []byte, stream bool, onChunk func([]byte) error) (*RawResponse, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build raw request: %w", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("raw request to %s: %w", u, err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxLineSize))
		return nil, &UpstreamHTTPError{StatusCode: resp.StatusCode, Body: errBody}
	}

	if !stream {
		full, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read raw response: %w", err)
		}
		return &RawResponse{StatusCode: resp.StatusCode, ContentType: contentType, Body: full}, nil
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := onChunk(line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read raw stream: %w", err)
	}
	return &RawResponse{StatusCode: resp.StatusCode, ContentType: contentType}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request to %s%s: %w", c.baseURL, path, err)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, headers map[string]string, body io.Reader) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s%s: %w", c.baseURL, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamHTTPError{StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}

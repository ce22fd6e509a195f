package forwarder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/pkg/auth"
	"github.com/ollamafleet/router/pkg/ollama"
	"github.com/ollamafleet/router/pkg/ratelimit"
)

// Forwarder implements the proxy request path end to end: authenticate,
// rate-limit, resolve a model to a ranked backend list, and relay.
type Forwarder struct {
	client        *ent.Client
	authenticator Authenticator
	limiter       RateLimiter
	router        BackendRouter
	usage         UsageLogger
	cfg           Config
}

// New builds a Forwarder.
func New(client *ent.Client, authenticator Authenticator, limiter RateLimiter, router BackendRouter, usage UsageLogger, cfg Config) *Forwarder {
	return &Forwarder{
		client:        client,
		authenticator: authenticator,
		limiter:       limiter,
		router:        router,
		usage:         usage,
		cfg:           cfg,
	}
}

// Forward authenticates, rate-limits, and relays one inbound request.
// path is the request path with any mount prefix already stripped
// (e.g. "" for the root, "api/generate", "v1/chat/completions").
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, path string) error {
	ctx := r.Context()

	apiKey, err := f.authenticate(ctx, r)
	if err != nil {
		return err
	}

	if err := f.enforceRateLimit(ctx, apiKey); err != nil {
		status := http.StatusTooManyRequests
		var rateErr *RateLimitedError
		if !errors.As(err, &rateErr) {
			status = http.StatusInternalServerError
		}
		f.logUsage(apiKey.ID, path, r.Method, nil, status)
		return err
	}

	statusCode, model := f.dispatch(ctx, w, r, path)
	f.logUsage(apiKey.ID, path, r.Method, model, statusCode)
	return nil
}

// logUsage records one forwarded request's outcome. Best-effort: by the
// time this runs the client has already received (or is about to
// receive, for the pre-dispatch rate-limit case) its final status, so a
// logging failure is recorded and swallowed rather than surfaced as the
// request's error.
func (f *Forwarder) logUsage(apiKeyID, path, method string, model *string, statusCode int) {
	logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.usage.LogUsage(logCtx, apiKeyID, path, method, model, statusCode); err != nil {
		slog.Error("forwarder: failed to log api key usage", "api_key_id", apiKeyID, "path", path, "error", err)
	}
}

func (f *Forwarder) authenticate(ctx context.Context, r *http.Request) (*ent.ApiKey, error) {
	raw, ok := auth.ExtractAPIKey(r)
	if !ok {
		return nil, ErrUnauthorized
	}
	apiKey, err := f.authenticator.Authenticate(ctx, raw)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return apiKey, nil
}

func (f *Forwarder) enforceRateLimit(ctx context.Context, apiKey *ent.ApiKey) error {
	user, err := apiKey.QueryUser().Only(ctx)
	if err != nil {
		return err
	}
	plan, err := user.QueryPlan().Only(ctx)
	if err != nil {
		return err
	}

	decision, err := f.limiter.Check(ctx, apiKey.ID, ratelimit.Plan{RPM: plan.Rpm, RPD: plan.Rpd})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &RateLimitedError{Bucket: decision.Bucket, Limit: decision.Limit}
	}
	return nil
}

// dispatch handles the path shortcuts and the general model-forwarding
// case, writing the response directly to w. It returns the HTTP status
// code and (if applicable) the model name for usage logging.
func (f *Forwarder) dispatch(ctx context.Context, w http.ResponseWriter, r *http.Request, path string) (int, *string) {
	switch path {
	case "":
		writeText(w, http.StatusOK, rootGreeting)
		return http.StatusOK, nil
	case "api/tags":
		resp, err := f.tagsResponse(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return http.StatusInternalServerError, nil
		}
		writeJSON(w, http.StatusOK, resp)
		return http.StatusOK, nil
	case "v1/models":
		resp, err := f.openAIModelsResponse(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return http.StatusInternalServerError, nil
		}
		writeJSON(w, http.StatusOK, resp)
		return http.StatusOK, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return http.StatusBadRequest, nil
	}

	name, tag, stream, err := resolveModelAndStream(path, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return http.StatusBadRequest, nil
	}
	model := name + ":" + tag

	endpoints, err := f.router.BestEndpointsForModel(ctx, name, tag)
	if err != nil || len(endpoints) == 0 {
		writeError(w, http.StatusNotFound, ErrNoBackendAvailable)
		return http.StatusNotFound, &model
	}

	headers := scrubHeaders(r.Header)
	params := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	status := f.forwardToFirstHealthy(ctx, w, endpoints, r.Method, "/"+path, headers, params, body, stream)
	return status, &model
}

// forwardToFirstHealthy tries each candidate endpoint in order. Once a
// byte of the backend's response has reached the client, no further
// endpoint is tried, even if the stream subsequently errors — a
// client-visible partial response is accepted as that attempt's final
// outcome. On exhaustion it propagates the last upstream status when
// every failed attempt reported the same one, falling back to 502 only
// when the failures disagree or none carried a real upstream status
// (connection errors, first-byte timeouts with no response at all).
func (f *Forwarder) forwardToFirstHealthy(ctx context.Context, w http.ResponseWriter, endpoints []*ent.Endpoint, method, path string, headers, params map[string]string, body []byte, stream bool) int {
	var lastErr error
	uniformStatus := 0
	uniform := true
	for _, ep := range endpoints {
		client := ollama.NewClient(ep.URL, ollama.Config{
			Timeout:            f.cfg.BackendTimeout,
			InsecureSkipVerify: f.cfg.InsecureSkipVerify,
		})

		status, wroteFirstByte, err := f.attempt(ctx, client, w, method, path, headers, params, body, stream)
		if err == nil {
			return status
		}
		if wroteFirstByte {
			// Already committed to this backend; nothing left to fail over to.
			return status
		}
		lastErr = err
		switch {
		case status == 0:
			uniform = false
		case uniformStatus == 0:
			uniformStatus = status
		case uniformStatus != status:
			uniform = false
		}
	}

	if lastErr == nil {
		lastErr = ErrNoBackendAvailable
	}
	finalStatus := http.StatusBadGateway
	if uniform && uniformStatus != 0 {
		finalStatus = uniformStatus
	}
	writeError(w, finalStatus, lastErr)
	return finalStatus
}

type attemptResult struct {
	chunk []byte
	err   error
}

// attempt runs one backend candidate, racing its first byte against
// f.cfg.FirstByteTimeout. If the deadline fires before anything arrives,
// the attempt is abandoned (its context cancelled) so the caller can
// fail over to the next candidate. Once the first byte has been
// written to w, the race ends and every subsequent chunk is relayed
// until the stream closes or errors.
func (f *Forwarder) attempt(ctx context.Context, client *ollama.Client, w http.ResponseWriter, method, path string, headers, params map[string]string, body []byte, stream bool) (status int, wroteFirstByte bool, err error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan attemptResult, 8)
	done := make(chan struct{})
	var finalStatus int
	var finalContentType string
	var finalErr error

	go func() {
		defer close(done)
		resp, raErr := client.Raw(attemptCtx, method, path, headers, params, body, stream, func(line []byte) error {
			buf := make([]byte, len(line))
			copy(buf, line)
			results <- attemptResult{chunk: buf}
			return nil
		})
		if resp != nil {
			finalStatus = resp.StatusCode
			finalContentType = resp.ContentType
			if !stream {
				results <- attemptResult{chunk: resp.Body}
			}
		}
		if raErr != nil {
			var upstreamErr *ollama.UpstreamHTTPError
			if errors.As(raErr, &upstreamErr) {
				finalStatus = upstreamErr.StatusCode
			}
			finalErr = raErr
		}
		close(results)
	}()

	timer := time.NewTimer(f.cfg.FirstByteTimeout)
	defer timer.Stop()

	for {
		select {
		case r, ok := <-results:
			if !ok {
				<-done
				if finalErr != nil && !wroteFirstByte {
					// finalStatus carries the real upstream status when the
					// failure was an explicit non-2xx response (ollama.UpstreamHTTPError);
					// it's 0 for connection-level failures, which the caller
					// then treats as "no known status" for exhaustion handling.
					return finalStatus, false, finalErr
				}
				if !wroteFirstByte {
					writeHeaderWithContentType(w, finalStatus, finalContentType)
				}
				return finalStatus, true, nil
			}
			if !wroteFirstByte {
				wroteFirstByte = true
				writeHeaderWithContentType(w, statusOrDefault(finalStatus), finalContentType)
			}
			_, _ = w.Write(r.chunk)
			if stream {
				// client.Raw hands onChunk a newline-stripped line; put the
				// delimiter back so concatenated chunks stay valid NDJSON.
				_, _ = w.Write(newline)
				if f, ok := w.(http.Flusher); ok {
					f.Flush()
				}
			}
		case <-timer.C:
			if wroteFirstByte {
				continue
			}
			cancel()
			<-done
			return 0, false, errFirstByteTimeout
		}
	}
}

func statusOrDefault(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}

var errFirstByteTimeout = errors.New("backend did not respond within the first-byte deadline")

var newline = []byte("\n")

func writeHeaderWithContentType(w http.ResponseWriter, status int, contentType string) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

package forwarder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ollamafleet/router/ent"
)

func newTestForwarder(cfg Config) *Forwarder {
	return New(nil, nil, nil, nil, nil, cfg)
}

func TestForwardToFirstHealthy_FailsOverPastDeadEndpoint(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Never responds within the deadline.
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer dead.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer healthy.Close()

	f := newTestForwarder(Config{FirstByteTimeout: 50 * time.Millisecond})
	endpoints := []*ent.Endpoint{
		{ID: "dead", URL: dead.URL},
		{ID: "healthy", URL: healthy.URL},
	}

	rec := httptest.NewRecorder()
	status := f.forwardToFirstHealthy(context.Background(), rec, endpoints, http.MethodPost, "/api/generate", nil, nil, []byte(`{}`), false)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
}

func TestForwardToFirstHealthy_NoFailoverAfterFirstByteWritten(t *testing.T) {
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		_, _ = w.Write([]byte("first-chunk\n"))
		if flusher != nil {
			flusher.Flush()
		}
		// Connection then drops mid-stream; no further candidate should be tried.
	}))
	defer flaky.Close()

	neverCalled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("second endpoint should not be contacted once the first wrote a byte")
		w.WriteHeader(http.StatusOK)
	}))
	defer neverCalled.Close()

	f := newTestForwarder(Config{FirstByteTimeout: time.Second})
	endpoints := []*ent.Endpoint{
		{ID: "flaky", URL: flaky.URL},
		{ID: "never", URL: neverCalled.URL},
	}

	rec := httptest.NewRecorder()
	status := f.forwardToFirstHealthy(context.Background(), rec, endpoints, http.MethodPost, "/api/generate", nil, nil, []byte(`{}`), true)

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, rec.Body.String(), "first-chunk")
}

func TestForwardToFirstHealthy_AllDeadReturnsBadGateway(t *testing.T) {
	dead1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer dead1.Close()
	dead2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer dead2.Close()

	f := newTestForwarder(Config{FirstByteTimeout: 20 * time.Millisecond})
	endpoints := []*ent.Endpoint{
		{ID: "dead1", URL: dead1.URL},
		{ID: "dead2", URL: dead2.URL},
	}

	rec := httptest.NewRecorder()
	status := f.forwardToFirstHealthy(context.Background(), rec, endpoints, http.MethodPost, "/api/generate", nil, nil, []byte(`{}`), false)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestForwardToFirstHealthy_UniformUpstreamStatusPropagated(t *testing.T) {
	unavailable := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	ep1 := httptest.NewServer(http.HandlerFunc(unavailable))
	defer ep1.Close()
	ep2 := httptest.NewServer(http.HandlerFunc(unavailable))
	defer ep2.Close()

	f := newTestForwarder(Config{FirstByteTimeout: time.Second})
	endpoints := []*ent.Endpoint{
		{ID: "ep1", URL: ep1.URL},
		{ID: "ep2", URL: ep2.URL},
	}

	rec := httptest.NewRecorder()
	status := f.forwardToFirstHealthy(context.Background(), rec, endpoints, http.MethodPost, "/api/generate", nil, nil, []byte(`{}`), false)

	assert.Equal(t, http.StatusServiceUnavailable, status, "every candidate failed with the same upstream status, so it should be propagated instead of a generic 502")
}

func TestForwardToFirstHealthy_MixedUpstreamStatusFallsBackTo502(t *testing.T) {
	ep1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ep1.Close()
	ep2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ep2.Close()

	f := newTestForwarder(Config{FirstByteTimeout: time.Second})
	endpoints := []*ent.Endpoint{
		{ID: "ep1", URL: ep1.URL},
		{ID: "ep2", URL: ep2.URL},
	}

	rec := httptest.NewRecorder()
	status := f.forwardToFirstHealthy(context.Background(), rec, endpoints, http.MethodPost, "/api/generate", nil, nil, []byte(`{}`), false)

	assert.Equal(t, http.StatusBadGateway, status)
}

func TestForwardToFirstHealthy_MultiChunkStreamPreservesNDJSONFraming(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, line := range []string{`{"response":"one"}`, `{"response":"two"}`, `{"response":"three","done":true}`} {
			_, _ = w.Write([]byte(line + "\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer backend.Close()

	f := newTestForwarder(Config{FirstByteTimeout: time.Second})
	endpoints := []*ent.Endpoint{{ID: "ep1", URL: backend.URL}}

	rec := httptest.NewRecorder()
	status := f.forwardToFirstHealthy(context.Background(), rec, endpoints, http.MethodPost, "/api/generate", nil, nil, []byte(`{}`), true)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t,
		"{\"response\":\"one\"}\n{\"response\":\"two\"}\n{\"response\":\"three\",\"done\":true}\n",
		rec.Body.String(),
		"each relayed line must keep its newline delimiter so the client can re-split the NDJSON stream",
	)
}

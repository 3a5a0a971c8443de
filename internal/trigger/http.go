package trigger

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultResponseTimeout bounds how long an inbound request waits for
// respond() before the dispatcher gives up with a 504.
const DefaultResponseTimeout = 30 * time.Second

// HTTPDispatcher routes inbound requests to component instances by
// endpoint identifier and blocks each request until exactly one
// response is issued (or the timeout elapses).
//
// Requests are addressed as /{endpointID} or /{endpointID}/rest...;
// endpoints for deactivated instances are deregistered, so later
// requests see 404.
type HTTPDispatcher struct {
	mu        sync.Mutex
	endpoints map[string]Target

	timeout time.Duration
	logger  *slog.Logger
}

// HTTPOption configures an HTTPDispatcher.
type HTTPOption func(*HTTPDispatcher)

// WithResponseTimeout overrides DefaultResponseTimeout.
func WithResponseTimeout(timeout time.Duration) HTTPOption {
	return func(d *HTTPDispatcher) {
		d.timeout = timeout
	}
}

// WithHTTPLogger sets the dispatcher logger.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(d *HTTPDispatcher) {
		d.logger = logger
	}
}

// NewHTTPDispatcher creates an empty dispatcher.
func NewHTTPDispatcher(opts ...HTTPOption) *HTTPDispatcher {
	d := &HTTPDispatcher{
		endpoints: make(map[string]Target),
		timeout:   DefaultResponseTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register binds an endpoint identifier to a target instance.
func (d *HTTPDispatcher) Register(endpointID string, target Target) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endpoints[endpointID] = target
}

// Deregister removes an endpoint. Subsequent requests get 404.
func (d *HTTPDispatcher) Deregister(endpointID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.endpoints, endpointID)
}

// ServeHTTP implements http.Handler. Each request maps 1:1 to one
// HttpEvent and suspends until respond() or timeout.
func (d *HTTPDispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	endpointID, rest := splitEndpoint(r.URL.Path)
	if endpointID == "" {
		http.NotFound(w, r)
		return
	}

	d.mu.Lock()
	target, ok := d.endpoints[endpointID]
	d.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	ev := &HttpEvent{
		Method:    r.Method,
		Path:      rest,
		Query:     flattenValues(r.URL.Query()),
		Headers:   flattenHeader(r.Header),
		BodyRaw:   string(raw),
		Body:      parseBody(raw),
		Responder: NewResponder(),
	}

	if err := target.Dispatch(ev); err != nil {
		d.logger.Warn("request rejected", "endpoint", endpointID, "error", err)
		http.Error(w, "instance is not accepting requests", http.StatusServiceUnavailable)
		return
	}

	select {
	case resp := <-ev.Responder.Done():
		writeResponse(w, resp)

	case <-time.After(d.timeout):
		// The invocation keeps running; only the waiting request gives up.
		d.logger.Warn("response timeout, returning 504",
			"endpoint", endpointID,
			"timeout", d.timeout,
		)
		http.Error(w, "response timed out", http.StatusGatewayTimeout)

	case <-r.Context().Done():
		d.logger.Warn("client went away before response", "endpoint", endpointID)
	}
}

// splitEndpoint extracts the endpoint identifier and the remainder of
// the path.
func splitEndpoint(path string) (endpoint, rest string) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "", "/"
	}
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx], trimmed[idx:]
	}
	return trimmed, "/"
}

// flattenValues keeps the first value per key, matching the wire
// format's flat mapping.
func flattenValues(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func flattenHeader(h http.Header) map[string]string {
	return flattenValues(h)
}

// parseBody yields the parsed JSON body when the raw bytes parse,
// otherwise the raw string.
func parseBody(raw []byte) any {
	if len(raw) == 0 {
		return ""
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return string(raw)
	}
	return parsed
}

// writeResponse renders a component response. String and byte bodies
// pass through raw; everything else is JSON-encoded.
func writeResponse(w http.ResponseWriter, resp Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	switch body := resp.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		w.WriteHeader(status)
		io.WriteString(w, body)
	case []byte:
		w.WriteHeader(status)
		w.Write(body)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			http.Error(w, "response body not serializable", http.StatusInternalServerError)
			return
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		w.Write(data)
	}
}

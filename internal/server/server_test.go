package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/deptree/pkg/deps"
	"github.com/matzehuels/deptree/pkg/observability"
	"github.com/matzehuels/deptree/pkg/observability/metrics"
)

var registry = map[string]*deps.Metadata{
	"a": {Name: "a", Versions: map[string][]deps.Dependency{
		"1.0.0": {{Name: "b", Range: "^1.0.0"}},
	}, DistTags: map[string]string{"latest": "1.0.0"}},
	"b": {Name: "b", Versions: map[string][]deps.Dependency{
		"1.0.0": {{Name: "a", Range: "^1.0.0"}},
		"1.2.0": {{Name: "a", Range: "^1.0.0"}},
	}},
	"@types/node": {Name: "@types/node", Versions: map[string][]deps.Dependency{"20.0.0": nil}},
	"flaky":       {Name: "flaky", Versions: map[string][]deps.Dependency{"1.0.0": {{Name: "down", Range: "*"}}}},
}

func fetch(_ context.Context, name string, _ bool) (*deps.Metadata, error) {
	if name == "down" {
		return nil, fmt.Errorf("%w: status 503", deps.ErrTransient)
	}
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", deps.ErrNotFound, name)
	}
	return m, nil
}

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	r := deps.NewResolver(deps.FetcherFunc(fetch), deps.Options{})
	ts := httptest.NewServer(New(r, opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestPackage(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, body := get(t, ts.URL+"/package/a/1.0.0")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}

	var tree deps.Node
	if err := json.Unmarshal([]byte(body), &tree); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tree.ID() != "a@1.0.0" || len(tree.Dependencies) != 1 {
		t.Fatalf("tree = %s", body)
	}
	b := tree.Dependencies[0]
	if b.ID() != "b@1.2.0" {
		t.Errorf("child = %s, want b@1.2.0", b.ID())
	}
	if b.Dependencies == nil || len(b.Dependencies) != 0 {
		t.Errorf("cycle back to root should leave an empty array: %s", body)
	}
}

func TestPackageByTag(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, body := get(t, ts.URL+"/package/a/latest")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"version": "1.0.0"`) {
		t.Errorf("status = %d, body = %s", resp.StatusCode, body)
	}
}

func TestPackageScoped(t *testing.T) {
	ts := newTestServer(t, Options{})

	for _, path := range []string{"/package/@types/node/20.0.0", "/package/@types%2Fnode/20.0.0"} {
		t.Run(path, func(t *testing.T) {
			resp, body := get(t, ts.URL+path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
			}
			if !strings.Contains(body, `"name": "@types/node"`) {
				t.Errorf("body = %s", body)
			}
		})
	}
}

func TestPackageErrors(t *testing.T) {
	ts := newTestServer(t, Options{})

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown package", "/package/ghost/1.0.0", http.StatusNotFound, "PACKAGE_NOT_FOUND"},
		{"registry down", "/package/flaky/1.0.0", http.StatusBadGateway, "NETWORK_ERROR"},
		{"no matching version", "/package/a/%5E9.0.0", http.StatusNotFound, "VERSION_NOT_FOUND"},
		{"policy override", "/package/a/1.0.0?policy=lowest", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad format", "/package/a/1.0.0?format=png", http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad name", "/package/has%20space/1.0.0", http.StatusBadRequest, "INVALID_PACKAGE"},
		{"no route", "/nope", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (body %s)", resp.StatusCode, tt.status, body)
			}
			var eb errorBody
			if err := json.Unmarshal([]byte(body), &eb); err != nil {
				t.Fatalf("error body is not JSON: %s", body)
			}
			if string(eb.Error.Code) != tt.code {
				t.Errorf("code = %s, want %s", eb.Error.Code, tt.code)
			}
			if eb.Error.Message == "" || eb.Error.RequestID == "" {
				t.Errorf("incomplete error body: %s", body)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, err := http.Post(ts.URL+"/package/a/1.0.0", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestPackageFormats(t *testing.T) {
	ts := newTestServer(t, Options{})

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"text", "text/plain; charset=utf-8", "└── b@1.2.0"},
		{"dot", "text/vnd.graphviz", `"a@1.0.0" -> "b@1.2.0"`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp, body := get(t, ts.URL+"/package/a/1.0.0?format="+tt.format)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %s", ct)
			}
			if !strings.Contains(body, tt.contains) {
				t.Errorf("body missing %q:\n%s", tt.contains, body)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, _ := get(t, ts.URL+"/healthz")
	generated := resp.Header.Get(RequestIDHeader)
	if len(generated) != 36 {
		t.Errorf("generated request id = %q", generated)
	}

	const id = "6f1c2b1e-8a59-4c8e-9d0c-2f3c4b5a6d7e"
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want echoed %q", got, id)
	}

	req.Header.Set(RequestIDHeader, "not-a-uuid\r\ninjected")
	resp, err = http.DefaultClient.Do(req)
	if err == nil {
		resp.Body.Close()
		if got := resp.Header.Get(RequestIDHeader); got == "not-a-uuid\r\ninjected" {
			t.Error("malformed request ids should be replaced")
		}
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"ok"`) {
		t.Errorf("status = %d, body = %s", resp.StatusCode, body)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg).Register()
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, Options{Gatherer: reg})
	get(t, ts.URL+"/package/a/1.0.0")

	resp, body := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "deptree_resolve_total") {
		t.Errorf("metrics missing resolve counter:\n%s", body)
	}
}

func TestMetricsDisabled(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, _ := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without a gatherer", resp.StatusCode)
	}
}

func TestRequestTimeout(t *testing.T) {
	slow := deps.FetcherFunc(func(ctx context.Context, name string, _ bool) (*deps.Metadata, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	srv := New(deps.NewResolver(slow, deps.Options{}), Options{RequestTimeout: 20 * time.Millisecond})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, body := get(t, ts.URL+"/package/a/1.0.0")
	if resp.StatusCode != http.StatusGatewayTimeout || !strings.Contains(body, "TIMEOUT") {
		t.Errorf("status = %d, body = %s", resp.StatusCode, body)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	srv := New(deps.NewResolver(deps.FetcherFunc(fetch), deps.Options{}), Options{ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0", time.Second, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

package deps

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeRegistry is an in-memory Fetcher that counts fetches per name.
type fakeRegistry struct {
	mu     sync.Mutex
	pkgs   map[string]*Metadata
	errs   map[string]error
	calls  map[string]int
	delays map[string]time.Duration
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		pkgs:   make(map[string]*Metadata),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
		delays: make(map[string]time.Duration),
	}
}

// add registers name@version with deps given as "name", "range" pairs.
func (f *fakeRegistry) add(name, version string, pairs ...string) *fakeRegistry {
	m, ok := f.pkgs[name]
	if !ok {
		m = &Metadata{Name: name, Versions: make(map[string][]Dependency)}
		f.pkgs[name] = m
	}
	var ds []Dependency
	for i := 0; i+1 < len(pairs); i += 2 {
		ds = append(ds, Dependency{Name: pairs[i], Range: pairs[i+1]})
	}
	m.Versions[version] = ds
	return f
}

func (f *fakeRegistry) Fetch(ctx context.Context, name string, _ bool) (*Metadata, error) {
	f.mu.Lock()
	f.calls[name]++
	delay := f.delays[name]
	err := f.errs[name]
	m, ok := f.pkgs[name]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return m, nil
}

func (f *fakeRegistry) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRegistry) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// shape renders a tree as "name@version(child,child)" for compact assertions.
func shape(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	s := n.ID()
	if len(n.Dependencies) == 0 {
		return s
	}
	s += "("
	for i, d := range n.Dependencies {
		if i > 0 {
			s += ","
		}
		s += shape(d)
	}
	return s + ")"
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyHighest, false},
		{"highest", PolicyHighest, false},
		{" LOWEST ", PolicyLowest, false},
		{"newest", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseCacheScope(t *testing.T) {
	tests := []struct {
		in      string
		want    CacheScope
		wantErr bool
	}{
		{"", ScopeRequest, false},
		{"request", ScopeRequest, false},
		{"Process", ScopeProcess, false},
		{"global", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCacheScope(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCacheScope(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCacheScope(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	if opts.Policy != PolicyHighest {
		t.Errorf("Policy = %q, want highest", opts.Policy)
	}
	if opts.CacheScope != ScopeRequest {
		t.Errorf("CacheScope = %q, want request", opts.CacheScope)
	}
	if opts.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", opts.MaxDepth, DefaultMaxDepth)
	}
	if opts.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", opts.Workers, DefaultWorkers)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}

	custom := Options{MaxDepth: 3, Workers: 2, Policy: PolicyLowest}.WithDefaults()
	if custom.MaxDepth != 3 || custom.Workers != 2 || custom.Policy != PolicyLowest {
		t.Errorf("WithDefaults overwrote explicit values: %+v", custom)
	}
}

func TestNodeCountDepth(t *testing.T) {
	n := &Node{Name: "a", Version: "1.0.0", Dependencies: []*Node{
		{Name: "b", Version: "1.0.0", Dependencies: []*Node{{Name: "c", Version: "1.0.0"}}},
		{Name: "d", Version: "1.0.0"},
	}}
	if got := n.Count(); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}
	if got := n.Depth(); got != 3 {
		t.Errorf("Depth() = %d, want 3", got)
	}
	var empty *Node
	if empty.Count() != 0 || empty.Depth() != 0 {
		t.Error("nil node should have zero count and depth")
	}
}

func TestNodeJSON(t *testing.T) {
	n := &Node{Name: "a", Version: "1.0.0", Dependencies: []*Node{}}
	want := `{"name":"a","version":"1.0.0","dependencies":[]}`
	if got := mustJSON(n); got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

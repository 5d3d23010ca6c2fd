package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/deptree/pkg/deps"
	pkgio "github.com/matzehuels/deptree/pkg/io"
)

// registryDocs is a tiny npm registry: a -> b (^1.0.0), b@1.2.0 -> a.
var registryDocs = map[string]string{
	"a": `{"name":"a","dist-tags":{"latest":"1.0.0"},"versions":{
		"1.0.0":{"dependencies":{"b":"^1.0.0"}}}}`,
	"b": `{"name":"b","dist-tags":{"latest":"1.2.0"},"versions":{
		"1.0.0":{},
		"1.2.0":{"dependencies":{"a":"1.0.0"}},
		"2.0.0":{}}}`,
}

func newRegistry(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, _ := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/"))
		doc, ok := registryDocs[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setup isolates XDG dirs and writes a config pointing at a fake registry.
func setup(t *testing.T, extra string) (cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	srv := newRegistry(t)
	cfgPath = filepath.Join(dir, "deptree.toml")
	data := "[registry]\nbase_url = \"" + srv.URL + "\"\nretries = 1\n\n" + extra
	if err := os.WriteFile(cfgPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func shape(n *deps.Node) string {
	var b strings.Builder
	var walk func(n *deps.Node)
	walk = func(n *deps.Node) {
		b.WriteString(n.ID())
		if len(n.Dependencies) == 0 {
			return
		}
		b.WriteString("(")
		for i, d := range n.Dependencies {
			if i > 0 {
				b.WriteString(" ")
			}
			walk(d)
		}
		b.WriteString(")")
	}
	walk(n)
	return b.String()
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"resolve", "render", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing persistent --config flag")
	}
}

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"exact version", []string{"a", "1.0.0"}, "a@1.0.0(b@1.2.0)"},
		{"default latest", []string{"a"}, "a@1.0.0(b@1.2.0)"},
		{"lowest policy", []string{"a", "1.0.0", "--policy", "lowest"}, "a@1.0.0(b@1.0.0)"},
		{"range root", []string{"b", "^1.0.0"}, "b@1.2.0(a@1.0.0)"},
		{"concurrent", []string{"a", "1.0.0", "--concurrent", "--workers", "2"}, "a@1.0.0(b@1.2.0)"},
		{"max depth", []string{"a", "1.0.0", "--max-depth", "1"}, "a@1.0.0(b@1.2.0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, dir := setup(t, "[cache]\nbackend = \"none\"\n")
			out := filepath.Join(dir, "tree.json")

			args := append([]string{"resolve", "--config", cfg, "-o", out}, tt.args...)
			if _, err := execute(t, args...); err != nil {
				t.Fatalf("resolve: %v", err)
			}
			tree, err := pkgio.ImportJSON(out)
			if err != nil {
				t.Fatal(err)
			}
			if got := shape(tree); got != tt.want {
				t.Errorf("tree = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveCommandFileCache(t *testing.T) {
	cfg, dir := setup(t, "[resolver]\ncache_scope = \"process\"\n")
	out := filepath.Join(dir, "tree.json")

	for i := 0; i < 2; i++ {
		if _, err := execute(t, "resolve", "--config", cfg, "-o", out, "a", "1.0.0"); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(dir, "cache", "deptree"))
	if err != nil || len(entries) == 0 {
		t.Errorf("file cache is empty after resolve (err=%v)", err)
	}
}

func TestResolveCommandTextFormat(t *testing.T) {
	cfg, dir := setup(t, "[cache]\nbackend = \"none\"\n")
	out := filepath.Join(dir, "tree.txt")

	if _, err := execute(t, "resolve", "--config", cfg, "-f", "text", "-o", out, "a", "1.0.0"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"a@1.0.0", "b@1.2.0"} {
		if !strings.Contains(string(data), s) {
			t.Errorf("text output missing %q:\n%s", s, data)
		}
	}
}

func TestResolveCommandManifest(t *testing.T) {
	cfg, dir := setup(t, "[cache]\nbackend = \"none\"\n")
	manifest := filepath.Join(dir, "package.json")
	pkg := `{"name":"app","version":"0.1.0","dependencies":{"b":"~1.0.0"},"devDependencies":{"a":"1.0.0"}}`
	if err := os.WriteFile(manifest, []byte(pkg), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		dev  bool
		want string
	}{
		{"runtime only", false, "app@0.1.0(b@1.0.0)"},
		// b is cached by name, so a reuses b@1.0.0 despite its own range.
		{"with dev", true, "app@0.1.0(b@1.0.0 a@1.0.0(b@1.0.0))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "tree.json")
			args := []string{"resolve", "--config", cfg, "-o", out, "--manifest", manifest}
			if tt.dev {
				args = append(args, "--dev")
			}
			if _, err := execute(t, args...); err != nil {
				t.Fatal(err)
			}
			tree, err := pkgio.ImportJSON(out)
			if err != nil {
				t.Fatal(err)
			}
			if got := shape(tree); got != tt.want {
				t.Errorf("tree = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveCommandErrors(t *testing.T) {
	cfg, dir := setup(t, "[cache]\nbackend = \"none\"\n")
	out := filepath.Join(dir, "tree.json")

	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{"unknown package", []string{"missing", "1.0.0"}, deps.ErrNotFound},
		{"no matching root", []string{"a", "^9.0.0"}, deps.ErrNoMatchingVersion},
		{"invalid name", []string{"Bad Name", "1.0.0"}, nil},
		{"invalid format", []string{"a", "1.0.0", "-f", "gif"}, nil},
		{"invalid policy", []string{"a", "1.0.0", "--policy", "newest"}, nil},
		{"too many args", []string{"a", "1.0.0", "extra"}, nil},
		{"manifest with args", []string{"a", "--manifest", "package.json"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"resolve", "--config", cfg, "-o", out}, tt.args...)
			_, err := execute(t, args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "tree.json")
	tree := &deps.Node{Name: "a", Version: "1.0.0", Dependencies: []*deps.Node{
		{Name: "b", Version: "1.2.0", Dependencies: []*deps.Node{}},
	}}
	if err := pkgio.ExportJSON(tree, input); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		format string
		want   string
	}{
		{"text", "b@1.2.0"},
		{"dot", `"a@1.0.0" -> "b@1.2.0";`},
		{"json", `"name": "b"`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out := filepath.Join(dir, "out."+tt.format)
			if _, err := execute(t, "render", input, "-f", tt.format, "-o", out); err != nil {
				t.Fatal(err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("%s output missing %q:\n%s", tt.format, tt.want, data)
			}
		})
	}
}

func TestRenderCommandRejectsInvalidTree(t *testing.T) {
	input := filepath.Join(t.TempDir(), "tree.json")
	if err := os.WriteFile(input, []byte(`{"name":"a"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "render", input); err == nil {
		t.Error("expected error for a tree without version")
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "deptree") {
		t.Error("bash completion does not mention deptree")
	}
}

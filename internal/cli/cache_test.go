package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/deptree/pkg/cache"
)

func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "cache", "deptree")
	if got := strings.TrimSpace(out); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestCachePathFromConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	custom := filepath.Join(dir, "custom")
	cfg := filepath.Join(dir, "deptree.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\ndir = \""+filepath.ToSlash(custom)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "cache", "path", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out); got != filepath.ToSlash(custom) {
		t.Errorf("cache path = %q, want %q", got, custom)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	fc, err := cache.NewFileCache(filepath.Join(dir, "cache", "deptree"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"npm:a", "npm:b"} {
		if err := fc.Set(ctx, k, []byte(`{}`), 0); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"npm:a", "npm:b"} {
		if _, ok, _ := fc.Get(ctx, k); ok {
			t.Errorf("entry %q survived cache clear", k)
		}
	}
}

func TestCacheClearMissingDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "nothing"))

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("clearing a missing cache: %v", err)
	}
}

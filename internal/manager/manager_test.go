package manager

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/script-hub/script-hub/internal/artifact"
	"github.com/script-hub/script-hub/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Global: config.GlobalConfig{
			ListenPort:     5000,
			SourceRoot:     filepath.Join(dir, "scripts"),
			CompiledFolder: filepath.Join(dir, "compiled"),
			FetchTimeout:   config.Duration(1),
		},
	}
	if err := os.MkdirAll(cfg.Global.SourceRoot, 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	return cfg
}

func writeScript(t *testing.T, cfg *config.Config, name, body string) {
	t.Helper()
	path := filepath.Join(cfg.Global.SourceRoot, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script error: %v", err)
	}
}

func newManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	m, err := New(cfg, http.DefaultClient, nil)
	if err != nil {
		t.Fatalf("manager error: %v", err)
	}
	return m
}

func TestCompileEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	writeScript(t, cfg, "app.js", "compiled text")
	m := newManager(t, cfg)

	result, err := m.Compile(context.Background(), "app")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if !result.Found() || result.Body != "compiled text" {
		t.Fatalf("unexpected result: %+v", result)
	}

	// 产物应落盘在 {CompiledFolder}/app
	if _, err := os.Stat(filepath.Join(cfg.Global.CompiledFolder, "app")); err != nil {
		t.Fatalf("artifact file missing: %v", err)
	}

	again, err := m.Compile(context.Background(), "app")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if again.Status != artifact.StatusHit || again.Body != result.Body {
		t.Fatalf("second compile should hit cache: %+v", again)
	}
}

func TestDisabledBundleSentinel(t *testing.T) {
	cfg := testConfig(t) // BundleFolder 未配置
	m := newManager(t, cfg)

	result, err := m.Bundle(context.Background(), "app")
	if err != nil {
		t.Fatalf("bundle error: %v", err)
	}
	if result.Status != artifact.StatusDisabled {
		t.Fatalf("expected disabled, got %+v", result)
	}
	if !strings.Contains(result.Text(), "cachedBundle is disabled in the script-hub configuration.") {
		t.Fatalf("unexpected sentinel: %s", result.Text())
	}
}

func TestEmptyScriptRejectedBeforeIO(t *testing.T) {
	cfg := testConfig(t)
	m := newManager(t, cfg)

	if _, err := m.Compile(context.Background(), ""); !errors.Is(err, ErrScriptRequired) {
		t.Fatalf("empty script should be rejected, got %v", err)
	}
	if _, err := m.Compile(context.Background(), "///"); !errors.Is(err, ErrScriptRequired) {
		t.Fatalf("degenerate script should be rejected, got %v", err)
	}
	if _, err := m.Remote(context.Background(), "", "utils.js"); !errors.Is(err, ErrHandleRequired) {
		t.Fatalf("empty handle should be rejected, got %v", err)
	}
}

func TestClearForcesRegeneration(t *testing.T) {
	cfg := testConfig(t)
	writeScript(t, cfg, "app.js", "v1")
	m := newManager(t, cfg)

	if _, err := m.Compile(context.Background(), "app"); err != nil {
		t.Fatalf("compile error: %v", err)
	}

	// 源更新后命中旧缓存；clear 之后才会重新生成
	writeScript(t, cfg, "app.js", "v2")
	stale, err := m.Compile(context.Background(), "app")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if stale.Body != "v1" {
		t.Fatalf("cache must not auto-invalidate, got %s", stale.Body)
	}

	if err := m.Clear(context.Background()); err != nil {
		t.Fatalf("clear error: %v", err)
	}

	fresh, err := m.Compile(context.Background(), "app")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if fresh.Status != artifact.StatusGenerated || fresh.Body != "v2" {
		t.Fatalf("clear should force one regeneration: %+v", fresh)
	}
}

func TestRegisterSourceAndDuplicate(t *testing.T) {
	cfg := testConfig(t)
	m := newManager(t, cfg)

	if err := m.RegisterSource("lib", "https://cdn.example/lib/"); err != nil {
		t.Fatalf("register error: %v", err)
	}
	if err := m.RegisterSource("lib", "https://other.example/"); err == nil {
		t.Fatalf("duplicate handle should fail")
	}
	sources := m.Sources()
	if len(sources) != 1 || sources[0].Handle != "lib" {
		t.Fatalf("unexpected sources: %+v", sources)
	}
}

func TestKindsSnapshot(t *testing.T) {
	cfg := testConfig(t)
	m := newManager(t, cfg)

	kinds := m.Kinds()
	want := map[string]bool{"bundle": false, "compile": true, "transpile": false, "remote": false}
	for _, k := range kinds {
		if want[k.Kind] != k.Enabled {
			t.Fatalf("kind %s enabled=%v, want %v", k.Kind, k.Enabled, want[k.Kind])
		}
	}
}

package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/script-hub/script-hub/internal/config"
)

func TestDiagnosticsSnapshot(t *testing.T) {
	env := newEnv(t, func(cfg *config.Config) {
		cfg.Sources = []config.SourceConfig{
			{Name: "lib", URL: "https://cdn.example/lib/"},
			{Name: "vendor", URL: "https://cdn.example/vendor/"},
		}
	})

	resp := env.request(t, http.MethodGet, "/-/caches")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Kinds []struct {
			Kind    string `json:"kind"`
			Enabled bool   `json:"enabled"`
		} `json:"kinds"`
		Sources []struct {
			Handle  string `json:"handle"`
			BaseURL string `json:"base_url"`
		} `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	resp.Body.Close()

	if len(payload.Kinds) != 4 {
		t.Fatalf("expected 4 kinds, got %d", len(payload.Kinds))
	}
	for _, k := range payload.Kinds {
		if k.Kind == "compile" && !k.Enabled {
			t.Fatalf("compile should be enabled: %+v", payload.Kinds)
		}
		if k.Kind == "bundle" && k.Enabled {
			t.Fatalf("bundle should be disabled: %+v", payload.Kinds)
		}
	}

	// 注册顺序保持配置顺序
	if len(payload.Sources) != 2 || payload.Sources[0].Handle != "lib" || payload.Sources[1].Handle != "vendor" {
		t.Fatalf("unexpected sources: %+v", payload.Sources)
	}
}

func TestRuntimeSourceRegistrationVisibleInDiagnostics(t *testing.T) {
	env := newEnv(t, nil)

	if err := env.mgr.RegisterSource("cdn", "https://cdn.example/"); err != nil {
		t.Fatalf("register error: %v", err)
	}

	resp := env.request(t, http.MethodGet, "/-/caches")
	var payload struct {
		Sources []struct {
			Handle string `json:"handle"`
		} `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	resp.Body.Close()

	if len(payload.Sources) != 1 || payload.Sources[0].Handle != "cdn" {
		t.Fatalf("runtime registration missing: %+v", payload.Sources)
	}
}

package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/script-hub/script-hub/internal/config"
	"github.com/script-hub/script-hub/internal/manager"
	"github.com/script-hub/script-hub/internal/server"
	"github.com/script-hub/script-hub/internal/server/routes"
)

// testEnv 组装一个完整的 script-hub 服务：配置、缓存引擎与 Fiber 应用。
type testEnv struct {
	cfg *config.Config
	mgr *manager.Manager
	app *fiber.App
}

func newEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Global: config.GlobalConfig{
			ListenPort:     5000,
			SourceRoot:     filepath.Join(dir, "scripts"),
			CompiledFolder: filepath.Join(dir, "compiled"),
			FetchTimeout:   config.Duration(time.Second),
		},
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := os.MkdirAll(cfg.Global.SourceRoot, 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mgr, err := manager.New(cfg, server.NewFetchClient(cfg), logger)
	if err != nil {
		t.Fatalf("manager error: %v", err)
	}

	bindings, err := server.BuildBindings(cfg.Global)
	if err != nil {
		t.Fatalf("bindings error: %v", err)
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Manager:    mgr,
		Bindings:   bindings,
		ListenPort: cfg.Global.ListenPort,
	})
	if err != nil {
		t.Fatalf("app error: %v", err)
	}
	routes.RegisterCacheRoutes(app, mgr)

	return &testEnv{cfg: cfg, mgr: mgr, app: app}
}

func (e *testEnv) writeScript(t *testing.T, name, body string) {
	t.Helper()
	path := filepath.Join(e.cfg.Global.SourceRoot, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script error: %v", err)
	}
}

func (e *testEnv) request(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "http://script.hub.local"+path, nil)
	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	return resp
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body error: %v", err)
	}
	return string(body)
}

// Package manager aggregates the path planner, the three artifact caches,
// the remote cache and the source rewriter behind one facade. It owns the
// configuration and the remote-source registry for its lifetime; nothing is
// shared across Manager instances.
package manager

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/script-hub/script-hub/internal/artifact"
	"github.com/script-hub/script-hub/internal/cache"
	"github.com/script-hub/script-hub/internal/config"
	"github.com/script-hub/script-hub/internal/generate"
	"github.com/script-hub/script-hub/internal/plan"
	"github.com/script-hub/script-hub/internal/remote"
	"github.com/script-hub/script-hub/internal/rewrite"
)

// ErrScriptRequired 表示请求缺少脚本标识，在任何文件系统访问前被拒绝。
var ErrScriptRequired = errors.New("script identifier required")

// ErrHandleRequired 表示远程请求缺少 source handle。
var ErrHandleRequired = errors.New("source handle required")

// Manager 是缓存引擎的统一入口。
type Manager struct {
	cfg      *config.Config
	logger   *logrus.Logger
	planner  *plan.Planner
	registry *rewrite.Registry
	rewriter *rewrite.Rewriter
	store    cache.Store
	caches   map[artifact.Kind]*artifact.Cache
	remote   *remote.Cache
}

// New 根据配置装配整个缓存引擎。client 用于远程抓取，可在测试中注入。
func New(cfg *config.Config, client *http.Client, logger *logrus.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	registry := rewrite.NewRegistry()
	for _, source := range cfg.Sources {
		if err := registry.Register(source.Name, source.URL); err != nil {
			return nil, fmt.Errorf("register source %s: %w", source.Name, err)
		}
	}
	rewriter := rewrite.NewRewriter(cfg.Global.RewriteRemoteRefs, cfg.Global.RemoteCacheBase, registry)
	planner := plan.New(cfg.Global)

	roots := map[string]string{}
	if cfg.Global.BundleEnabled() {
		roots[artifact.KindBundle.Space()] = cfg.Global.BundleFolder
	}
	if cfg.Global.CompileEnabled() {
		roots[artifact.KindCompile.Space()] = cfg.Global.CompiledFolder
	}
	if cfg.Global.TranspileEnabled() {
		roots[artifact.KindTranspile.Space()] = cfg.Global.TranspiledFolder
	}
	if cfg.Global.RemoteEnabled() {
		roots[artifact.KindRemote.Space()] = cfg.Global.RemoteCacheFolder
	}

	var store cache.Store
	if len(roots) > 0 {
		var err error
		store, err = cache.NewStore(roots)
		if err != nil {
			return nil, fmt.Errorf("init cache store: %w", err)
		}
	}

	m := &Manager{
		cfg:      cfg,
		logger:   logger,
		planner:  planner,
		registry: registry,
		rewriter: rewriter,
		store:    store,
		caches:   make(map[artifact.Kind]*artifact.Cache, 3),
	}

	kindCommands := map[artifact.Kind]struct {
		enabled bool
		command string
	}{
		artifact.KindBundle:    {cfg.Global.BundleEnabled(), cfg.Global.BundleCommand},
		artifact.KindCompile:   {cfg.Global.CompileEnabled(), cfg.Global.CompileCommand},
		artifact.KindTranspile: {cfg.Global.TranspileEnabled(), cfg.Global.TranspileCommand},
	}
	for kind, kc := range kindCommands {
		if !kc.enabled {
			m.caches[kind] = artifact.NewCache(kind, false, nil, nil, nil, logger)
			continue
		}
		transform, err := generate.FromConfig(kc.command)
		if err != nil {
			return nil, fmt.Errorf("%s transform: %w", kind, err)
		}
		gen, err := generate.New(generate.Options{
			Kind:      kind,
			Planner:   planner,
			Store:     store,
			Rewriter:  rewriter,
			Transform: transform,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%s generator: %w", kind, err)
		}
		m.caches[kind] = artifact.NewCache(kind, true, planner, store, gen, logger)
	}

	m.remote = remote.New(remote.Options{
		Enabled:  cfg.Global.RemoteEnabled(),
		Store:    store,
		Registry: registry,
		Rewriter: rewriter,
		Client:   client,
		Logger:   logger,
	})

	return m, nil
}

// Bundle 查找（或按需生成）bundle 产物。
func (m *Manager) Bundle(ctx context.Context, script string) (artifact.Result, error) {
	return m.lookup(ctx, artifact.KindBundle, script)
}

// Compile 查找（或按需生成）compile 产物。
func (m *Manager) Compile(ctx context.Context, script string) (artifact.Result, error) {
	return m.lookup(ctx, artifact.KindCompile, script)
}

// Transpile 查找（或按需生成）transpile 产物。
func (m *Manager) Transpile(ctx context.Context, script string) (artifact.Result, error) {
	return m.lookup(ctx, artifact.KindTranspile, script)
}

func (m *Manager) lookup(ctx context.Context, kind artifact.Kind, script string) (artifact.Result, error) {
	if plan.Normalize(script) == "" {
		return artifact.Result{}, ErrScriptRequired
	}
	return m.caches[kind].Lookup(ctx, script)
}

// Remote 查找（或抓取）注册源下的远程脚本。
func (m *Manager) Remote(ctx context.Context, handle, script string) (artifact.Result, error) {
	if handle == "" {
		return artifact.Result{}, ErrHandleRequired
	}
	normalized := plan.Normalize(script)
	if normalized == "" {
		return artifact.Result{}, ErrScriptRequired
	}
	return m.remote.Fetch(ctx, handle, normalized)
}

// RegisterSource 在运行期登记一个远程源。
func (m *Manager) RegisterSource(handle, baseURL string) error {
	return m.registry.Register(handle, baseURL)
}

// Sources 返回已注册远程源（注册顺序）。
func (m *Manager) Sources() []rewrite.Source {
	return m.registry.Sources()
}

// KindStatus 描述单个缓存种类的启用状态，供诊断接口输出。
type KindStatus struct {
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
}

// Kinds 返回四个缓存种类的启用状态（固定顺序）。
func (m *Manager) Kinds() []KindStatus {
	return []KindStatus{
		{Kind: string(artifact.KindBundle), Enabled: m.caches[artifact.KindBundle].Enabled()},
		{Kind: string(artifact.KindCompile), Enabled: m.caches[artifact.KindCompile].Enabled()},
		{Kind: string(artifact.KindTranspile), Enabled: m.caches[artifact.KindTranspile].Enabled()},
		{Kind: string(artifact.KindRemote), Enabled: m.remote.Enabled()},
	}
}

// Clear 清空所有已启用缓存空间。注册表不受影响，后续请求会重新生成。
func (m *Manager) Clear(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	for _, space := range m.store.Spaces() {
		if err := m.store.Clear(ctx, space); err != nil {
			return fmt.Errorf("clear %s cache: %w", space, err)
		}
	}
	if m.logger != nil {
		m.logger.WithFields(logrus.Fields{
			"action": "cache_clear",
			"spaces": m.store.Spaces(),
		}).Info("cache_cleared")
	}
	return nil
}

// Package remote implements the content-addressed cache for scripts fetched
// from registered remote sources. Entries are keyed by the fingerprint of the
// requested script path (not of the fetched content): distinct paths never
// collide, and upstream content changes are deliberately not detected.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/script-hub/script-hub/internal/artifact"
	"github.com/script-hub/script-hub/internal/cache"
	"github.com/script-hub/script-hub/internal/logging"
	"github.com/script-hub/script-hub/internal/rewrite"
)

// Fingerprint 计算脚本请求路径的稳定指纹，作为缓存文件名。
func Fingerprint(script string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(script))
}

// Options 聚合远程缓存的依赖。
type Options struct {
	Enabled  bool
	Store    cache.Store
	Registry *rewrite.Registry
	Rewriter *rewrite.Rewriter
	Client   *http.Client
	Logger   *logrus.Logger
}

// Cache 按 (handle, fingerprint(script)) 寻址远程脚本。未注册的 handle
// 视同功能禁用；抓取或写盘失败降级为 not-found sentinel，绝不硬失败。
type Cache struct {
	opts   Options
	flight singleflight.Group
}

// New 构建远程缓存。Enabled 为 false 时其余依赖可以为 nil。
func New(opts Options) *Cache {
	return &Cache{opts: opts}
}

// Enabled 报告远程缓存目录是否已配置。
func (c *Cache) Enabled() bool {
	return c.opts.Enabled
}

// Fetch 执行 cache-or-fetch 流程。script 需已通过非空校验。
func (c *Cache) Fetch(ctx context.Context, handle, script string) (artifact.Result, error) {
	display := handle + "/" + script
	if !c.opts.Enabled {
		return artifact.Result{Status: artifact.StatusDisabled, Kind: artifact.KindRemote, Script: display}, nil
	}

	baseURL, registered := c.opts.Registry.Lookup(handle)
	if !registered {
		// 未注册的 handle 与功能禁用同类：它不是一个可用的远程源
		return artifact.Result{Status: artifact.StatusDisabled, Kind: artifact.KindRemote, Script: display}, nil
	}

	started := time.Now()
	locator := cache.Locator{
		Space: artifact.KindRemote.Space(),
		Path:  handle + "/" + Fingerprint(script),
	}

	if body, ok, err := c.read(ctx, locator); err != nil {
		return artifact.Result{}, err
	} else if ok {
		c.logFetch(display, true, started)
		return artifact.Result{Status: artifact.StatusHit, Kind: artifact.KindRemote, Script: display, Body: body}, nil
	}

	// 并发 miss 合并为一次抓取；任何失败仅记录并降级为 NotFound。
	if _, err, _ := c.flight.Do(locator.Path, func() (interface{}, error) {
		return nil, c.fetchAndStore(ctx, baseURL, script, locator)
	}); err != nil {
		c.logDegraded(display, err)
	}

	if body, ok, err := c.read(ctx, locator); err != nil {
		return artifact.Result{}, err
	} else if ok {
		c.logFetch(display, false, started)
		return artifact.Result{Status: artifact.StatusGenerated, Kind: artifact.KindRemote, Script: display, Body: body}, nil
	}

	return artifact.Result{Status: artifact.StatusNotFound, Kind: artifact.KindRemote, Script: display}, nil
}

// fetchAndStore 抓取 {baseURL}{script}，应用重写后原子写入缓存。
func (c *Cache) fetchAndStore(ctx context.Context, baseURL, script string, locator cache.Locator) error {
	url := baseURL + script

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := c.opts.Client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read fetch body %s: %w", url, err)
	}

	text := c.opts.Rewriter.Apply(string(body))
	if _, err := c.opts.Store.Put(ctx, locator, strings.NewReader(text)); err != nil {
		return fmt.Errorf("persist remote entry %s: %w", locator.Path, err)
	}
	return nil
}

func (c *Cache) read(ctx context.Context, locator cache.Locator) (string, bool, error) {
	result, err := c.opts.Store.Get(ctx, locator)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	defer result.Reader.Close()

	body, err := io.ReadAll(result.Reader)
	if err != nil {
		return "", false, err
	}
	return string(body), true, nil
}

func (c *Cache) logFetch(script string, hit bool, started time.Time) {
	if c.opts.Logger == nil {
		return
	}
	fields := logging.RequestFields(string(artifact.KindRemote), script, hit)
	fields["action"] = "remote_fetch"
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	c.opts.Logger.WithFields(fields).Debug("remote_fetch_complete")
}

func (c *Cache) logDegraded(script string, err error) {
	if c.opts.Logger == nil {
		return
	}
	fields := logging.RequestFields(string(artifact.KindRemote), script, false)
	fields["action"] = "remote_fetch"
	fields["error"] = err.Error()
	c.opts.Logger.WithFields(fields).Warn("remote_fetch_degraded")
}

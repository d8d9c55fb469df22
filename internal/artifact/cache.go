// Package artifact implements the lazy read-through cache for derived script
// artifacts (bundle/compile/transpile). Every lookup walks the same stages:
// disabled check, cache read, generate on miss, re-read, persistent miss.
// Expected misses surface as tagged Results; only Generator faults and
// unexpected I/O errors propagate as hard failures.
package artifact

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/script-hub/script-hub/internal/cache"
	"github.com/script-hub/script-hub/internal/logging"
	"github.com/script-hub/script-hub/internal/plan"
)

// Generator 是外部产物转换器：给定规范化脚本标识，在规划好的位置写出
// 一个产物文件（含重写处理），或在源转换非法时大声失败。源文件不存在时
// 应静默返回 nil，由缓存层降级为 NotFound。
type Generator interface {
	Generate(ctx context.Context, script string) error
}

// GeneratorFunc 将函数适配为 Generator。
type GeneratorFunc func(ctx context.Context, script string) error

// Generate 使 GeneratorFunc 满足 Generator。
func (f GeneratorFunc) Generate(ctx context.Context, script string) error {
	return f(ctx, script)
}

// Cache 是单一种类的产物缓存。禁用状态在构造时固化，之后的查找不再触碰
// 配置，也不会访问文件系统。
type Cache struct {
	kind    Kind
	enabled bool
	planner *plan.Planner
	store   cache.Store
	gen     Generator
	logger  *logrus.Logger

	// flight 保证同一脚本同一时刻至多一次生成在途，并发 miss 共享结果。
	flight singleflight.Group
}

// NewCache 构建一个种类缓存。enabled 为 false 时 store/gen 可以为 nil。
func NewCache(kind Kind, enabled bool, planner *plan.Planner, store cache.Store, gen Generator, logger *logrus.Logger) *Cache {
	return &Cache{
		kind:    kind,
		enabled: enabled,
		planner: planner,
		store:   store,
		gen:     gen,
		logger:  logger,
	}
}

// Kind 返回缓存种类。
func (c *Cache) Kind() Kind {
	return c.kind
}

// Enabled 报告该种类是否配置了输出目录。
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Lookup 执行完整的 cache-or-generate 流程。script 需已通过非空校验。
func (c *Cache) Lookup(ctx context.Context, script string) (Result, error) {
	if !c.enabled {
		return disabled(c.kind, script), nil
	}

	started := time.Now()
	paths := c.planner.Plan(script)
	locator := cache.Locator{Space: c.kind.Space(), Path: paths.Name}

	if body, ok, err := c.read(ctx, locator); err != nil {
		return Result{}, err
	} else if ok {
		c.logLookup(paths.Name, true, started)
		return Result{Status: StatusHit, Kind: c.kind, Script: paths.Name, Body: body}, nil
	}

	// 并发 miss 合并为一次生成；错误（非法源等）原样向上传播。
	// Generator 拿到与缓存读取一致的标识，重新规划后产物落在同一位置。
	if _, err, _ := c.flight.Do(paths.Name, func() (interface{}, error) {
		return nil, c.gen.Generate(ctx, paths.Name)
	}); err != nil {
		return Result{}, err
	}

	if body, ok, err := c.read(ctx, locator); err != nil {
		return Result{}, err
	} else if ok {
		c.logLookup(paths.Name, false, started)
		return Result{Status: StatusGenerated, Kind: c.kind, Script: paths.Name, Body: body}, nil
	}

	return notFound(c.kind, paths.Name), nil
}

func (c *Cache) read(ctx context.Context, locator cache.Locator) (string, bool, error) {
	result, err := c.store.Get(ctx, locator)
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

func (c *Cache) logLookup(script string, hit bool, started time.Time) {
	if c.logger == nil {
		return
	}
	fields := logging.RequestFields(string(c.kind), script, hit)
	fields["action"] = "artifact_lookup"
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	c.logger.WithFields(fields).Debug("artifact_lookup_complete")
}

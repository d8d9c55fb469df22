// Package generate ships the Generator used by the artifact caches: it reads
// the planned source file, runs an opaque transform (an external command or
// passthrough), applies the remote-reference rewrite pass and persists the
// artifact atomically through the cache store.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"

	"github.com/script-hub/script-hub/internal/artifact"
	"github.com/script-hub/script-hub/internal/cache"
	"github.com/script-hub/script-hub/internal/plan"
	"github.com/script-hub/script-hub/internal/rewrite"
)

// Transform 把脚本源码转换为产物文本。转换本身是黑盒：实现可以是外部
// 命令、进程内编译器或恒等变换。
type Transform func(ctx context.Context, source []byte) ([]byte, error)

// Identity 返回恒等 Transform，产物即源码原文。
func Identity() Transform {
	return func(_ context.Context, source []byte) ([]byte, error) {
		return source, nil
	}
}

// Command 返回通过外部命令实现的 Transform：源码写入 stdin，产物从
// stdout 读取。命令行按 shell 规则切词（支持引号）。
func Command(commandLine string) (Transform, error) {
	words, err := shellquote.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("parse transform command: %w", err)
	}
	if len(words) == 0 {
		return nil, errors.New("transform command is empty")
	}

	return func(ctx context.Context, source []byte) ([]byte, error) {
		cmd := exec.CommandContext(ctx, words[0], words[1:]...)
		cmd.Stdin = bytes.NewReader(source)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			detail := strings.TrimSpace(stderr.String())
			if detail != "" {
				return nil, fmt.Errorf("transform command %s: %w: %s", words[0], err, detail)
			}
			return nil, fmt.Errorf("transform command %s: %w", words[0], err)
		}
		return stdout.Bytes(), nil
	}, nil
}

// FromConfig 根据配置的命令行构建 Transform；留空时退化为恒等变换。
func FromConfig(commandLine string) (Transform, error) {
	if strings.TrimSpace(commandLine) == "" {
		return Identity(), nil
	}
	return Command(commandLine)
}

// Options 聚合 ScriptGenerator 的依赖。
type Options struct {
	Kind      artifact.Kind
	Planner   *plan.Planner
	Store     cache.Store
	Rewriter  *rewrite.Rewriter
	Transform Transform
	Logger    *logrus.Logger
}

// ScriptGenerator 满足 artifact.Generator：对一个种类执行
// 读源 → 转换 → 重写 → 原子写入。
type ScriptGenerator struct {
	opts Options
}

// New 校验依赖并构建 ScriptGenerator。
func New(opts Options) (*ScriptGenerator, error) {
	if opts.Kind == "" {
		return nil, errors.New("artifact kind required")
	}
	if opts.Planner == nil {
		return nil, errors.New("planner required")
	}
	if opts.Store == nil {
		return nil, errors.New("cache store required")
	}
	if opts.Transform == nil {
		opts.Transform = Identity()
	}
	return &ScriptGenerator{opts: opts}, nil
}

// Generate 写出一个产物文件。源文件不存在时静默返回 nil（缓存层会降级为
// NotFound sentinel）；转换失败与写盘失败会原样上抛。
func (g *ScriptGenerator) Generate(ctx context.Context, script string) error {
	paths := g.opts.Planner.Plan(script)
	target := kindPath(paths, g.opts.Kind)
	if !target.Enabled {
		return fmt.Errorf("%s output directory not configured", g.opts.Kind)
	}

	source, err := os.ReadFile(paths.Source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read source %s: %w", paths.Source, err)
	}

	output, err := g.opts.Transform(ctx, source)
	if err != nil {
		return fmt.Errorf("%s %s: %w", g.opts.Kind.Operation(), script, err)
	}

	body := g.opts.Rewriter.Apply(string(output))

	locator := cache.Locator{Space: g.opts.Kind.Space(), Path: target.Rel}
	if _, err := g.opts.Store.Put(ctx, locator, strings.NewReader(body)); err != nil {
		return fmt.Errorf("persist %s artifact for %s: %w", g.opts.Kind, script, err)
	}

	if g.opts.Logger != nil {
		g.opts.Logger.WithFields(logrus.Fields{
			"action": "generate",
			"kind":   string(g.opts.Kind),
			"script": script,
			"target": target.Abs,
		}).Info("artifact_generated")
	}
	return nil
}

func kindPath(paths plan.Paths, kind artifact.Kind) plan.KindPath {
	switch kind {
	case artifact.KindBundle:
		return paths.Bundle
	case artifact.KindCompile:
		return paths.Compile
	case artifact.KindTranspile:
		return paths.Transpile
	default:
		return plan.KindPath{}
	}
}

// Package plan computes every filesystem location relevant to one script:
// where its source lives and where each enabled artifact kind persists its
// output. Planning is pure and total: it performs no I/O and has no failure
// path. A kind without a configured output directory simply yields a
// disabled KindPath, which downstream layers treat as "feature off".
package plan

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/script-hub/script-hub/internal/config"
)

// ScriptExt 是脚本源文件的默认扩展名；请求路径可带可不带。
const ScriptExt = ".js"

// KindPath 描述某个缓存种类下的产物位置。Enabled 为 false 时其余字段为空。
type KindPath struct {
	Enabled bool
	// Rel 是相对种类输出目录的产物路径，同时用作缓存 Locator 的 Path。
	Rel string
	// Abs 是产物最终落盘的绝对路径，仅供日志与诊断输出。
	Abs string
}

// Paths 聚合一个脚本的所有规划结果。
type Paths struct {
	// Script 是去掉扩展名后的规范化标识，源文件路径由它推导。
	Script string
	// Name 是清理后的请求名（保留调用方给出的扩展名），用于产物文件命名。
	Name string
	// Source 是脚本源文件的绝对路径。
	Source string
	// SourceRoot 是源码树根目录。
	SourceRoot string

	Bundle    KindPath
	Compile   KindPath
	Transpile KindPath
}

// Planner 在构造时固化每个种类的启用状态与目录，之后的 Plan 调用无需再
// 触碰配置。
type Planner struct {
	sourceRoot   string
	bundleDir    string
	compileDir   string
	transpileDir string
}

// New 从全局配置构建 Planner。
func New(cfg config.GlobalConfig) *Planner {
	return &Planner{
		sourceRoot:   cfg.SourceRoot,
		bundleDir:    cfg.BundleFolder,
		compileDir:   cfg.CompiledFolder,
		transpileDir: cfg.TranspiledFolder,
	}
}

// Plan 计算脚本的源路径与各种类产物路径。script 为空时返回零值 Paths，
// 调用方应在此之前完成校验。
func (p *Planner) Plan(script string) Paths {
	name := Normalize(script)
	if name == "" {
		return Paths{}
	}

	id := strings.TrimSuffix(name, ScriptExt)

	return Paths{
		Script:     id,
		Name:       name,
		Source:     filepath.Join(p.sourceRoot, filepath.FromSlash(id)+ScriptExt),
		SourceRoot: p.sourceRoot,
		Bundle:     p.kindPath(p.bundleDir, name),
		Compile:    p.kindPath(p.compileDir, name),
		Transpile:  p.kindPath(p.transpileDir, name),
	}
}

func (p *Planner) kindPath(dir, name string) KindPath {
	if dir == "" {
		return KindPath{}
	}
	return KindPath{
		Enabled: true,
		Rel:     name,
		Abs:     filepath.Join(dir, filepath.FromSlash(name)),
	}
}

// Normalize 清理请求中的脚本名：去掉开头的斜杠并消除 ".." 等相对段。
// 结果为空表示标识不可用。
func Normalize(script string) string {
	script = strings.TrimSpace(script)
	if script == "" {
		return ""
	}
	clean := path.Clean("/" + script)
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return ""
	}
	return clean
}

package server

import (
	"fmt"
	"regexp"

	"github.com/script-hub/script-hub/internal/artifact"
	"github.com/script-hub/script-hub/internal/config"
)

// Binding 将一个路径模式绑定到一种缓存操作。remote 种类的模式需依次捕获
// handle 与脚本路径两个分组，其余种类捕获脚本路径一个分组。
type Binding struct {
	Kind    artifact.Kind
	Pattern *regexp.Regexp
}

// 内置默认模式。脚本名允许带或不带 .js 扩展。
const (
	defaultBundlePattern    = `^/bundles/(.+)$`
	defaultCompilePattern   = `^/compiled/(.+)$`
	defaultTranspilePattern = `^/transpiled/(.+)$`
	defaultRemotePattern    = `^/remote/([^/]+)/(.+)$`
)

// BuildBindings 根据配置产出有序的路由绑定。未启用的种类仍保留绑定，让
// disabled 哨兵脚本能送达浏览器；只有显式设为 off 的模式才不产出绑定，
// 对应路径永久 pass-through。
func BuildBindings(g config.GlobalConfig) ([]Binding, error) {
	specs := []struct {
		kind     artifact.Kind
		override string
		fallback string
	}{
		{artifact.KindBundle, g.BundlePattern, defaultBundlePattern},
		{artifact.KindCompile, g.CompilePattern, defaultCompilePattern},
		{artifact.KindTranspile, g.TranspilePattern, defaultTranspilePattern},
		{artifact.KindRemote, g.RemotePattern, defaultRemotePattern},
	}

	var bindings []Binding
	for _, spec := range specs {
		if spec.override == config.PatternOff {
			continue
		}
		raw := spec.override
		if raw == "" {
			raw = spec.fallback
		}
		compiled, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("%s pattern: %w", spec.kind, err)
		}
		wantGroups := 1
		if spec.kind == artifact.KindRemote {
			wantGroups = 2
		}
		if compiled.NumSubexp() < wantGroups {
			return nil, fmt.Errorf("%s pattern needs %d capture group(s)", spec.kind, wantGroups)
		}
		bindings = append(bindings, Binding{Kind: spec.kind, Pattern: compiled})
	}
	return bindings, nil
}

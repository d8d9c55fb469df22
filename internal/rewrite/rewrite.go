// Package rewrite holds the registry of remote script sources and the text
// substitution pass that points generated code at the local remote cache.
package rewrite

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Source 描述一个已注册的远程脚本源。
type Source struct {
	Handle  string `json:"handle"`
	BaseURL string `json:"base_url"`
}

// Registry 维护 handle → base URL 的映射。注册顺序即替换顺序，保证同一份
// 注册表下的重写结果确定。注册后不可删除，只能整体由新实例替换。
type Registry struct {
	mu      sync.RWMutex
	sources []Source
	index   map[string]int
}

// NewRegistry 创建空注册表。
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register 登记一个远程源。handle 重复或参数为空会返回错误。
func (r *Registry) Register(handle, baseURL string) error {
	handle = strings.TrimSpace(handle)
	baseURL = strings.TrimSpace(baseURL)
	if handle == "" {
		return errors.New("source handle required")
	}
	if baseURL == "" {
		return errors.New("source base URL required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.index[handle]; exists {
		return fmt.Errorf("source handle already registered: %s", handle)
	}
	r.index[handle] = len(r.sources)
	r.sources = append(r.sources, Source{Handle: handle, BaseURL: baseURL})
	return nil
}

// Lookup 返回 handle 对应的 base URL。
func (r *Registry) Lookup(handle string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.index[handle]
	if !ok {
		return "", false
	}
	return r.sources[idx].BaseURL, true
}

// Sources 按注册顺序返回所有远程源的副本。
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.sources) == 0 {
		return nil
	}
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Rewriter 将生成代码中出现的远程源 base URL 字面量替换为本地缓存前缀
// `{localBase}/{handle}/`。禁用时为恒等变换。
//
// 替换是纯文本的：不做尾斜杠、大小写或百分号编码的归一化。远程引用必须
// 与注册的 base URL 逐字符一致才会被改写，这是已知的局限。
type Rewriter struct {
	enabled   bool
	localBase string
	registry  *Registry
}

// NewRewriter 构建重写器。localBase 结尾的斜杠会被裁剪，保证替换结果中
// 只有一个分隔斜杠。
func NewRewriter(enabled bool, localBase string, registry *Registry) *Rewriter {
	return &Rewriter{
		enabled:   enabled,
		localBase: strings.TrimRight(localBase, "/"),
		registry:  registry,
	}
}

// Enabled 报告重写是否生效。
func (w *Rewriter) Enabled() bool {
	return w != nil && w.enabled && w.registry != nil
}

// Apply 执行重写。按注册顺序依次替换每个源的全部字面量出现。
func (w *Rewriter) Apply(code string) string {
	if !w.Enabled() {
		return code
	}
	for _, source := range w.registry.Sources() {
		replacement := w.localBase + "/" + source.Handle + "/"
		code = strings.ReplaceAll(code, source.BaseURL, replacement)
	}
	return code
}

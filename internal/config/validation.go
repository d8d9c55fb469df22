package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if strings.TrimSpace(g.SourceRoot) == "" {
		return newFieldError("SourceRoot", "不能为空")
	}
	if g.FetchTimeout.DurationValue() <= 0 {
		return newFieldError("FetchTimeout", "必须大于 0")
	}
	if g.RewriteRemoteRefs && strings.TrimSpace(g.RemoteCacheBase) == "" {
		return newFieldError("RemoteCacheBase", "开启 RewriteRemoteRefs 时不能为空")
	}

	if err := validatePatterns(g); err != nil {
		return err
	}

	seenNames := map[string]struct{}{}
	for i := range c.Sources {
		source := &c.Sources[i]
		if source.Name == "" {
			return newFieldError("Source[].Name", "不能为空")
		}
		if strings.ContainsAny(source.Name, "/\\ ") {
			return newFieldError(sourceField(source.Name, "Name"), "不允许包含路径分隔符或空格")
		}
		if _, exists := seenNames[source.Name]; exists {
			return newFieldError(sourceField(source.Name, "Name"), "重复")
		}
		seenNames[source.Name] = struct{}{}

		if err := validateSourceURL(source.URL); err != nil {
			return fmt.Errorf("%s: %w", sourceField(source.Name, "URL"), err)
		}
	}

	return nil
}

// validatePatterns 确保用户覆盖的路由模式能够编译，并携带捕获组。
func validatePatterns(g GlobalConfig) error {
	single := []struct {
		field   string
		pattern string
	}{
		{"BundlePattern", g.BundlePattern},
		{"CompilePattern", g.CompilePattern},
		{"TranspilePattern", g.TranspilePattern},
	}
	for _, p := range single {
		if p.pattern == "" || p.pattern == PatternOff {
			continue
		}
		compiled, err := regexp.Compile(p.pattern)
		if err != nil {
			return fmt.Errorf("%s: %w", p.field, err)
		}
		if compiled.NumSubexp() < 1 {
			return newFieldError(p.field, "需要一个捕获脚本名的分组")
		}
	}
	if g.RemotePattern != "" && g.RemotePattern != PatternOff {
		compiled, err := regexp.Compile(g.RemotePattern)
		if err != nil {
			return fmt.Errorf("RemotePattern: %w", err)
		}
		if compiled.NumSubexp() < 2 {
			return newFieldError("RemotePattern", "需要依次捕获 handle 与脚本路径的两个分组")
		}
	}
	return nil
}

// PatternOff 表示用户显式关闭某条路由，使其永久 pass-through。
const PatternOff = "off"

func validateSourceURL(raw string) error {
	if raw == "" {
		return errors.New("缺少远程源地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，远程源: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("远程源缺少 Host: %s", raw)
	}
	return nil
}

package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort:   5000,
			SourceRoot:   "./scripts",
			FetchTimeout: Duration(1),
		},
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("非法端口应被拒绝")
	}
}

func TestValidateRequiresSourceRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Global.SourceRoot = "  "
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("缺少 SourceRoot 应报错")
	}
	if !strings.Contains(err.Error(), "SourceRoot") {
		t.Fatalf("错误应指向字段: %v", err)
	}
}

func TestValidateRewriteRequiresBase(t *testing.T) {
	cfg := validConfig()
	cfg.Global.RewriteRemoteRefs = true
	cfg.Global.RemoteCacheBase = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("开启重写但缺少 RemoteCacheBase 应报错")
	}
}

func TestValidateDuplicateSourceNames(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = []SourceConfig{
		{Name: "lib", URL: "https://cdn.example/lib/"},
		{Name: "lib", URL: "https://cdn.example/other/"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("重复 handle 应被拒绝")
	}
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != sourceField("lib", "Name") {
		t.Fatalf("应返回指向 Source[lib].Name 的 FieldError: %v", err)
	}
}

func TestValidateSourceNameWithSlash(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = []SourceConfig{{Name: "a/b", URL: "https://cdn.example/"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("handle 含路径分隔符应被拒绝")
	}
}

func TestValidatePatternOverrides(t *testing.T) {
	cfg := validConfig()
	cfg.Global.BundlePattern = "^/b/(.+)$"
	cfg.Global.RemotePattern = "^/r/([^/]+)/(.+)$"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("合法模式不应报错: %v", err)
	}

	cfg.Global.RemotePattern = "^/r/(.+)$"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("RemotePattern 缺少 handle 分组应报错")
	}

	cfg.Global.RemotePattern = PatternOff
	cfg.Global.BundlePattern = "^/b/[unclosed"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("无法编译的模式应报错")
	}
}

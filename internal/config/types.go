package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述全局运行时行为。每个缓存种类的输出目录均为可选项，
// 留空即代表该种类被禁用（请求会得到 sentinel 提示而不是生成产物）。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`

	SourceRoot        string `mapstructure:"SourceRoot"`
	BundleFolder      string `mapstructure:"BundleFolder"`
	CompiledFolder    string `mapstructure:"CompiledFolder"`
	TranspiledFolder  string `mapstructure:"TranspiledFolder"`
	RemoteCacheFolder string `mapstructure:"RemoteCacheFolder"`

	// RemoteCacheBase 是重写远程引用时指向本地缓存的 URL 前缀，仅在
	// RewriteRemoteRefs 打开时参与文本替换，抓取动作不使用它。
	RemoteCacheBase   string `mapstructure:"RemoteCacheBase"`
	RewriteRemoteRefs bool   `mapstructure:"RewriteRemoteRefs"`

	FetchTimeout Duration `mapstructure:"FetchTimeout"`

	// 各种类的外部转换命令，通过 stdin/stdout 传递脚本正文；留空时产物
	// 等同源码原文（passthrough）。
	BundleCommand    string `mapstructure:"BundleCommand"`
	CompileCommand   string `mapstructure:"CompileCommand"`
	TranspileCommand string `mapstructure:"TranspileCommand"`

	// 路由模式可按需覆盖，留空使用内置默认；显式设置为 "off" 时彻底关闭该路由。
	BundlePattern    string `mapstructure:"BundlePattern"`
	CompilePattern   string `mapstructure:"CompilePattern"`
	TranspilePattern string `mapstructure:"TranspilePattern"`
	RemotePattern    string `mapstructure:"RemotePattern"`
}

// SourceConfig 声明一个预注册的远程脚本源（handle → base URL）。
type SourceConfig struct {
	Name string `mapstructure:"Name"`
	URL  string `mapstructure:"URL"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global  GlobalConfig   `mapstructure:",squash"`
	Sources []SourceConfig `mapstructure:"Source"`
}

// BundleEnabled 报告 bundle 缓存是否配置了输出目录。
func (g GlobalConfig) BundleEnabled() bool { return g.BundleFolder != "" }

// CompileEnabled 报告 compile 缓存是否配置了输出目录。
func (g GlobalConfig) CompileEnabled() bool { return g.CompiledFolder != "" }

// TranspileEnabled 报告 transpile 缓存是否配置了输出目录。
func (g GlobalConfig) TranspileEnabled() bool { return g.TranspiledFolder != "" }

// RemoteEnabled 报告远程内容寻址缓存是否配置了目录。
func (g GlobalConfig) RemoteEnabled() bool { return g.RemoteCacheFolder != "" }

// EnabledKinds 输出已启用的缓存种类列表，供启动日志与诊断接口使用。
func (g GlobalConfig) EnabledKinds() []string {
	var kinds []string
	if g.BundleEnabled() {
		kinds = append(kinds, "bundle")
	}
	if g.CompileEnabled() {
		kinds = append(kinds, "compile")
	}
	if g.TranspileEnabled() {
		kinds = append(kinds, "transpile")
	}
	if g.RemoteEnabled() {
		kinds = append(kinds, "remote")
	}
	return kinds
}

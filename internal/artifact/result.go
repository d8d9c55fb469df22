package artifact

import "fmt"

// Status 区分一次缓存查找的四种结局。预期内的失败（禁用/未找到）是数据
// 结果而非 error，调用方据此统一渲染响应正文。
type Status int

const (
	// StatusHit 缓存命中，Body 为存储的产物原文。
	StatusHit Status = iota
	// StatusGenerated 首次生成后读回成功。
	StatusGenerated
	// StatusDisabled 功能未配置输出目录（或远程 handle 未注册）。
	StatusDisabled
	// StatusNotFound 生成后仍无产物（源缺失或 Generator 无输出）。
	StatusNotFound
)

// Result 是缓存查找的带标签结果。
type Result struct {
	Status Status
	Kind   Kind
	Script string
	Body   string
}

// Found 报告是否拿到了真实产物。
func (r Result) Found() bool {
	return r.Status == StatusHit || r.Status == StatusGenerated
}

// CacheHit 报告是否未经生成直接命中。
func (r Result) CacheHit() bool {
	return r.Status == StatusHit
}

// Text 渲染响应正文。禁用/未找到会产出一段可执行的 sentinel 脚本，
// 只有在被当作代码执行时才会抛出描述性错误。
func (r Result) Text() string {
	switch r.Status {
	case StatusDisabled:
		return fmt.Sprintf("throw new Error(%q);", fmt.Sprintf(
			"%s is disabled in the script-hub configuration.", r.Kind.Operation()))
	case StatusNotFound:
		return fmt.Sprintf("throw new Error(%q);", fmt.Sprintf(
			"%s could not find a file for: %s", r.Kind.Operation(), r.Script))
	default:
		return r.Body
	}
}

func disabled(kind Kind, script string) Result {
	return Result{Status: StatusDisabled, Kind: kind, Script: script}
}

func notFound(kind Kind, script string) Result {
	return Result{Status: StatusNotFound, Kind: kind, Script: script}
}

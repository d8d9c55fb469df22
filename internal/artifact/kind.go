package artifact

// Kind 标识一种派生产物缓存。
type Kind string

const (
	KindBundle    Kind = "bundle"
	KindCompile   Kind = "compile"
	KindTranspile Kind = "transpile"
	// KindRemote 是远程内容寻址缓存，与三种派生产物共用同一套结果类型。
	KindRemote Kind = "remote"
)

// Space 返回该种类在磁盘缓存中的空间名。
func (k Kind) Space() string {
	return string(k)
}

// Operation 返回面向调用方的操作名，sentinel 文案与日志均使用它。
func (k Kind) Operation() string {
	switch k {
	case KindBundle:
		return "cachedBundle"
	case KindCompile:
		return "cachedCompile"
	case KindTranspile:
		return "cachedTranspile"
	case KindRemote:
		return "cachedSource"
	default:
		return string(k)
	}
}

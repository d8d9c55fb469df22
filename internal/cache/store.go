package cache

import (
	"context"
	"errors"
	"io"
)

// Store 负责管理磁盘缓存的读写。每个缓存空间（bundle/compile/transpile/remote）
// 对应一个独立根目录，磁盘布局遵循：
//
//	<root(space)>/<path>    # 产物正文
//
// 条目仅由正文文件组成，文件存在与否即缓存状态，没有索引或过期元数据。
type Store interface {
	// Get 返回一个可流式读取的缓存条目。若不存在则返回 ErrNotFound。
	Get(ctx context.Context, locator Locator) (*ReadResult, error)

	// Put 将产物写入缓存，并产出新的 Entry 描述。实现需通过临时文件 + rename
	// 保证写入原子性，并在失败时清理临时文件。
	Put(ctx context.Context, locator Locator, body io.Reader) (*Entry, error)

	// Remove 删除单个正文文件，条目不存在时视为成功。
	Remove(ctx context.Context, locator Locator) error

	// Clear 清空一个缓存空间下的所有条目，保留根目录本身。
	Clear(ctx context.Context, space string) error

	// Spaces 返回当前启用的空间名称列表（按字典序）。
	Spaces() []string
}

// Locator 唯一定位一个缓存条目（空间 + 相对路径），所有路径均为 URL 路径风格。
type Locator struct {
	Space string
	Path  string
}

// Entry 表示一次缓存写入/命中结果，包含绝对文件路径及大小。
type Entry struct {
	Locator   Locator `json:"locator"`
	FilePath  string  `json:"file_path"`
	SizeBytes int64   `json:"size_bytes"`
}

// ReadResult 组合 Entry 与正文 Reader，便于调用方直接流式返回。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")

// ErrUnknownSpace 表示请求的缓存空间未在构造时注册（对应功能被禁用）。
var ErrUnknownSpace = errors.New("cache space not configured")

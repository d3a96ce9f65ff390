// Package identity keeps the operator's chosen identifier across restarts
// Package identity 跨重启保存操作者选择的标识
package identity

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrUnavailable persistence is disabled or unreachable
// ErrUnavailable 持久化被禁用或不可达
var ErrUnavailable = errors.New("identity: persistence unavailable")

// Backend persistence capability behind the Store
// Backend Store 背后的持久化能力
type Backend interface {
	// Get returns the stored value and whether it exists
	// Get 返回存储的值以及是否存在
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key
	// Set 在 key 下存储 value
	Set(ctx context.Context, key, value string) error
	// Name backend name for logs
	// Name 日志中的后端名称
	Name() string
}

// MemoryBackend keeps values for the lifetime of the process only
// MemoryBackend 仅在进程生命周期内保存
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryBackend creates an empty memory backend
// NewMemoryBackend 创建空的内存后端
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok, nil
}

func (b *MemoryBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	return nil
}

func (b *MemoryBackend) Name() string { return "memory" }

// DisabledBackend a store whose every access fails, as in a sandboxed environment
// DisabledBackend 所有访问都失败的存储，例如受限环境
type DisabledBackend struct{}

func (DisabledBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrUnavailable
}

func (DisabledBackend) Set(context.Context, string, string) error {
	return ErrUnavailable
}

func (DisabledBackend) Name() string { return "disabled" }

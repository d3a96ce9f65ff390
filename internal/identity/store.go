package identity

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/haierkeys/screen-connect-controller/pkg/logger"
	"github.com/haierkeys/screen-connect-controller/pkg/writequeue"
	"go.uber.org/zap"
)

// KeyIdentifier storage key of the operator identifier
// KeyIdentifier 操作者标识的存储键
const KeyIdentifier = "username"

// Store reads and writes small string values with a silent fallback
// Store 读写短字符串值，持久化失败时静默回退
//
// The in-memory copy is authoritative for the running process; the backend
// only carries values across restarts. Neither Read nor Write ever reports
// a persistence failure to the caller.
type Store struct {
	backend Backend
	queue   *writequeue.Manager
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	values map[string]string

	pending sync.WaitGroup
}

// NewStore creates a store over backend; nil backend means memory only, nil queue a private one
// NewStore 基于 backend 创建 Store，backend 为空时仅使用内存，queue 为空时创建私有写队列
func NewStore(backend Backend, queue *writequeue.Manager, timeout time.Duration, zl *zap.Logger) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	if zl == nil {
		zl = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if queue == nil {
		queue = writequeue.New(&writequeue.Config{QueueCapacity: 8, WriteTimeout: timeout, IdleTimeout: 10 * time.Minute}, zl)
	}
	return &Store{
		backend: backend,
		queue:   queue,
		timeout: timeout,
		logger:  zl,
		values:  make(map[string]string),
	}
}

// Backend returns the backend name
// Backend 返回后端名称
func (s *Store) Backend() string {
	return s.backend.Name()
}

// Read returns the value for key, or def when absent, empty or unreadable
// Read 返回 key 的值，不存在、为空或读取失败时返回 def
func (s *Store) Read(key, def string) string {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return orDefault(v, def)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	v, found, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Debug("identity read fell back to default",
			zap.String(logger.FieldKey, key),
			zap.String(logger.FieldBackend, s.backend.Name()),
			zap.Error(err),
		)
		return def
	}
	if !found {
		return def
	}

	s.mu.Lock()
	// a Write that raced ahead of this read wins
	if cur, ok := s.values[key]; ok {
		v = cur
	} else {
		s.values[key] = v
	}
	s.mu.Unlock()
	return orDefault(v, def)
}

// Write updates the value in memory and persists it best-effort in the background
// Write 先同步更新内存值，再在后台尽力持久化，不等待后端
func (s *Store) Write(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.persist(key)
	}()
}

func (s *Store) persist(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.queue.Execute(ctx, key, func(ctx context.Context) error {
		// only the latest value is worth writing
		s.mu.RLock()
		latest := s.values[key]
		s.mu.RUnlock()
		return s.backend.Set(ctx, key, latest)
	})
	if err != nil {
		s.logger.Warn("identity write not persisted",
			zap.String(logger.FieldKey, key),
			zap.String(logger.FieldBackend, s.backend.Name()),
			zap.Error(err),
		)
	}
}

// Flush waits for background writes started before the call
// Flush 等待调用前发起的后台写入完成
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and releases the backend
// Close 等待写入完成并释放后端
func (s *Store) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	if qerr := s.queue.Shutdown(ctx); err == nil {
		err = qerr
	}
	if c, ok := s.backend.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Package writequeue provides per-key serialized write queues
// Package writequeue 提供按键串行化的写队列
// Writes to the same key run one at a time in FIFO order, so a slow store never reorders them
// 同一个键的写操作按 FIFO 顺序逐个执行，慢速存储也不会打乱顺序
package writequeue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Error definitions
// 错误定义
var (
	// ErrWriteQueueFull returned when the key's write queue is full
	// ErrWriteQueueFull 当键的写队列已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed returned when write queue manager is closed
	// ErrWriteQueueClosed 当写队列管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout returned when write operation timeout
	// ErrWriteTimeout 当写操作超时时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity per-key queue capacity, default 16
	// QueueCapacity 每个键的队列容量，默认 16
	QueueCapacity int
	// WriteTimeout write operation timeout, default 5 seconds
	// WriteTimeout 写操作超时时间，默认 5 秒
	WriteTimeout time.Duration
	// IdleTimeout idle cleanup timeout, default 10 minutes
	// IdleTimeout 空闲清理超时时间，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 16,
		WriteTimeout:  5 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

// writeOp write operation
// writeOp 写操作
type writeOp struct {
	ctx    context.Context
	fn     func(context.Context) error
	result chan error
}

// keyQueue single key write queue
// keyQueue 单个键的写队列
type keyQueue struct {
	key      string
	ch       chan writeOp
	lastUsed time.Time
	stopCh   chan struct{}
	done     chan struct{}
}

// Manager manages write queues for all keys
// Manager 管理所有键的写队列
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string]*keyQueue
	closed bool

	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// New creates write queue manager
// New 创建写队列管理器
// cfg: configuration, if nil use default configuration
// cfg: 配置，如果为 nil 则使用默认配置
// logger: zap logger, if nil use nop logger
// logger: zap 日志器，如果为 nil 则使用 nop logger
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config:      c,
		logger:      logger,
		queues:      make(map[string]*keyQueue),
		cleanupStop: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}

	go m.cleanupIdleQueues()

	return m
}

// Execute runs fn after every earlier write for key has finished
// Execute 在该键之前的写操作全部完成后执行 fn
// The wait is bounded by WriteTimeout and ctx
// 等待时间受 WriteTimeout 与 ctx 约束
func (m *Manager) Execute(ctx context.Context, key string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.WriteTimeout)
	defer cancel()

	result := make(chan error, 1)
	op := writeOp{ctx: ctx, fn: fn, result: result}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrWriteQueueClosed
	}
	queue := m.getOrCreateQueue(key)
	queue.lastUsed = time.Now()
	select {
	case queue.ch <- op:
	default:
		m.mu.Unlock()
		return ErrWriteQueueFull
	}
	m.mu.Unlock()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrWriteTimeout
		}
		return ctx.Err()
	}
}

// getOrCreateQueue gets or lazily creates the key's queue, caller holds m.mu
// getOrCreateQueue 获取或懒加载创建键的队列，调用方持有 m.mu
func (m *Manager) getOrCreateQueue(key string) *keyQueue {
	if queue, ok := m.queues[key]; ok {
		return queue
	}

	queue := &keyQueue{
		key:    key,
		ch:     make(chan writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	m.queues[key] = queue
	go m.worker(queue)

	m.logger.Debug("created write queue",
		zap.String("key", key),
		zap.Int("capacity", m.config.QueueCapacity))

	return queue
}

// worker handles a single key's write queue
// worker 处理单个键写队列的 worker goroutine
func (m *Manager) worker(queue *keyQueue) {
	defer close(queue.done)

	for {
		select {
		case <-queue.stopCh:
			// Handle remaining operations before exiting
			// 退出前处理剩余操作
			for {
				select {
				case op := <-queue.ch:
					m.executeOp(op)
				default:
					return
				}
			}
		case op := <-queue.ch:
			m.executeOp(op)
		}
	}
}

// executeOp executes single write operation
// executeOp 执行单个写操作
func (m *Manager) executeOp(op writeOp) {
	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}
	op.result <- op.fn(op.ctx)
}

// cleanupIdleQueues regularly cleans up idle queues
// cleanupIdleQueues 定期清理空闲队列
func (m *Manager) cleanupIdleQueues() {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.cleanupStop:
			return
		case <-ticker.C:
			m.doCleanup(time.Now())
		}
	}
}

// doCleanup stops queues that are empty and idle past IdleTimeout
// doCleanup 停止空闲超时且为空的队列
func (m *Manager) doCleanup(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleaned := 0
	for key, queue := range m.queues {
		if now.Sub(queue.lastUsed) > m.config.IdleTimeout && len(queue.ch) == 0 {
			close(queue.stopCh)
			delete(m.queues, key)
			cleaned++
			m.logger.Debug("cleaning up idle write queue", zap.String("key", key))
		}
	}
	return cleaned
}

// Shutdown closes write queue manager, waits for queued writes to complete
// Shutdown 关闭写队列管理器，等待已入队的写操作完成
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	queues := make([]*keyQueue, 0, len(m.queues))
	for key, queue := range m.queues {
		close(queue.stopCh)
		queues = append(queues, queue)
		delete(m.queues, key)
	}
	m.mu.Unlock()

	close(m.cleanupStop)

	done := make(chan struct{})
	go func() {
		for _, queue := range queues {
			<-queue.done
		}
		<-m.cleanupDone
		close(done)
	}()

	select {
	case <-done:
		m.logger.Debug("write queue manager shutdown completed")
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timeout")
		return ctx.Err()
	}
}

// QueueCount returns current active queue count
// QueueCount 返回当前活跃队列数量
func (m *Manager) QueueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}

// IsClosed returns if manager is closed
// IsClosed 返回管理器是否已关闭
func (m *Manager) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

package transport

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Call a recorded command issued to the memory transport
// Call 记录的内存传输命令
type Call struct {
	Action string
	Arg    string
}

// Memory in-process transport for offline runs and tests
// Memory 进程内传输，用于离线运行和测试
//
// With AutoAdvance the memory transport behaves like an accepting server:
// Connect lands in connected, Link in linked, Disconnect in closed. Without
// it the status only moves through SetStatus.
type Memory struct {
	feed *Feed

	mu          sync.Mutex
	calls       []Call
	autoAdvance bool
	connectErr  error
	linkErr     error
	disconnErr  error
	reserved    map[string]struct{}
}

// NewMemory creates a memory transport in status initializing
// NewMemory 创建状态为 initializing 的内存传输
func NewMemory(autoAdvance bool) *Memory {
	return &Memory{
		feed:        NewFeed(StatusInitializing),
		autoAdvance: autoAdvance,
		reserved:    make(map[string]struct{}),
	}
}

func (m *Memory) Status() Status { return m.feed.Status() }

func (m *Memory) Subscribe() (<-chan Status, func()) { return m.feed.Subscribe() }

// SetStatus moves the status as a server would
// SetStatus 模拟服务端修改状态
func (m *Memory) SetStatus(s Status) { m.feed.Set(s) }

// FailConnect makes subsequent Connect calls fail with err
// FailConnect 让后续 Connect 返回 err
func (m *Memory) FailConnect(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// FailLink makes subsequent Link calls fail with err
// FailLink 让后续 Link 返回 err
func (m *Memory) FailLink(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkErr = err
}

// FailDisconnect makes subsequent Disconnect calls fail with err
// FailDisconnect 让后续 Disconnect 返回 err
func (m *Memory) FailDisconnect(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnErr = err
}

// Reserve rejects links whose identifier segment equals name
// Reserve 拒绝标识段等于 name 的链接
func (m *Memory) Reserve(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserved[name] = struct{}{}
}

// Calls returns a copy of the recorded commands
// Calls 返回已记录命令的副本
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CountCalls counts recorded commands of one action
// CountCalls 统计某类命令次数
func (m *Memory) CountCalls(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Action == action {
			n++
		}
	}
	return n
}

func (m *Memory) record(action, arg string) (autoAdvance bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Action: action, Arg: arg})
	return m.autoAdvance
}

func (m *Memory) Connect(ctx context.Context, endpoint string) error {
	auto := m.record("connect", endpoint)
	m.mu.Lock()
	err := m.connectErr
	m.mu.Unlock()
	if err != nil {
		if auto {
			m.feed.Set(StatusErrored)
		}
		return err
	}
	if auto {
		m.feed.CompareAndSet(StatusConnecting, StatusInitializing)
		m.feed.CompareAndSet(StatusConnected, StatusConnecting)
	}
	return nil
}

func (m *Memory) Link(ctx context.Context, path string) error {
	auto := m.record("link", path)
	m.mu.Lock()
	err := m.linkErr
	_, taken := m.reserved[path[strings.LastIndex(path, "/")+1:]]
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if taken {
		return errors.Wrap(ErrLinkRejected, "name already in use")
	}
	if auto && !m.feed.CompareAndSet(StatusLinked, StatusConnected) {
		return errors.Wrapf(ErrNotConnected, "link in %s", m.feed.Status())
	}
	return nil
}

func (m *Memory) Disconnect(ctx context.Context) error {
	auto := m.record("disconnect", "")
	m.mu.Lock()
	err := m.disconnErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if auto {
		m.feed.Set(StatusClosed)
	}
	return nil
}

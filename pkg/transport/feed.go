package transport

import (
	"sync"
)

// feedBuffer per-subscriber buffer; a slow subscriber blocks Set rather than losing a transition
// feedBuffer 每个订阅者的缓冲区，慢订阅者会阻塞 Set 而不是丢失状态变化
const feedBuffer = 32

type subscriber struct {
	ch   chan Status
	done chan struct{}
}

// Feed holds a status and fans every change out to subscribers in order
// Feed 持有状态并按顺序向订阅者广播每次变化
type Feed struct {
	mu     sync.Mutex
	status Status
	subs   map[int]*subscriber
	next   int
}

// NewFeed creates a feed starting at initial
// NewFeed 创建初始状态为 initial 的 Feed
func NewFeed(initial Status) *Feed {
	return &Feed{status: initial, subs: make(map[int]*subscriber)}
}

// Status returns the current status
// Status 返回当前状态
func (f *Feed) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Set changes the status and notifies subscribers, returns false when unchanged
// Set 修改状态并通知订阅者，状态未变化时返回 false
func (f *Feed) Set(s Status) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setLocked(s)
}

// CompareAndSet sets next only when the current status is one of from
// CompareAndSet 仅当当前状态属于 from 之一时才设置为 next
func (f *Feed) CompareAndSet(next Status, from ...Status) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range from {
		if s == f.status {
			return f.setLocked(next)
		}
	}
	return false
}

// setLocked requires f.mu held
func (f *Feed) setLocked(s Status) bool {
	if f.status == s {
		return false
	}
	f.status = s
	for _, sub := range f.subs {
		select {
		case sub.ch <- s:
		case <-sub.done:
		}
	}
	return true
}

// Subscribe returns a channel primed with the current status and a cancel func
// Subscribe 返回已写入当前状态的通道以及取消函数
func (f *Feed) Subscribe() (<-chan Status, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := &subscriber{ch: make(chan Status, feedBuffer), done: make(chan struct{})}
	sub.ch <- f.status
	id := f.next
	f.next++
	f.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			close(sub.done)
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

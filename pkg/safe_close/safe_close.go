// Package safe_close coordinates shutdown of long running server parts
// Package safe_close 协调常驻服务组件的关闭
package safe_close

import "sync"

// SafeClose broadcasts one close signal to every attached part and waits for them
// SafeClose 向所有挂载的组件广播一次关闭信号并等待其退出
type SafeClose struct {
	closeCh chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	mu  sync.Mutex
	err error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{closeCh: make(chan struct{})}
}

// Attach runs fn in its own goroutine; fn must call done when it has finished closing
// Attach 在独立协程中运行 fn，fn 关闭完成后必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	go fn(s.wg.Done, s.closeCh)
}

// SendCloseSignal closes the signal channel; only the first err is kept
// SendCloseSignal 发送关闭信号，只保留第一次的 err
func (s *SafeClose) SendCloseSignal(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.closeCh)
	})
}

// CloseSignal closed once SendCloseSignal has been called
// CloseSignal 调用 SendCloseSignal 后关闭
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeCh
}

// WaitClosed blocks until every attached part called done
// WaitClosed 阻塞直到所有组件调用 done
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

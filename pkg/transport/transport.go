// Package transport defines the connection collaborator a controller drives
// Package transport 定义控制端驱动的连接协作者
//
// A Transport owns the connection status. Callers observe it through
// Subscribe and change it only indirectly, by issuing Connect, Link and
// Disconnect; the transport reports the outcome as a new status.
package transport

import (
	"context"
	"errors"
)

// Status connection status owned by the transport
// Status 由传输层持有的连接状态
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusLinked       Status = "linked"
	StatusClosed       Status = "closed"
	// StatusErrored the connection failed or dropped unexpectedly, terminal
	// StatusErrored 连接失败或意外断开，终止状态
	StatusErrored Status = "errored"
)

// Known reports whether s is one of the declared statuses
// Known 判断 s 是否为已声明的状态
func (s Status) Known() bool {
	switch s {
	case StatusInitializing, StatusConnecting, StatusConnected, StatusLinked, StatusClosed, StatusErrored:
		return true
	}
	return false
}

// Terminal reports whether no further status change is expected
// Terminal 判断是否为终止状态
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusErrored
}

func (s Status) String() string {
	return string(s)
}

var (
	// ErrInvalidStatus the command is not allowed in the current status
	// ErrInvalidStatus 当前状态不允许该命令
	ErrInvalidStatus = errors.New("transport: command not allowed in current status")
	// ErrNotConnected there is no open connection
	// ErrNotConnected 没有已打开的连接
	ErrNotConnected = errors.New("transport: not connected")
	// ErrLinkRejected the server refused the link request
	// ErrLinkRejected 服务端拒绝了链接请求
	ErrLinkRejected = errors.New("transport: link rejected")
	// ErrLinkPending another link request is still waiting for an answer
	// ErrLinkPending 另一个链接请求仍在等待应答
	ErrLinkPending = errors.New("transport: link already pending")
)

// Transport the connection collaborator contract
// Transport 连接协作者契约
type Transport interface {
	// Status returns the current status
	// Status 返回当前状态
	Status() Status
	// Subscribe streams every status change in order, starting with the current status
	// Subscribe 按顺序推送每次状态变化，首个元素为当前状态
	Subscribe() (<-chan Status, func())
	// Connect opens a connection to endpoint
	// Connect 连接到 endpoint
	Connect(ctx context.Context, endpoint string) error
	// Link asks the server to link this connection under path
	// Link 请求服务端以 path 链接当前连接
	Link(ctx context.Context, path string) error
	// Disconnect closes the connection
	// Disconnect 关闭连接
	Disconnect(ctx context.Context) error
}

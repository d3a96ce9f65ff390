package transport

import (
	"context"
	"sync"
	"time"

	"github.com/lxzan/gws"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// KrmxConfig websocket client settings
// KrmxConfig websocket 客户端配置
type KrmxConfig struct {
	HandshakeTimeout   time.Duration
	PingInterval       time.Duration
	ReadMaxPayloadSize int
}

// Krmx websocket transport speaking the krmx link protocol
// Krmx 基于 websocket 的 krmx 链接协议传输
type Krmx struct {
	gws.BuiltinEventHandler

	config KrmxConfig
	logger *zap.Logger
	feed   *Feed

	mu       sync.Mutex
	conn     *gws.Conn
	closing  bool
	pending  chan error
	stopPing chan struct{}
	closed   chan struct{}
}

// NewKrmx creates a krmx transport in status initializing
// NewKrmx 创建状态为 initializing 的 krmx 传输
func NewKrmx(config KrmxConfig, logger *zap.Logger) *Krmx {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = 10 * time.Second
	}
	return &Krmx{
		config: config,
		logger: logger,
		feed:   NewFeed(StatusInitializing),
	}
}

func (k *Krmx) Status() Status { return k.feed.Status() }

func (k *Krmx) Subscribe() (<-chan Status, func()) { return k.feed.Subscribe() }

// Connect dials endpoint; a dial failure moves the status to errored
// Connect 拨号 endpoint，失败时状态变为 errored
func (k *Krmx) Connect(ctx context.Context, endpoint string) error {
	if !k.feed.CompareAndSet(StatusConnecting, StatusInitializing) {
		return errors.Wrapf(ErrInvalidStatus, "connect in %s", k.feed.Status())
	}
	if err := ctx.Err(); err != nil {
		k.feed.Set(StatusErrored)
		return errors.Wrap(err, "connect")
	}

	conn, _, err := gws.NewClient(k, &gws.ClientOption{
		Addr:               endpoint,
		HandshakeTimeout:   k.config.HandshakeTimeout,
		ReadMaxPayloadSize: k.config.ReadMaxPayloadSize,
	})
	if err != nil {
		k.feed.Set(StatusErrored)
		return errors.Wrapf(err, "dial %s", endpoint)
	}

	k.mu.Lock()
	k.conn = conn
	k.closed = make(chan struct{})
	k.stopPing = make(chan struct{})
	k.mu.Unlock()

	k.feed.Set(StatusConnected)
	k.logger.Debug("krmx connected", zap.String("endpoint", endpoint))

	go conn.ReadLoop()
	if k.config.PingInterval > 0 {
		go k.pingLoop(conn, k.stopPing)
	}
	return nil
}

// Link sends krmx/link and waits for the server's verdict
// Link 发送 krmx/link 并等待服务端应答
func (k *Krmx) Link(ctx context.Context, path string) error {
	k.mu.Lock()
	conn := k.conn
	if conn == nil || k.feed.Status() != StatusConnected {
		k.mu.Unlock()
		return errors.Wrapf(ErrNotConnected, "link in %s", k.feed.Status())
	}
	if k.pending != nil {
		k.mu.Unlock()
		return ErrLinkPending
	}
	pending := make(chan error, 1)
	k.pending = pending
	k.mu.Unlock()

	defer func() {
		k.mu.Lock()
		if k.pending == pending {
			k.pending = nil
		}
		k.mu.Unlock()
	}()

	b, err := EncodeMessage(MessageLink, LinkPayload{Username: path})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(gws.OpcodeText, b); err != nil {
		return errors.Wrap(err, "write link")
	}

	select {
	case err := <-pending:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "await link verdict")
	}
}

// Disconnect sends a normal close frame and waits for the socket to close
// Disconnect 发送正常关闭帧并等待连接关闭
func (k *Krmx) Disconnect(ctx context.Context) error {
	k.mu.Lock()
	conn, closed := k.conn, k.closed
	if conn == nil {
		k.mu.Unlock()
		return ErrNotConnected
	}
	k.closing = true
	k.mu.Unlock()

	conn.WriteClose(1000, []byte("bye"))

	select {
	case <-closed:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "await close")
	}
}

func (k *Krmx) pingLoop(conn *gws.Conn, stop chan struct{}) {
	ticker := time.NewTicker(k.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WritePing(nil); err != nil {
				return
			}
		}
	}
}

func (k *Krmx) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(payload)
}

func (k *Krmx) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	msg, err := DecodeMessage(message.Bytes())
	if err != nil {
		k.logger.Warn("krmx message dropped", zap.Error(err))
		return
	}

	switch msg.Type {
	case MessageAccepted:
		k.feed.CompareAndSet(StatusLinked, StatusConnected)
		k.resolve(nil)
	case MessageRejected:
		var p RejectedPayload
		_ = msg.DecodePayload(&p)
		if p.Reason == "" {
			p.Reason = "no reason given"
		}
		k.resolve(errors.Wrap(ErrLinkRejected, p.Reason))
	case MessageUnlinked:
		k.feed.CompareAndSet(StatusConnected, StatusLinked)
	default:
		k.logger.Debug("krmx message ignored", zap.String("type", msg.Type))
	}
}

// OnClose a close we asked for, or a normal close from the server, ends in closed; anything else in errored
// OnClose 主动关闭或服务端正常关闭为 closed，其余为 errored
func (k *Krmx) OnClose(socket *gws.Conn, err error) {
	k.mu.Lock()
	closing := k.closing
	k.conn = nil
	k.closing = false
	if k.stopPing != nil {
		close(k.stopPing)
		k.stopPing = nil
	}
	closed := k.closed
	k.mu.Unlock()

	var ce *gws.CloseError
	if closing || (errors.As(err, &ce) && ce.Code == 1000) {
		k.feed.Set(StatusClosed)
	} else {
		k.logger.Warn("krmx connection lost", zap.Error(err))
		k.feed.Set(StatusErrored)
	}
	k.resolve(errors.Wrap(ErrNotConnected, "connection closed"))

	if closed != nil {
		close(closed)
	}
}

func (k *Krmx) resolve(err error) {
	k.mu.Lock()
	pending := k.pending
	k.pending = nil
	k.mu.Unlock()
	if pending != nil {
		pending <- err
	}
}

package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/haierkeys/screen-connect-controller/internal/identity"
	"github.com/haierkeys/screen-connect-controller/pkg/code"
	apperrors "github.com/haierkeys/screen-connect-controller/pkg/errors"
	"github.com/haierkeys/screen-connect-controller/pkg/logger"
	"github.com/haierkeys/screen-connect-controller/pkg/transport"
	"github.com/haierkeys/screen-connect-controller/pkg/util"
	"go.uber.org/zap"
)

// Config construction parameters of a controller
// Config 控制端构造参数
type Config struct {
	// ServerURL connection endpoint
	// ServerURL 连接地址
	ServerURL string
	// DisplayID target reference
	// DisplayID 目标显示端
	DisplayID string
	// Language view language, empty for the global default
	// Language 视图语言，空为全局默认
	Language string
	// CommandTimeout upper bound of a single transport command
	// CommandTimeout 单条传输命令的超时
	CommandTimeout time.Duration
}

// Dispatcher runs commands off the event loop; *workerpool.Pool satisfies it
// Dispatcher 在事件循环外执行命令，*workerpool.Pool 满足该接口
type Dispatcher interface {
	Go(name string, fn func(context.Context) error, onDone func(error)) error
}

// IdentityStore persistence of the identifier; *identity.Store satisfies it
// IdentityStore 标识持久化，*identity.Store 满足该接口
type IdentityStore interface {
	Read(key, def string) string
	Write(key, value string)
}

type eventKind int

const (
	eventIdentifier eventKind = iota + 1
	eventLink
	eventDisconnect
	eventFailure
)

type event struct {
	kind       eventKind
	identifier string
	command    CommandKind
	err        error
	reply      chan error
}

// Controller owns the lifecycle of one pairing
// Controller 持有一次配对的生命周期
//
// All state is owned by the goroutine running Run. Transport status changes,
// user events and command failures are handled there one at a time, in the
// order they arrive. Commands run on the Dispatcher and are never awaited.
type Controller struct {
	config    Config
	transport transport.Transport
	identity  IdentityStore
	pool      Dispatcher
	metrics   *Metrics
	logger    *zap.Logger
	sessionID string
	device    string

	events  chan event
	done    chan struct{}
	started atomic.Bool

	// owned by Run
	state            State
	evaluated        State
	identifier       string
	lastFailure      *apperrors.AppError
	disconnectFailed bool

	viewMu sync.RWMutex
	view   View

	subMu   sync.Mutex
	subs    map[int]chan View
	nextSub int
}

// New creates a controller; the identifier is restored from the identity store
// New 创建控制端，标识从存储中恢复
func New(config Config, tr transport.Transport, store IdentityStore, pool Dispatcher, metrics *Metrics, zl *zap.Logger) *Controller {
	if zl == nil {
		zl = zap.NewNop()
	}
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = 15 * time.Second
	}
	c := &Controller{
		config:    config,
		transport: tr,
		identity:  store,
		pool:      pool,
		metrics:   metrics,
		sessionID: uuid.New().String(),
		device:    util.GetDeviceID(),
		events:    make(chan event),
		done:      make(chan struct{}),
		subs:      make(map[int]chan View),
	}
	c.logger = zl.With(
		zap.String(logger.FieldSessionID, c.sessionID),
		zap.String(logger.FieldDisplay, config.DisplayID),
	)
	c.identifier = store.Read(identity.KeyIdentifier, "")
	c.state = State{Status: tr.Status()}
	c.publish()
	return c
}

// SessionID random id of this controller instance
// SessionID 控制端实例的随机 ID
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Run processes events until ctx is cancelled; it can only be called once
// Run 处理事件直到 ctx 取消，只能调用一次
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return code.ErrorControllerStopped
	}
	defer close(c.done)

	statuses, unsubscribe := c.transport.Subscribe()
	defer unsubscribe()

	c.logger.Info("controller started",
		zap.String(logger.FieldEndpoint, c.config.ServerURL),
		zap.String(logger.FieldDevice, c.device),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("controller stopped", zap.String(logger.FieldStatus, string(c.state.Status)))
			c.closeSubscribers()
			return nil
		case s := <-statuses:
			c.onStatus(s)
			c.publish()
		case ev := <-c.events:
			c.onEvent(ev)
		}
	}
}

func (c *Controller) onStatus(s transport.Status) {
	if s == c.state.Status && c.evaluated.Status != "" {
		return
	}
	c.logger.Debug("status changed",
		zap.String(logger.FieldPrevStatus, string(c.state.Status)),
		zap.String(logger.FieldStatus, string(s)),
	)
	c.metrics.transition(string(s))
	if !s.Known() {
		c.logger.Warn("unknown connection status", zap.String(logger.FieldStatus, string(s)))
	}
	c.state.Status = s
	c.evaluate()
}

func (c *Controller) onEvent(ev event) {
	var err error
	switch ev.kind {
	case eventIdentifier:
		c.setIdentifier(ev.identifier)
	case eventLink:
		err = c.submitLink(ev.identifier)
	case eventDisconnect:
		err = c.requestDisconnect()
	case eventFailure:
		c.reportFailure(ev.command, ev.err)
	}
	// callers see their own event in View once the reply arrives
	c.publish()
	if ev.reply != nil {
		ev.reply <- err
	}
}

func (c *Controller) setIdentifier(v string) {
	if v == c.identifier {
		return
	}
	c.identifier = v
	c.identity.Write(identity.KeyIdentifier, v)
}

func (c *Controller) submitLink(identifier string) error {
	c.setIdentifier(identifier)
	if c.state.Status != transport.StatusConnected || c.state.DisconnectIntent {
		return code.ErrorNotConnected
	}
	if !util.IsValidDisplayName(c.identifier) {
		return code.ErrorInvalidIdentifier
	}
	c.dispatch(Command{Kind: CommandLink, Path: LinkPath(c.config.DisplayID, c.identifier)})
	return nil
}

func (c *Controller) requestDisconnect() error {
	if c.state.Status != transport.StatusConnected {
		return code.ErrorNotConnected
	}
	if c.state.DisconnectIntent {
		// a reported failure makes a repeated request a user retry
		if c.disconnectFailed {
			c.disconnectFailed = false
			c.dispatch(Command{Kind: CommandDisconnect})
		}
		return nil
	}
	c.state.DisconnectIntent = true
	c.evaluate()
	return nil
}

func (c *Controller) evaluate() {
	cmds := Evaluate(c.evaluated, c.state)
	c.evaluated = c.state
	for _, cmd := range cmds {
		c.dispatch(cmd)
	}
}

func (c *Controller) dispatch(cmd Command) {
	c.metrics.command(cmd.Kind)
	c.logger.Info("issue command",
		zap.String(logger.FieldAction, string(cmd.Kind)),
		zap.String(logger.FieldStatus, string(c.state.Status)),
		zap.String("path", cmd.Path),
	)

	tr, timeout, endpoint := c.transport, c.config.CommandTimeout, c.config.ServerURL
	run := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		switch cmd.Kind {
		case CommandConnect:
			return tr.Connect(ctx, endpoint)
		case CommandLink:
			return tr.Link(ctx, cmd.Path)
		default:
			return tr.Disconnect(ctx)
		}
	}
	onDone := func(err error) {
		if err == nil {
			return
		}
		select {
		case c.events <- event{kind: eventFailure, command: cmd.Kind, err: err}:
		case <-c.done:
			c.logger.Warn("command failed after controller stopped",
				zap.String(logger.FieldAction, string(cmd.Kind)), zap.Error(err))
		}
	}

	if err := c.pool.Go("session."+string(cmd.Kind), run, onDone); err != nil {
		c.reportFailure(cmd.Kind, err)
	}
}

func (c *Controller) reportFailure(kind CommandKind, err error) {
	c.metrics.failure(kind)

	var cd *code.Code
	switch kind {
	case CommandConnect:
		cd = code.ErrorConnectFailed
	case CommandLink:
		cd = code.ErrorLinkFailed
	default:
		cd = code.ErrorDisconnectFailed
		c.disconnectFailed = true
	}
	c.lastFailure = apperrors.NewAppError(cd, err).WithTraceID(c.sessionID)

	c.logger.Error("command failed",
		zap.String(logger.FieldAction, string(kind)),
		zap.String(logger.FieldStatus, string(c.state.Status)),
		zap.Int(logger.FieldCode, cd.Code()),
		zap.Error(err),
	)
}

// send hands ev to the loop and waits for its reply
func (c *Controller) send(ctx context.Context, ev event) error {
	ev.reply = make(chan error, 1)
	select {
	case c.events <- ev:
	case <-c.done:
		return code.ErrorControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-ev.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetIdentifier records an identifier edit and persists it
// SetIdentifier 记录标识修改并持久化
func (c *Controller) SetIdentifier(ctx context.Context, identifier string) error {
	return c.send(ctx, event{kind: eventIdentifier, identifier: identifier})
}

// SubmitLink asks the transport to link under identifier; requires connected and a valid identifier
// SubmitLink 以 identifier 发起链接，要求已连接且标识合法
func (c *Controller) SubmitLink(ctx context.Context, identifier string) error {
	return c.send(ctx, event{kind: eventLink, identifier: identifier})
}

// RequestDisconnect sets the disconnect intent; requires connected
// RequestDisconnect 设置断开意图，要求已连接
func (c *Controller) RequestDisconnect(ctx context.Context) error {
	return c.send(ctx, event{kind: eventDisconnect})
}

// View returns the latest view
// View 返回最新视图
func (c *Controller) View() View {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.view
}

// Subscribe delivers the latest view after every processed event; slow readers only see the newest
// Subscribe 每处理一个事件推送最新视图，读取慢时只保留最新一个
func (c *Controller) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)
	ch <- c.View()

	c.subMu.Lock()
	if c.subs == nil {
		c.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Controller) publish() {
	v := Render(c.state, c.identifier, c.config.DisplayID, c.config.Language)
	v.LastFailure = c.lastFailure
	v.SessionID = c.sessionID
	v.Device = c.device

	c.viewMu.Lock()
	c.view = v
	c.viewMu.Unlock()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (c *Controller) closeSubscribers() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subs = nil
}

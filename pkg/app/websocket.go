package app

import (
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second
)

// WebSocketMessage a text frame split at the first "|" into Type and Data
// WebSocketMessage 以首个 "|" 分割为 Type 与 Data 的文本帧
type WebSocketMessage struct {
	Type string
	Data []byte
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// WebsocketClient 结构体来存储每个 WebSocket 连接及其相关状态
type WebsocketClient struct {
	conn *gws.Conn
	done chan struct{}
	once sync.Once
	Ctx  *gin.Context
	Lang string
}

// Done closed when the connection ends
// Done 连接结束时关闭
func (c *WebsocketClient) Done() <-chan struct{} {
	return c.done
}

// Send writes "action|json(content)" to this client
// Send 向当前客户端发送 "action|json(content)"
func (c *WebsocketClient) Send(action string, content any) error {
	payload, err := EncodeFrame(action, content)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(gws.OpcodeText, payload)
}

// Close sends a normal close frame
// Close 发送正常关闭帧
func (c *WebsocketClient) Close(reason string) {
	c.conn.WriteClose(1000, []byte(reason))
}

func (c *WebsocketClient) finish() {
	c.once.Do(func() { close(c.done) })
}

// EncodeFrame builds "action|json(content)", or the bare json when action is empty
// EncodeFrame 构造 "action|json(content)"，action 为空时仅为 json
func EncodeFrame(action string, content any) ([]byte, error) {
	b, err := sonic.Marshal(content)
	if err != nil {
		return nil, err
	}
	if action == "" {
		return b, nil
	}
	return append([]byte(action+"|"), b...), nil
}

// ------------------------------------> WebsocketServer

type ConnStorage = map[*gws.Conn]*WebsocketClient

type WebsocketServer struct {
	handlers  map[string]func(*WebsocketClient, *WebSocketMessage)
	onConnect func(*WebsocketClient)
	clients   ConnStorage
	mu        sync.Mutex
	up        *gws.Upgrader
	config    *WebsocketServerConfig
	logger    *zap.Logger
}

func NewWebsocketServer(c WebsocketServerConfig, logger *zap.Logger) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	wss := &WebsocketServer{
		handlers: make(map[string]func(*WebsocketClient, *WebSocketMessage)),
		clients:  make(ConnStorage),
		config:   &c,
		logger:   logger,
	}
	wss.up = gws.NewUpgrader(wss, &wss.config.GWSOption)
	return wss
}

func (w *WebsocketServer) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			w.logger.Error("WebsocketServer Start err", zap.Error(err))
			return
		}
		client := &WebsocketClient{conn: socket, done: make(chan struct{}), Ctx: c, Lang: RequestLang(c)}
		w.AddClient(client)
		if w.onConnect != nil {
			w.onConnect(client)
		}
		go socket.ReadLoop()
	}
}

// Use registers the handler for one message type
// Use 注册某类消息的处理函数
func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WebSocketMessage)) {
	w.handlers[action] = handler
}

// OnConnect registers a hook run for every new client before its read loop starts
// OnConnect 注册新客户端接入时的回调，在读循环启动前执行
func (w *WebsocketServer) OnConnect(fn func(*WebsocketClient)) {
	w.onConnect = fn
}

// Broadcast sends "action|json(content)" to every client
// Broadcast 向所有客户端广播 "action|json(content)"
func (w *WebsocketServer) Broadcast(action string, content any) error {
	payload, err := EncodeFrame(action, content)
	if err != nil {
		return err
	}
	var b = gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	for conn := range w.clients {
		_ = b.Broadcast(conn)
	}
	return nil
}

// Count number of connected clients
// Count 已连接客户端数量
func (w *WebsocketServer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.clients)
}

// CloseAll closes every client
// CloseAll 关闭所有客户端
func (w *WebsocketServer) CloseAll(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for conn := range w.clients {
		conn.WriteClose(1001, []byte(reason))
	}
}

func (w *WebsocketServer) GetClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clients[conn]
}

func (w *WebsocketServer) AddClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
}

func (w *WebsocketServer) RemoveClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.clients[conn]
	delete(w.clients, conn)
	return c
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
	w.logger.Info("WebsocketServer Client Connect")
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	if c := w.RemoveClient(conn); c != nil {
		c.finish()
	}
	w.logger.Info("WebsocketServer Client Leave", zap.Int("Count", w.Count()), zap.Error(err))
}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
	if message.Opcode != gws.OpcodeText {
		return
	}
	messageStr := message.Data.String()
	if messageStr == "close" {
		conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	index := strings.Index(messageStr, "|")
	if index == -1 {
		w.logger.Warn("WebsocketServer OnMessage", zap.String("type", "Illegal message type"))
		return
	}
	msg := WebSocketMessage{
		Type: messageStr[:index],
		Data: []byte(messageStr[index+1:]),
	}

	handler, exists := w.handlers[msg.Type]
	if !exists {
		w.logger.Warn("WebsocketServer OnMessage", zap.String("msg", "Unknown message type"), zap.String("Type", msg.Type))
		return
	}
	if c := w.GetClient(conn); c != nil {
		handler(c, &msg)
	}
}

package websocket_router

import (
	"context"
	"time"

	"github.com/haierkeys/screen-connect-controller/internal/app"
	"github.com/haierkeys/screen-connect-controller/internal/dto"
	pkgapp "github.com/haierkeys/screen-connect-controller/pkg/app"

	"go.uber.org/zap"
)

// Frame actions of the session watch socket
// 会话监听 socket 的帧类型
const (
	// ActionSessionView server → client, "SessionView|{json}"
	ActionSessionView = "SessionView"
	// ActionError server → client, "Error|{json}"
	ActionError = "Error"
	// ActionIdentifierSet client → server, "IdentifierSet|name"
	ActionIdentifierSet = "IdentifierSet"
	// ActionLink client → server, "Link|name"
	ActionLink = "Link"
	// ActionDisconnect client → server, "Disconnect|"
	ActionDisconnect = "Disconnect"
)

// eventTimeout bounds how long one socket message waits for the controller loop
const eventTimeout = 5 * time.Second

// SessionWSHandler 会话 WebSocket 处理器，推送视图并接收用户事件
type SessionWSHandler struct {
	*WSHandler
}

// NewSessionWSHandler 创建 SessionWSHandler 实例
func NewSessionWSHandler(a *app.App) *SessionWSHandler {
	return &SessionWSHandler{WSHandler: NewWSHandler(a)}
}

// OnConnect 新客户端接入时推送当前视图
func (h *SessionWSHandler) OnConnect(c *pkgapp.WebsocketClient) {
	view, err := dto.NewSessionDTO(h.App.Controller.View())
	if err != nil {
		h.App.Logger().Error("SessionWSHandler.OnConnect", zap.Error(err))
		return
	}
	if err := c.Send(ActionSessionView, view); err != nil {
		h.App.Logger().Debug("SessionWSHandler.OnConnect send", zap.Error(err))
	}
}

// Broadcast pushes every controller view to all watchers until the controller or the app stops
// Broadcast 将控制端的每个视图推送给所有监听者，直到控制端或应用停止
func (h *SessionWSHandler) Broadcast(wss *pkgapp.WebsocketServer) {
	views, cancel := h.App.Controller.Subscribe()
	defer cancel()
	for {
		select {
		case v, ok := <-views:
			if !ok {
				wss.CloseAll("controller stopped")
				return
			}
			view, err := dto.NewSessionDTO(v)
			if err != nil {
				h.App.Logger().Error("SessionWSHandler.Broadcast", zap.Error(err))
				continue
			}
			if err := wss.Broadcast(ActionSessionView, view); err != nil {
				h.App.Logger().Error("SessionWSHandler.Broadcast", zap.Error(err))
			}
		case <-h.App.ShutdownCh():
			wss.CloseAll("shutting down")
			return
		}
	}
}

// IdentifierSet 记录名称编辑
func (h *SessionWSHandler) IdentifierSet(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	if err := h.App.Controller.SetIdentifier(ctx, string(msg.Data)); err != nil {
		h.sendError(c, ActionIdentifierSet, err)
	}
}

// Link 以名称发起链接
func (h *SessionWSHandler) Link(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	if err := h.App.Controller.SubmitLink(ctx, string(msg.Data)); err != nil {
		h.sendError(c, ActionLink, err)
	}
}

// Disconnect 请求断开
func (h *SessionWSHandler) Disconnect(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	if err := h.App.Controller.RequestDisconnect(ctx); err != nil {
		h.sendError(c, ActionDisconnect, err)
	}
}

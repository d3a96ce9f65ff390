// Package websocket_router 提供 WebSocket 路由处理器
package websocket_router

import (
	"errors"

	"github.com/haierkeys/screen-connect-controller/internal/app"
	pkgapp "github.com/haierkeys/screen-connect-controller/pkg/app"
	"github.com/haierkeys/screen-connect-controller/pkg/code"

	"go.uber.org/zap"
)

// WSHandler WebSocket 基础 Handler 结构体，封装 App Container
// 所有 WebSocket Handler 都应该嵌入此结构体以获得依赖注入能力
type WSHandler struct {
	App *app.App
}

// NewWSHandler 创建 WebSocket 基础 Handler 实例
func NewWSHandler(a *app.App) *WSHandler {
	return &WSHandler{App: a}
}

// ErrorMessage error frame sent back to the client that caused it
// ErrorMessage 回复给出错客户端的错误帧
type ErrorMessage struct {
	Action  string `json:"action"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError 以客户端语言回复错误，非结果码错误按内部错误处理
func (h *WSHandler) sendError(c *pkgapp.WebsocketClient, action string, err error) {
	var codeErr *code.Code
	if !errors.As(err, &codeErr) {
		h.App.Logger().Error("websocket "+action, zap.Error(err))
		codeErr = code.ErrorServerInternal
	}
	if serr := c.Send(ActionError, ErrorMessage{
		Action:  action,
		Code:    codeErr.Code(),
		Message: codeErr.MsgIn(c.Lang),
	}); serr != nil {
		h.App.Logger().Debug("websocket send error frame", zap.Error(serr))
	}
}

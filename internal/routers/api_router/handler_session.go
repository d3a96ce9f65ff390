package api_router

import (
	"strings"

	"github.com/haierkeys/screen-connect-controller/internal/app"
	"github.com/haierkeys/screen-connect-controller/internal/dto"
	pkgapp "github.com/haierkeys/screen-connect-controller/pkg/app"
	"github.com/haierkeys/screen-connect-controller/pkg/code"
	apperrors "github.com/haierkeys/screen-connect-controller/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler 控制端会话 API 路由处理器
// 所有写操作都作为用户事件交给控制端事件循环
type SessionHandler struct {
	*Handler
}

// NewSessionHandler 创建 SessionHandler 实例
func NewSessionHandler(a *app.App) *SessionHandler {
	return &SessionHandler{
		Handler: NewHandler(a),
	}
}

// respondView 以 successCode 输出当前视图
func (h *SessionHandler) respondView(c *gin.Context, successCode *code.Code) {
	response := pkgapp.NewResponse(c)
	view, err := dto.NewSessionDTO(h.App.Controller.View())
	if err != nil {
		h.logError(c.Request.Context(), "SessionHandler.respondView", err)
		response.ToResponse(code.ErrorServerInternal)
		return
	}
	response.ToResponseData(successCode, view)
}

// Get 获取当前会话视图
// @Summary 获取会话视图
// @Tags 会话
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.SessionDTO} "成功"
// @Router /api/session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	h.respondView(c, code.Success)
}

// SetIdentifier 修改显示名称，输入过程中的不合法名称同样会被保存
// @Summary 修改显示名称
// @Tags 会话
// @Accept json
// @Produce json
// @Param params body dto.SessionIdentifierRequest true "显示名称"
// @Success 200 {object} pkgapp.Res{data=dto.SessionDTO} "成功"
// @Router /api/session/identifier [put]
func (h *SessionHandler) SetIdentifier(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SessionIdentifierRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("SessionHandler.SetIdentifier.BindAndValid err", zap.Error(errs))
		response.ToErrorResponse(code.ErrorInvalidParams, errs.Errors()...)
		return
	}

	if err := h.App.Controller.SetIdentifier(c.Request.Context(), params.Identifier); err != nil {
		h.logError(c.Request.Context(), "SessionHandler.SetIdentifier", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	h.respondView(c, code.SuccessIdentifierSaved)
}

// Link 以显示名称发起链接
// @Summary 发起链接
// @Tags 会话
// @Accept json
// @Produce json
// @Param params body dto.SessionLinkRequest true "显示名称"
// @Success 200 {object} pkgapp.Res{data=dto.SessionDTO} "成功"
// @Failure 400 {object} pkgapp.Res "名称不合法"
// @Failure 409 {object} apperrors.AppError "尚未连接"
// @Router /api/session/link [post]
func (h *SessionHandler) Link(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SessionLinkRequest{}
	ctx := c.Request.Context()

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		// 不合法的名称仍然是一次编辑，需要记录
		if strings.TrimSpace(params.Identifier) != "" {
			if err := h.App.Controller.SetIdentifier(ctx, params.Identifier); err != nil {
				h.logError(ctx, "SessionHandler.Link.SetIdentifier", err)
			}
		}
		response.ToErrorResponse(code.ErrorInvalidIdentifier, errs.Errors()...)
		return
	}

	if err := h.App.Controller.SubmitLink(ctx, params.Identifier); err != nil {
		h.logError(ctx, "SessionHandler.Link", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	h.respondView(c, code.SuccessLinkRequested)
}

// Disconnect 请求断开连接
// @Summary 请求断开
// @Tags 会话
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.SessionDTO} "成功"
// @Failure 409 {object} apperrors.AppError "尚未连接"
// @Router /api/session/disconnect [post]
func (h *SessionHandler) Disconnect(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.App.Controller.RequestDisconnect(ctx); err != nil {
		h.logError(ctx, "SessionHandler.Disconnect", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	h.respondView(c, code.SuccessDisconnectRequested)
}

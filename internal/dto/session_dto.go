package dto

import (
	"time"

	"github.com/haierkeys/screen-connect-controller/internal/session"
	"github.com/haierkeys/screen-connect-controller/pkg/convert"
)

// SessionIdentifierRequest identifier edit, may still be invalid while typing
// SessionIdentifierRequest 标识编辑，输入过程中允许不合法
type SessionIdentifierRequest struct {
	Identifier string `json:"identifier" form:"identifier" binding:"max=256" example:"player.one"` // Display name being typed // 正在输入的显示名称
}

// SessionLinkRequest link submission, must satisfy the naming policy
// SessionLinkRequest 链接提交，必须满足命名规则
type SessionLinkRequest struct {
	Identifier string `json:"identifier" form:"identifier" binding:"required,displayname" example:"player.one"` // Display name to link with // 用于链接的显示名称
}

// ---------------- DTO / Response ----------------

// FailureDTO last asynchronous command failure
// FailureDTO 最近一次异步命令失败
type FailureDTO struct {
	Code      int       `json:"code"`              // Result code // 结果码
	Message   string    `json:"message"`           // Message // 消息
	Details   []string  `json:"details,omitempty"` // Details // 详情
	TraceID   string    `json:"traceId,omitempty"` // Session id of the controller // 控制端会话 ID
	Timestamp time.Time `json:"timestamp"`         // When it happened // 发生时间
}

// SessionDTO controller view for API response
// SessionDTO 控制端视图 API 响应对象
type SessionDTO struct {
	Branch          string      `json:"branch"`                    // Active view // 当前视图
	Status          string      `json:"status"`                    // Connection status // 连接状态
	DisplayID       string      `json:"displayId"`                 // Target display // 目标显示端
	Identifier      string      `json:"identifier"`                // Current display name // 当前显示名称
	Valid           bool        `json:"valid"`                     // Name passes the policy // 名称是否合法
	ShowError       bool        `json:"showError"`                 // Show the validation error // 是否显示校验错误
	CanSubmit       bool        `json:"canSubmit"`                 // Link button enabled // 链接按钮是否可用
	ValidationError string      `json:"validationError,omitempty"` // Inline validation error // 行内校验错误
	Lines           []string    `json:"lines"`                     // Texts to draw // 需要绘制的文案
	LastFailure     *FailureDTO `json:"lastFailure,omitempty"`     // Last command failure // 最近一次命令失败
	SessionID       string      `json:"sessionId"`                 // Controller session id // 控制端会话 ID
	Device          string      `json:"device"`                    // Device id // 设备 ID
}

// NewSessionDTO maps a controller view to its response object
// NewSessionDTO 将控制端视图映射为响应对象
func NewSessionDTO(v session.View) (*SessionDTO, error) {
	out := &SessionDTO{}
	if err := convert.StructAssign(v, out); err != nil {
		return nil, err
	}
	if out.Lines == nil {
		out.Lines = []string{}
	}
	return out, nil
}

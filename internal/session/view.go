package session

import (
	"fmt"

	"github.com/haierkeys/screen-connect-controller/pkg/code"
	apperrors "github.com/haierkeys/screen-connect-controller/pkg/errors"
	"github.com/haierkeys/screen-connect-controller/pkg/transport"
	"github.com/haierkeys/screen-connect-controller/pkg/util"
)

// Branch which view is active
// Branch 当前激活的视图
type Branch string

const (
	BranchConnecting   Branch = "connecting"
	BranchNameEntry    Branch = "name-entry"
	BranchClosing      Branch = "closing"
	BranchLinked       Branch = "linked"
	BranchClosed       Branch = "closed"
	BranchDisconnected Branch = "disconnected"
)

// View everything a front end needs to draw the controller
// View 前端绘制控制端所需的全部信息
type View struct {
	Branch     Branch           `json:"branch"`
	Status     transport.Status `json:"status"`
	DisplayID  string           `json:"displayId"`
	Identifier string           `json:"identifier"`
	// Valid identifier passes the naming policy
	Valid bool `json:"valid"`
	// ShowError invalid and long enough to complain about
	ShowError bool `json:"showError"`
	// CanSubmit the link form is enabled
	CanSubmit       bool                `json:"canSubmit"`
	ValidationError string              `json:"validationError,omitempty"`
	Lines           []string            `json:"lines"`
	LastFailure     *apperrors.AppError `json:"lastFailure,omitempty"`
	SessionID       string              `json:"sessionId,omitempty"`
	Device          string              `json:"device,omitempty"`
}

// Render maps state and identifier to a view in language (empty for the global default)
// Render 将状态与标识映射为指定语言的视图（空为全局默认语言）
func Render(st State, identifier, target, language string) View {
	if language == "" {
		language = code.GetGlobalDefaultLang()
	}
	text := func(t code.Text, args ...any) string {
		return fmt.Sprintf(t.Message(language), args...)
	}

	v := View{
		Status:     st.Status,
		DisplayID:  target,
		Identifier: identifier,
		Valid:      util.IsValidDisplayName(identifier),
	}
	v.ShowError = !v.Valid && util.ShouldShowDisplayNameError(identifier)

	switch st.Status {
	case transport.StatusInitializing, transport.StatusConnecting:
		v.Branch = BranchConnecting
		v.Lines = []string{text(code.TextConnecting, target, identifier)}
	case transport.StatusConnected:
		if st.DisconnectIntent {
			v.Branch = BranchClosing
			v.Lines = []string{text(code.TextClosing, target)}
			break
		}
		v.Branch = BranchNameEntry
		v.CanSubmit = v.Valid
		v.Lines = []string{
			text(code.TextGreeting),
			text(code.TextAccessing, target),
			text(code.TextAskName),
		}
		if v.ShowError {
			v.ValidationError = code.ErrorInvalidIdentifier.MsgIn(language)
		}
	case transport.StatusLinked:
		v.Branch = BranchLinked
		v.Lines = []string{text(code.TextLinked, target, identifier)}
	case transport.StatusClosed:
		v.Branch = BranchClosed
		v.Lines = []string{text(code.TextClosed)}
	default:
		v.Branch = BranchDisconnected
		v.Lines = []string{text(code.TextDisconnected, target)}
	}
	return v
}

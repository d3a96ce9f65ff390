package dto

import (
	"errors"
	"testing"

	"github.com/haierkeys/screen-connect-controller/internal/session"
	"github.com/haierkeys/screen-connect-controller/pkg/code"
	apperrors "github.com/haierkeys/screen-connect-controller/pkg/errors"
	"github.com/haierkeys/screen-connect-controller/pkg/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionDTO(t *testing.T) {
	v := session.Render(session.State{Status: transport.StatusConnected}, "a..b", "room42", "en")
	v.SessionID = "sid"
	v.LastFailure = apperrors.NewAppError(code.ErrorLinkFailed, errors.New("name taken")).WithTraceID("sid")

	out, err := NewSessionDTO(v)
	require.NoError(t, err)
	assert.Equal(t, "name-entry", out.Branch)
	assert.Equal(t, "connected", out.Status)
	assert.Equal(t, "room42", out.DisplayID)
	assert.Equal(t, "a..b", out.Identifier)
	assert.False(t, out.Valid)
	assert.True(t, out.ShowError)
	assert.False(t, out.CanSubmit)
	assert.NotEmpty(t, out.ValidationError)
	assert.Equal(t, v.Lines, out.Lines)
	require.NotNil(t, out.LastFailure)
	assert.Equal(t, code.ErrorLinkFailed.Code(), out.LastFailure.Code)
	assert.Equal(t, "sid", out.LastFailure.TraceID)
}

func TestNewSessionDTONoLines(t *testing.T) {
	out, err := NewSessionDTO(session.View{Branch: session.BranchClosed})
	require.NoError(t, err)
	assert.Equal(t, []string{}, out.Lines)
	assert.Nil(t, out.LastFailure)
}

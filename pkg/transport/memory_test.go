package transport

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AutoAdvanceLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(true)

	require.NoError(t, m.Connect(ctx, "ws://display"))
	assert.Equal(t, StatusConnected, m.Status())

	require.NoError(t, m.Link(ctx, "c/room/alice"))
	assert.Equal(t, StatusLinked, m.Status())

	require.NoError(t, m.Disconnect(ctx))
	assert.Equal(t, StatusClosed, m.Status())

	assert.Equal(t, []Call{
		{Action: "connect", Arg: "ws://display"},
		{Action: "link", Arg: "c/room/alice"},
		{Action: "disconnect"},
	}, m.Calls())
}

func TestMemory_ReservedNameRejected(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(true)
	m.Reserve("alice")

	require.NoError(t, m.Connect(ctx, "ws://display"))
	err := m.Link(ctx, "c/room/alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLinkRejected))
	assert.Equal(t, StatusConnected, m.Status())
}

func TestMemory_FailuresLeaveStatusAlone(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(false)
	boom := errors.New("boom")
	m.FailLink(boom)
	m.FailDisconnect(boom)
	m.SetStatus(StatusConnected)

	assert.Equal(t, boom, m.Link(ctx, "c/room/bob"))
	assert.Equal(t, boom, m.Disconnect(ctx))
	assert.Equal(t, StatusConnected, m.Status())
	assert.Equal(t, 1, m.CountCalls("link"))
	assert.Equal(t, 1, m.CountCalls("disconnect"))
}

func TestMemory_ConnectFailureErrorsWhenAdvancing(t *testing.T) {
	m := NewMemory(true)
	m.FailConnect(errors.New("refused"))
	require.Error(t, m.Connect(context.Background(), "ws://display"))
	assert.Equal(t, StatusErrored, m.Status())
}

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lxzan/gws"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDisplay accepts every link except names ending in "taken";
// "kick" closes normally, "drop" cuts the socket.
type fakeDisplay struct {
	gws.BuiltinEventHandler
}

func (f *fakeDisplay) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	msg, err := DecodeMessage(message.Bytes())
	if err != nil || msg.Type != MessageLink {
		return
	}
	var p LinkPayload
	_ = msg.DecodePayload(&p)

	switch {
	case strings.HasSuffix(p.Username, "taken"):
		b, _ := EncodeMessage(MessageRejected, RejectedPayload{Reason: "username taken"})
		_ = socket.WriteMessage(gws.OpcodeText, b)
	case strings.HasSuffix(p.Username, "kick"):
		socket.WriteClose(1000, []byte("kicked"))
	case strings.HasSuffix(p.Username, "drop"):
		_ = socket.NetConn().Close()
	default:
		b, _ := EncodeMessage(MessageAccepted, nil)
		_ = socket.WriteMessage(gws.OpcodeText, b)
	}
}

func newFakeDisplay(t *testing.T) string {
	t.Helper()
	up := gws.NewUpgrader(&fakeDisplay{}, &gws.ServerOption{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r)
		if err != nil {
			return
		}
		go conn.ReadLoop()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitStatus(t *testing.T, tr Transport, want Status) {
	t.Helper()
	require.Eventually(t, func() bool { return tr.Status() == want }, 3*time.Second, 10*time.Millisecond,
		"status stuck at %s, want %s", tr.Status(), want)
}

func TestKrmx_LinkAndDisconnect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	k := NewKrmx(KrmxConfig{HandshakeTimeout: time.Second}, nil)
	ch, unsubscribe := k.Subscribe()
	defer unsubscribe()

	require.NoError(t, k.Connect(ctx, newFakeDisplay(t)))
	require.NoError(t, k.Link(ctx, "c/room/alice"))
	assert.Equal(t, StatusLinked, k.Status())

	require.NoError(t, k.Disconnect(ctx))
	waitStatus(t, k, StatusClosed)

	var seen []Status
	for len(seen) < 5 {
		seen = append(seen, <-ch)
	}
	assert.Equal(t, []Status{StatusInitializing, StatusConnecting, StatusConnected, StatusLinked, StatusClosed}, seen)
}

func TestKrmx_RejectedLinkStaysConnected(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	k := NewKrmx(KrmxConfig{}, nil)
	require.NoError(t, k.Connect(ctx, newFakeDisplay(t)))

	err := k.Link(ctx, "c/room/taken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLinkRejected))
	assert.Contains(t, err.Error(), "username taken")
	assert.Equal(t, StatusConnected, k.Status())

	require.NoError(t, k.Link(ctx, "c/room/bob"))
	assert.Equal(t, StatusLinked, k.Status())
}

func TestKrmx_ServerCloseEndsClosed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	k := NewKrmx(KrmxConfig{}, nil)
	require.NoError(t, k.Connect(ctx, newFakeDisplay(t)))
	require.Error(t, k.Link(ctx, "c/room/kick"))
	waitStatus(t, k, StatusClosed)
}

func TestKrmx_DroppedSocketEndsErrored(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	k := NewKrmx(KrmxConfig{}, nil)
	require.NoError(t, k.Connect(ctx, newFakeDisplay(t)))
	require.Error(t, k.Link(ctx, "c/room/drop"))
	waitStatus(t, k, StatusErrored)
}

func TestKrmx_DialFailure(t *testing.T) {
	k := NewKrmx(KrmxConfig{HandshakeTimeout: 500 * time.Millisecond}, nil)
	err := k.Connect(context.Background(), "ws://127.0.0.1:1/nowhere")
	require.Error(t, err)
	assert.Equal(t, StatusErrored, k.Status())

	err = k.Connect(context.Background(), "ws://127.0.0.1:1/nowhere")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestKrmx_LinkWithoutConnection(t *testing.T) {
	k := NewKrmx(KrmxConfig{}, nil)
	err := k.Link(context.Background(), "c/room/alice")
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.True(t, errors.Is(k.Disconnect(context.Background()), ErrNotConnected))
}

func TestProtocol_EncodeDecode(t *testing.T) {
	b, err := EncodeMessage(MessageLink, LinkPayload{Username: "c/room/alice"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"krmx/link","payload":{"username":"c/room/alice"}}`, string(b))

	_, err = DecodeMessage([]byte(`{"payload":{}}`))
	assert.Error(t, err)
}

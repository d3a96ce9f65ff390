package app

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recvHandler struct {
	gws.BuiltinEventHandler
	recv chan string
}

func (h *recvHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	h.recv <- message.Data.String()
}

func dial(t *testing.T, url string) (*gws.Conn, *recvHandler) {
	t.Helper()
	h := &recvHandler{recv: make(chan string, 16)}
	conn, _, err := gws.NewClient(h, &gws.ClientOption{Addr: url})
	require.NoError(t, err)
	go conn.ReadLoop()
	t.Cleanup(func() { conn.WriteClose(1000, nil) })
	return conn, h
}

func next(t *testing.T, h *recvHandler) string {
	t.Helper()
	select {
	case m := <-h.recv:
		return m
	case <-time.After(3 * time.Second):
		t.Fatal("no websocket frame received")
		return ""
	}
}

func TestWebsocketServer_HandlersAndBroadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)
	wss := NewWebsocketServer(WebsocketServerConfig{}, nil)
	wss.OnConnect(func(c *WebsocketClient) {
		_ = c.Send("Hello", map[string]string{"lang": c.Lang})
	})
	wss.Use("Echo", func(c *WebsocketClient, msg *WebSocketMessage) {
		_ = c.Send("Echo", string(msg.Data))
	})

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(LangKey, c.Query("lang")); c.Next() })
	r.GET("/ws", wss.Run())
	srv := httptest.NewServer(r)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?lang=zh"

	a, ha := dial(t, url)
	assert.Equal(t, `Hello|{"lang":"zh"}`, next(t, ha))

	_, hb := dial(t, url)
	assert.Equal(t, `Hello|{"lang":"zh"}`, next(t, hb))

	require.NoError(t, a.WriteMessage(gws.OpcodeText, []byte("Echo|ping")))
	assert.Equal(t, `Echo|"ping"`, next(t, ha))

	// unknown and malformed frames are ignored
	require.NoError(t, a.WriteMessage(gws.OpcodeText, []byte("Nope|x")))
	require.NoError(t, a.WriteMessage(gws.OpcodeText, []byte("no separator")))

	require.Eventually(t, func() bool { return wss.Count() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, wss.Broadcast("News", map[string]int{"n": 1}))
	assert.Equal(t, `News|{"n":1}`, next(t, ha))
	assert.Equal(t, `News|{"n":1}`, next(t, hb))
}

func TestEncodeFrame(t *testing.T) {
	b, err := EncodeFrame("", []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", string(b))

	b, err = EncodeFrame("A", nil)
	require.NoError(t, err)
	assert.Equal(t, "A|null", string(b))
}

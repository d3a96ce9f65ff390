package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/screen-connect-controller/internal/app"
	"github.com/haierkeys/screen-connect-controller/internal/dto"
	"github.com/haierkeys/screen-connect-controller/internal/routers/websocket_router"
	"github.com/haierkeys/screen-connect-controller/pkg/code"
	"github.com/haierkeys/screen-connect-controller/pkg/transport"
	"github.com/haierkeys/screen-connect-controller/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sessionRes struct {
	Code    int            `json:"code"`
	Status  bool           `json:"status"`
	Message string         `json:"message"`
	Data    dto.SessionDTO `json:"data"`
	Details string         `json:"details"`
}

func newTestServer(t *testing.T) (*httptest.Server, *transport.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("controller:\n  display-id: room42\ntransport:\n  type: memory\n"), 0644))
	cfg, _, err := app.LoadConfig(file)
	require.NoError(t, err)
	cfg.Identity.File = filepath.Join(dir, "identity.yaml")

	mem := transport.NewMemory(true)
	a, err := app.NewApp(cfg, zap.NewNop(), app.WithTransport(mem), app.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	a.Start(context.Background())

	uni, err := validator.InstallGin()
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(a, uni))
	t.Cleanup(func() {
		srv.Close()
		_ = a.Shutdown(context.Background())
	})
	return srv, mem
}

func doJSON(t *testing.T, method, url string, body any) (int, sessionRes) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var res sessionRes
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return resp.StatusCode, res
}

func waitBranch(t *testing.T, url, branch string) dto.SessionDTO {
	t.Helper()
	var last dto.SessionDTO
	require.Eventually(t, func() bool {
		_, res := doJSON(t, http.MethodGet, url+"/api/session", nil)
		last = res.Data
		return last.Branch == branch
	}, 3*time.Second, 20*time.Millisecond)
	return last
}

func TestSessionAPI(t *testing.T) {
	srv, mem := newTestServer(t)

	view := waitBranch(t, srv.URL, "name-entry")
	assert.Equal(t, "room42", view.DisplayID)
	assert.False(t, view.CanSubmit)

	// 输入中的名称即使不合法也会保存
	status, res := doJSON(t, http.MethodPut, srv.URL+"/api/session/identifier", dto.SessionIdentifierRequest{Identifier: "a"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, code.SuccessIdentifierSaved.Code(), res.Code)
	assert.Equal(t, "a", res.Data.Identifier)
	assert.False(t, res.Data.ShowError)

	// 不合法的名称不会到达传输层
	status, res = doJSON(t, http.MethodPost, srv.URL+"/api/session/link", dto.SessionLinkRequest{Identifier: "a..b"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, code.ErrorInvalidIdentifier.Code(), res.Code)
	assert.Contains(t, res.Details, "identifier")
	assert.Equal(t, 0, mem.CountCalls("link"))

	_, res = doJSON(t, http.MethodGet, srv.URL+"/api/session", nil)
	assert.Equal(t, "a..b", res.Data.Identifier)
	assert.True(t, res.Data.ShowError)
	assert.NotEmpty(t, res.Data.ValidationError)

	status, res = doJSON(t, http.MethodPost, srv.URL+"/api/session/link", dto.SessionLinkRequest{Identifier: "player.one"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, code.SuccessLinkRequested.Code(), res.Code)

	view = waitBranch(t, srv.URL, "linked")
	assert.Equal(t, "player.one", view.Identifier)
	require.Len(t, mem.Calls(), 2)
	assert.Equal(t, transport.Call{Action: "link", Arg: "c/room42/player.one"}, mem.Calls()[1])

	// 已链接时不能请求断开
	status, res = doJSON(t, http.MethodPost, srv.URL+"/api/session/disconnect", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, code.ErrorNotConnected.Code(), res.Code)
}

func TestSessionAPIDisconnect(t *testing.T) {
	srv, mem := newTestServer(t)
	waitBranch(t, srv.URL, "name-entry")

	status, res := doJSON(t, http.MethodPost, srv.URL+"/api/session/disconnect", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, code.SuccessDisconnectRequested.Code(), res.Code)

	waitBranch(t, srv.URL, "closed")
	assert.Equal(t, 1, mem.CountCalls("disconnect"))
}

func TestSessionAPILang(t *testing.T) {
	srv, _ := newTestServer(t)
	waitBranch(t, srv.URL, "name-entry")

	_, res := doJSON(t, http.MethodPost, srv.URL+"/api/session/link?lang=zh", dto.SessionLinkRequest{Identifier: "-x"})
	assert.Equal(t, code.ErrorInvalidIdentifier.MsgIn("zh"), res.Message)
	assert.Contains(t, res.Details, "只能使用字母")
}

func TestVersionAndNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/version")
	require.NoError(t, err)
	var version struct {
		Code int            `json:"code"`
		Data dto.VersionDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&version))
	resp.Body.Close()
	assert.Equal(t, app.Name, version.Data.Name)
	assert.Equal(t, app.Version, version.Data.Version)

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type frameHandler struct {
	gws.BuiltinEventHandler
	frames chan string
}

func (h *frameHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	h.frames <- message.Data.String()
}

// nextFrame 跳过不满足 match 的帧
func nextFrame(t *testing.T, h *frameHandler, match func(action string, data []byte) bool) []byte {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case f := <-h.frames:
			action, data, _ := strings.Cut(f, "|")
			if match(action, []byte(data)) {
				return []byte(data)
			}
		case <-deadline:
			t.Fatal("expected websocket frame not received")
			return nil
		}
	}
}

func viewBranch(branch string) func(string, []byte) bool {
	return func(action string, data []byte) bool {
		if action != websocket_router.ActionSessionView {
			return false
		}
		var v dto.SessionDTO
		return json.Unmarshal(data, &v) == nil && v.Branch == branch
	}
}

func TestSessionWatch(t *testing.T) {
	srv, mem := newTestServer(t)

	h := &frameHandler{frames: make(chan string, 64)}
	conn, _, err := gws.NewClient(h, &gws.ClientOption{
		Addr: "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/session/watch?lang=zh",
	})
	require.NoError(t, err)
	go conn.ReadLoop()
	defer conn.WriteClose(1000, nil)

	nextFrame(t, h, viewBranch("name-entry"))

	require.NoError(t, conn.WriteMessage(gws.OpcodeText, []byte("IdentifierSet|ada")))
	data := nextFrame(t, h, func(action string, data []byte) bool {
		var v dto.SessionDTO
		return action == websocket_router.ActionSessionView && json.Unmarshal(data, &v) == nil && v.Identifier == "ada"
	})
	assert.Contains(t, string(data), `"canSubmit":true`)

	require.NoError(t, conn.WriteMessage(gws.OpcodeText, []byte("Link|ada")))
	nextFrame(t, h, viewBranch("linked"))
	assert.Equal(t, 1, mem.CountCalls("link"))

	require.NoError(t, conn.WriteMessage(gws.OpcodeText, []byte("Disconnect|")))
	data = nextFrame(t, h, func(action string, _ []byte) bool { return action == websocket_router.ActionError })
	var msg websocket_router.ErrorMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, websocket_router.ActionDisconnect, msg.Action)
	assert.Equal(t, code.ErrorNotConnected.Code(), msg.Code)
	assert.Equal(t, code.ErrorNotConnected.MsgIn("zh"), msg.Message)
}

func TestPrivateRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	release := NewPrivateRouterWithLogger("release", zap.NewNop())
	w := httptest.NewRecorder()
	release.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	release.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memstats")
	var vars map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vars))
	var build map[string]string
	require.NoError(t, json.Unmarshal(vars["controller"], &build))
	assert.Equal(t, app.Version, build["version"])
	assert.NotEmpty(t, build["device"])

	w = httptest.NewRecorder()
	release.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	debug := NewPrivateRouterWithLogger("debug", zap.NewNop())
	w = httptest.NewRecorder()
	debug.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

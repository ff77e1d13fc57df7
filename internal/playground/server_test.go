package playground

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wirec-lang/wirec/internal/watch"
)

const source = `type Point = struct { x: f32, y: f32 }

event Move = { from: Client, type: Unreliable, call: SingleSync, data: Point }
`

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := New(nil, Config{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestRequestID_Reused(t *testing.T) {
	s := New(nil, Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestCompile(t *testing.T) {
	s := New(nil, Config{})
	body, err := json.Marshal(CompileRequest{Name: "net.wire", Source: source})
	require.NoError(t, err)

	rec := post(t, s.Handler(), "/api/compile", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CompileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Diagnostics)
	assert.Len(t, resp.Hash, 64)
	assert.Contains(t, resp.Outputs, "network/server.luau")
	assert.Contains(t, resp.Outputs["network/client.luau"], "Fire = function(value: Point)")
}

func TestCompile_RawText(t *testing.T) {
	s := New(nil, Config{})
	rec := post(t, s.Handler(), "/api/compile", "type A = Missing\n")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OK          bool `json:"ok"`
		Diagnostics []struct {
			Code     string `json:"code"`
			Severity string `json:"severity"`
			File     string `json:"file"`
		} `json:"diagnostics"`
		Outputs map[string]string `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Nil(t, resp.Outputs)

	var codes []string
	for _, d := range resp.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, "SEM200")
}

func TestCompile_BadRequest(t *testing.T) {
	s := New(nil, Config{})
	rec := post(t, s.Handler(), "/api/compile", `{"source": 12}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bad_request", resp.Error)
	assert.NotEmpty(t, resp.RequestID)

	rec = post(t, s.Handler(), "/api/compile", strings.Repeat("x", MaxSourceBytes+1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIR(t *testing.T) {
	s := New(nil, Config{})
	body, err := json.Marshal(CompileRequest{Source: source, Shape: true})
	require.NoError(t, err)

	rec := post(t, s.Handler(), "/api/ir", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp IRResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.OK)
	require.NotNil(t, resp.IR)
	assert.Equal(t, "u8", resp.IR.IDKind)
	require.Len(t, resp.IR.Events, 1)
	assert.Equal(t, "Move", resp.IR.Events[0].Name)
	assert.Empty(t, resp.IR.Events[0].Ser)
	require.Len(t, resp.IR.Types, 1)
	assert.Equal(t, "Point", resp.IR.Types[0].Name)
}

func TestNotFound(t *testing.T) {
	s := New(nil, Config{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/compile", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// no notifier, no build feed
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/builds", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(zap.New(core), Config{})
	post(t, s.Handler(), "/api/compile", source)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/compile", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := RequestID(Recovery(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLive(t *testing.T) {
	s := New(nil, Config{})
	server := httptest.NewServer(s.Handler())
	defer server.Close()
	conn := dial(t, server, "/ws")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(source)))
	var first LiveMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "result", first.Type)
	assert.Equal(t, 1, first.Seq)
	assert.Len(t, first.Session, 36)
	require.NotNil(t, first.CompileResponse)
	assert.True(t, first.OK)
	assert.Contains(t, first.Outputs, "network/server.luau")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"source": `)))
	var second LiveMessage
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "error", second.Type)
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, first.Session, second.Session)
	assert.NotEmpty(t, second.Error)
}

func TestBuildFeed(t *testing.T) {
	notifier := watch.NewNotifier(nil)
	defer notifier.Close()

	s := New(nil, Config{Notifier: notifier})
	server := httptest.NewServer(s.Handler())
	defer server.Close()
	conn := dial(t, server, "/ws/builds")

	require.Eventually(t, func() bool { return notifier.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
	notifier.NotifyBuilding("net.wire", []string{"net.wire"})

	var msg watch.Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, watch.MessageBuilding, msg.Type)
}

func TestServe(t *testing.T) {
	s := New(nil, Config{Addr: "127.0.0.1:0"})
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const adminToken = "test-admin-token"

func testConfig() *config.Config {
	return &config.Config{
		Mode:                "test",
		Secret:              "test-secret",
		ReadLimit:           32768,
		PingPeriod:          time.Minute,
		SendBuffer:          32,
		AdminToken:          adminToken,
		PublishRateLimit:    100,
		PublishRateInterval: time.Second,
	}
}

func newServer(t *testing.T, cfg *config.Config) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomStore(),
		Blocked:  app.NewBlocklist(),
		Policy:   app.DropPolicy{},
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(SetupRouter(ctx, cfg, o))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, o
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func adminDo(t *testing.T, srv *httptest.Server, method, path string) *http.Response {
	t.Helper()
	r, err := http.NewRequest(method, srv.URL+"/api/admin"+path, nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type frame struct {
	Type    string `json:"type"`
	System  bool   `json:"system"`
	Text    string `json:"text"`
	User    string `json:"user"`
	Payload string `json:"payload"`
	Room    string `json:"room"`
	Error   string `json:"error"`
}

func dial(t *testing.T, srv *httptest.Server, jar http.CookieJar) *websocket.Conn {
	t.Helper()
	d := websocket.Dialer{Jar: jar, HandshakeTimeout: 2 * time.Second}
	conn, _, err := d.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if match(f) {
			return f
		}
	}
}

func isType(typ string) func(frame) bool {
	return func(f frame) bool { return f.Type == typ }
}

func join(t *testing.T, conn *websocket.Conn, username, room string) string {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "join", "username": username, "room": room}))
	return readUntil(t, conn, isType("joined")).Room
}

func TestRouter_Health(t *testing.T) {
	req := require.New(t)
	srv, _ := newServer(t, testConfig())

	resp, err := http.Get(srv.URL + "/healthz")
	req.NoError(err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("ok", string(body))
}

func TestRouter_Metrics(t *testing.T) {
	req := require.New(t)
	srv, _ := newServer(t, testConfig())

	resp, err := http.Get(srv.URL + "/metrics")
	req.NoError(err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Contains(string(body), "relay_joins_total")
}

func TestRouter_LoginSessionLogout(t *testing.T) {
	req := require.New(t)
	srv, o := newServer(t, testConfig())
	client := newClient(t)

	resp, err := client.Get(srv.URL + "/api/session")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, err = client.PostForm(srv.URL+"/api/login", url.Values{"username": {"  alice "}, "room": {"ABC123"}})
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/api/session")
	req.NoError(err)
	var sess map[string]string
	decode(t, resp, &sess)
	resp.Body.Close()
	req.Equal("alice", sess["username"])
	req.Equal("ABC123", sess["room"])
	req.NotEmpty(sess["client"])
	req.Empty(o.Rooms.ListRooms(), "login does not create rooms")

	resp, err = client.Post(srv.URL+"/api/logout", "", nil)
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusNoContent, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/api/session")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "RelaySessions" {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func TestRouter_LoginCookieAttributes(t *testing.T) {
	tests := []struct {
		name   string
		secure bool
	}{
		{"plain http", false},
		{"behind tls", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cfg := testConfig()
			cfg.CookieSecure = tt.secure
			srv, _ := newServer(t, cfg)

			resp, err := http.PostForm(srv.URL+"/api/login", url.Values{"username": {"alice"}})
			req.NoError(err)
			resp.Body.Close()

			c := sessionCookie(t, resp)
			req.Equal(tt.secure, c.Secure)
			req.True(c.HttpOnly)
			req.Equal(http.SameSiteLaxMode, c.SameSite)
			req.Equal("/", c.Path)
		})
	}
}

func TestRouter_LoginRejectsBadUsername(t *testing.T) {
	req := require.New(t)
	srv, _ := newServer(t, testConfig())

	for _, name := range []string{"", "   ", strings.Repeat("x", 37)} {
		resp, err := http.PostForm(srv.URL+"/api/login", url.Values{"username": {name}})
		req.NoError(err)
		resp.Body.Close()
		req.Equal(http.StatusBadRequest, resp.StatusCode, "username %q", name)
	}
}

func TestRouter_AdminAuth(t *testing.T) {
	req := require.New(t)
	srv, _ := newServer(t, testConfig())

	resp, err := http.Get(srv.URL + "/api/admin/users")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	r, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/admin/users", nil)
	r.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(r)
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	req.Equal(http.StatusOK, adminDo(t, srv, http.MethodGet, "/users").StatusCode)
}

func TestRouter_AdminDisabledWithoutToken(t *testing.T) {
	req := require.New(t)
	cfg := testConfig()
	cfg.AdminToken = ""
	srv, _ := newServer(t, cfg)

	r, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/admin/users", nil)
	r.Header.Set("Authorization", "Bearer ")
	resp, err := http.DefaultClient.Do(r)
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestRouter_AdminBlockList(t *testing.T) {
	req := require.New(t)
	srv, o := newServer(t, testConfig())

	var changed map[string]any
	decode(t, adminDo(t, srv, http.MethodPost, "/block/mallory"), &changed)
	req.Equal(true, changed["changed"])
	decode(t, adminDo(t, srv, http.MethodPost, "/block/mallory"), &changed)
	req.Equal(false, changed["changed"])

	var blocked []string
	decode(t, adminDo(t, srv, http.MethodGet, "/blocked"), &blocked)
	req.Equal([]string{"mallory"}, blocked)
	req.True(o.Blocked.IsBlocked("mallory"))

	decode(t, adminDo(t, srv, http.MethodDelete, "/block/mallory"), &changed)
	req.Equal(true, changed["changed"])
	decode(t, adminDo(t, srv, http.MethodGet, "/blocked"), &blocked)
	req.Empty(blocked)

	req.Equal(http.StatusNotFound, adminDo(t, srv, http.MethodPost, "/rooms/NOPE00/clear").StatusCode)
}

func TestRouter_RelayEndToEnd(t *testing.T) {
	req := require.New(t)
	srv, o := newServer(t, testConfig())

	// Given alice creates a room and bob joins it by code
	alice := dial(t, srv, nil)
	code := join(t, alice, "alice", "")
	req.NotEmpty(code)
	bob := dial(t, srv, nil)
	req.Equal(code, join(t, bob, "bob", code))
	notice := readUntil(t, alice, func(f frame) bool { return f.System })
	req.Equal("bob joined "+code, notice.Text)

	// When bob publishes
	req.NoError(bob.WriteJSON(map[string]string{"type": "message", "user": "bob", "room": code, "payload": "aGVsbG8="}))

	// Then both receive the chat frame
	for _, c := range []*websocket.Conn{alice, bob} {
		f := readUntil(t, c, func(f frame) bool { return !f.System && f.Type == "message" })
		req.Equal("bob", f.User)
		req.Equal("aGVsbG8=", f.Payload)
		req.Equal(code, f.Room)
	}

	// And the admin views reflect it
	var rooms []struct {
		Code     string `json:"code"`
		Messages []struct {
			Author  string `json:"author"`
			Payload string `json:"payload"`
		} `json:"messages"`
	}
	decode(t, adminDo(t, srv, http.MethodGet, "/rooms"), &rooms)
	req.Len(rooms, 1)
	req.Equal("aGVsbG8=", rooms[0].Messages[0].Payload)

	// Kicking bob notifies the room and keeps the socket open
	resp := adminDo(t, srv, http.MethodPost, "/kick/bob")
	req.Equal(http.StatusOK, resp.StatusCode)
	f := readUntil(t, alice, func(f frame) bool { return f.System && strings.Contains(f.Text, "kicked") })
	req.Equal("bob was kicked by admin", f.Text)
	req.Equal([]domain.Username{"alice"}, o.Rooms.ListRooms()[domain.RoomCode(code)])

	// Clearing the room notifies and empties the history
	req.Equal(http.StatusOK, adminDo(t, srv, http.MethodPost, "/rooms/"+code+"/clear").StatusCode)
	f = readUntil(t, bob, func(f frame) bool { return f.System && strings.Contains(f.Text, "cleared") })
	req.Equal("All messages cleared by admin", f.Text)
	req.Empty(o.Rooms.ListMessages(domain.RoomCode(code)))

	// Ping still answered
	req.NoError(alice.WriteJSON(map[string]string{"type": "ping"}))
	readUntil(t, alice, isType("pong"))
}

func TestRouter_WebSocketJoinUsesLogin(t *testing.T) {
	req := require.New(t)
	srv, o := newServer(t, testConfig())
	host := dial(t, srv, nil)
	code := join(t, host, "alice", "")

	client := newClient(t)
	resp, err := client.PostForm(srv.URL+"/api/login", url.Values{"username": {"carol"}, "room": {code}})
	req.NoError(err)
	resp.Body.Close()

	conn := dial(t, srv, client.Jar)
	req.NoError(conn.WriteJSON(map[string]string{"type": "join"}))
	joined := readUntil(t, conn, isType("joined"))

	req.Equal(code, joined.Room)
	req.Equal([]domain.Username{"alice", "carol"}, o.Rooms.ListRooms()[domain.RoomCode(code)])
}

func TestRouter_DisconnectKeepsParticipant(t *testing.T) {
	req := require.New(t)
	srv, o := newServer(t, testConfig())
	conn := dial(t, srv, nil)
	code := join(t, conn, "alice", "")

	req.NoError(conn.Close())

	req.Eventually(func() bool { return o.Registry.Count() == 0 }, 3*time.Second, 10*time.Millisecond)
	req.Equal([]domain.Username{"alice"}, o.Rooms.ListRooms()[domain.RoomCode(code)])
}

package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/hookpress/internal/config"
	"github.com/soyeahso/hookpress/internal/host"
	"github.com/soyeahso/hookpress/internal/logging"
	"github.com/soyeahso/hookpress/internal/plugins/greeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2026, time.March, 7, 9, 0, 0, 0, time.UTC) }

func testHost(t *testing.T) *host.Host {
	t.Helper()
	cfg := config.Defaults()
	cfg.Store.Path = ":memory:"
	h, err := host.New(context.Background(), cfg, logging.New(nil, "silent"),
		host.WithPlugins(greeting.New(greeting.WithClock(fixedNow))))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close(context.Background()) })
	return h
}

func testServer(t *testing.T, mutate ...func(*config.GatewayConfig)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Defaults().Gateway
	cfg.Auth.Mode = AuthModeToken
	cfg.Auth.Token = "test-token-123"
	for _, m := range mutate {
		m(&cfg)
	}

	srv := New(cfg, testHost(t), logging.New(nil, "silent"), WithVersion("1.2.3"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// connect dials the gateway and completes the handshake with the given token.
func connect(t *testing.T, ts *httptest.Server, token string) (*websocket.Conn, Frame) {
	t.Helper()
	params := ConnectParams{MinProtocol: 1, MaxProtocol: 1, Client: ClientInfo{ID: "test-client"}}
	if token != "" {
		params.Auth = &ConnectAuth{Token: token}
	}
	return connectWith(t, ts, params)
}

func connectWith(t *testing.T, ts *httptest.Server, params ConnectParams) (*websocket.Conn, Frame) {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var challenge Frame
	require.NoError(t, conn.ReadJSON(&challenge))
	require.Equal(t, "connect.challenge", challenge.Event)

	req, err := NewRequest("connect-1", "connect", params)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(req))

	var hello Frame
	require.NoError(t, conn.ReadJSON(&hello))
	return conn, hello
}

// call sends one request and returns its response along with any events
// received before it.
func call(t *testing.T, conn *websocket.Conn, id, method string, params any) (Frame, []Frame) {
	t.Helper()
	req, err := NewRequest(id, method, params)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(req))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	var events []Frame
	for {
		var f Frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == FrameTypeEvent {
			events = append(events, f)
			continue
		}
		require.Equal(t, id, f.ID)
		return f, events
	}
}

func okPayload(t *testing.T, f Frame, dst any) {
	t.Helper()
	require.NotNil(t, f.OK)
	require.True(t, *f.OK, "unexpected error: %+v", f.Error)
	require.NoError(t, json.Unmarshal(f.Payload, dst))
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	// public endpoint only reports status
	assert.Empty(t, health.Version)
}

func TestNotFoundEndpoint(t *testing.T) {
	_, ts := testServer(t)
	status, body := getBody(t, ts.URL+"/nonexistent")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "/nonexistent")
}

func TestPreviewPage(t *testing.T) {
	_, ts := testServer(t, func(c *config.GatewayConfig) { c.Auth = config.GatewayAuth{} })

	status, body := getBody(t, ts.URL+"/preview?content="+"%5Bhello%5D")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<style>")
	assert.Contains(t, body, `<div class="hello-world-greeting">Hello, World!</div>`)
	assert.Contains(t, body, "Today is March 07, 2026")
	assert.Contains(t, body, "Powered by Hello World Plugin")
	assert.Contains(t, body, "new WebSocket", "anonymous gateway serves a live page")
}

func TestPreviewPage_PostAndNoLiveReloadWithAuth(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Post(ts.URL+"/preview", "text/plain", strings.NewReader("<p>post</p>"))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(data), "<p>post</p>\n<div class=\"hello-world-footer\"")
	assert.NotContains(t, string(data), "new WebSocket")
}

func TestShortcodeAndWidgetEndpoints(t *testing.T) {
	_, ts := testServer(t)

	status, body := getBody(t, ts.URL+"/shortcode/hello")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t,
		`<div class="hello-world-greeting">Hello, World!</div><div class="hello-world-date">Today is March 07, 2026</div>`,
		body)

	status, body = getBody(t, ts.URL+"/widget/hello_world")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<p>Hello, World!</p>")

	status, body = getBody(t, ts.URL+"/shortcode/missing")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, CodeNotFound)
}

func TestAPIEndpoints(t *testing.T) {
	_, ts := testServer(t)

	status, body := getBody(t, ts.URL+"/api/plugins")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"id":"hello-world"`)
	assert.Contains(t, body, `"state":"active"`)

	status, body = getBody(t, ts.URL+"/api/hooks")
	assert.Equal(t, http.StatusOK, status)
	var table map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &table))
	assert.Len(t, table["the_content"], 1)
	assert.Len(t, table["shortcode_hello"], 1)

	status, body = getBody(t, ts.URL+"/api/plugins/hello-world/schema")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"greeting_text"`)

	status, body = getBody(t, ts.URL+"/api/plugins/hello-world/settings")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"greeting_text":"Hello, World!"`)

	status, _ = getBody(t, ts.URL+"/api/plugins/nope/settings")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestWebSocketHandshakeSuccess(t *testing.T) {
	_, ts := testServer(t)

	_, helloResp := connect(t, ts, "test-token-123")
	assert.Equal(t, FrameTypeResponse, helloResp.Type)
	assert.Equal(t, "connect-1", helloResp.ID)

	var hello HelloOK
	okPayload(t, helloResp, &hello)
	assert.Equal(t, ProtocolVersion, hello.Protocol)
	assert.Equal(t, "1.2.3", hello.Server.Version)
	assert.NotEmpty(t, hello.Server.ConnID)
	assert.Contains(t, hello.Features.Methods, "render")
	assert.Contains(t, hello.Features.Events, host.EventSettingsChanged)
	assert.Equal(t, maxPayload, hello.Policy.MaxPayload)
}

func TestWebSocketHandshakeBadToken(t *testing.T) {
	srv, ts := testServer(t)

	conn, resp := connect(t, ts, "wrong")
	require.NotNil(t, resp.OK)
	assert.False(t, *resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUnauthorized, resp.Error.Code)
	assert.Equal(t, "token_mismatch", resp.Error.Message)

	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "server closes the connection")
	assert.Eventually(t, func() bool {
		srv.authLimiter.mu.Lock()
		defer srv.authLimiter.mu.Unlock()
		return len(srv.authLimiter.failures["127.0.0.1"]) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, srv.clients.Count())
}

func TestWebSocketHandshakeWrongMethod(t *testing.T) {
	_, ts := testServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer conn.Close()

	var challenge Frame
	require.NoError(t, conn.ReadJSON(&challenge))

	req, err := NewRequest("x", "render", renderParams{Content: "hi"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(req))

	var resp Frame
	require.NoError(t, conn.ReadJSON(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeProtocolError, resp.Error.Code)
}

func TestWebSocketHandshakeProtocolMismatch(t *testing.T) {
	_, ts := testServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer conn.Close()

	var challenge Frame
	require.NoError(t, conn.ReadJSON(&challenge))

	req, err := NewRequest("c", "connect", ConnectParams{
		MinProtocol: 2, MaxProtocol: 3,
		Auth: &ConnectAuth{Token: "test-token-123"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(req))

	var resp Frame
	require.NoError(t, conn.ReadJSON(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeProtocolError, resp.Error.Code)
}

func TestWebSocketRateLimited(t *testing.T) {
	srv, ts := testServer(t)
	for i := 0; i < authRateMaxFails; i++ {
		srv.authLimiter.recordFailure("127.0.0.1:1000")
	}

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestWebSocketAnonymous(t *testing.T) {
	_, ts := testServer(t, func(c *config.GatewayConfig) { c.Auth = config.GatewayAuth{} })

	_, hello := connect(t, ts, "")
	require.NotNil(t, hello.OK)
	assert.True(t, *hello.OK)
}

func TestWebSocketOriginRejected(t *testing.T) {
	_, ts := testServer(t, func(c *config.GatewayConfig) { c.AllowedOrigins = []string{"http://ok.example"} })

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRPCUnknownMethod(t *testing.T) {
	_, ts := testServer(t)
	conn, _ := connect(t, ts, "test-token-123")

	resp, _ := call(t, conn, "r1", "nope", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestRPCHealth(t *testing.T) {
	_, ts := testServer(t)
	conn, _ := connect(t, ts, "test-token-123")

	resp, _ := call(t, conn, "r1", "health", nil)
	var health HealthResponse
	okPayload(t, resp, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.Equal(t, 1, health.Clients)
	assert.Equal(t, 1, health.Plugins)
	assert.Equal(t, 4, health.Handlers)
}

func TestRPCRenderShortcodeWidget(t *testing.T) {
	_, ts := testServer(t)
	conn, _ := connect(t, ts, "test-token-123")

	resp, _ := call(t, conn, "r1", "render", renderParams{Content: "before [hello] after [unknown]"})
	var page renderResult
	okPayload(t, resp, &page)
	assert.Contains(t, page.Head, ".hello-world-greeting")
	assert.Contains(t, page.Body, `before <div class="hello-world-greeting">Hello, World!</div>`)
	assert.Contains(t, page.Body, "after [unknown]")

	resp, _ = call(t, conn, "r2", "shortcode", nameParams{Name: "hello"})
	var frag map[string]string
	okPayload(t, resp, &frag)
	assert.Contains(t, frag["html"], "Hello, World!")

	resp, _ = call(t, conn, "r3", "widget", nameParams{Name: "missing"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)

	resp, _ = call(t, conn, "r4", "shortcode", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestRPCPluginStateBroadcast(t *testing.T) {
	_, ts := testServer(t)
	conn, _ := connect(t, ts, "test-token-123")
	watcher, _ := connect(t, ts, "test-token-123")

	resp, events := call(t, conn, "r1", "plugins.deactivate", pluginParams{Plugin: greeting.ID})
	var state map[string]string
	okPayload(t, resp, &state)
	assert.Equal(t, "inactive", state["state"])
	require.Len(t, events, 1)
	assert.Equal(t, host.EventPluginState, events[0].Event)

	watcher.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev Frame
	require.NoError(t, watcher.ReadJSON(&ev))
	assert.Equal(t, FrameTypeEvent, ev.Type)
	var payload host.Event
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, host.Event{Name: host.EventPluginState, Plugin: greeting.ID, State: "inactive"}, payload)

	resp, _ = call(t, conn, "r2", "hooks.list", hooksParams{Hook: "the_content"})
	var table map[string][]any
	okPayload(t, resp, &table)
	assert.Empty(t, table["the_content"])

	resp, _ = call(t, conn, "r3", "plugins.activate", pluginParams{Plugin: greeting.ID})
	okPayload(t, resp, &state)
	assert.Equal(t, "active", state["state"])

	resp, _ = call(t, conn, "r4", "plugins.activate", pluginParams{Plugin: "nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestEventSubscriptionFilter(t *testing.T) {
	_, ts := testServer(t)
	conn, _ := connect(t, ts, "test-token-123")
	watcher, hello := connectWith(t, ts, ConnectParams{
		MinProtocol: 1, MaxProtocol: 1,
		Client: ClientInfo{ID: "preview"},
		Auth:   &ConnectAuth{Token: "test-token-123"},
		Events: []string{host.EventSettingsChanged},
	})
	require.Nil(t, hello.Error)

	resp, _ := call(t, conn, "r1", "plugins.deactivate", pluginParams{Plugin: greeting.ID})
	require.Nil(t, resp.Error)
	resp, _ = call(t, conn, "r2", "settings.set", settingsSetParams{
		Plugin: greeting.ID, Key: "greeting_text", Value: "Howdy!",
	})
	require.Nil(t, resp.Error)

	watcher.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev Frame
	require.NoError(t, watcher.ReadJSON(&ev))
	assert.Equal(t, host.EventSettingsChanged, ev.Event, "plugin.state is not delivered to a settings-only subscriber")
}

func TestRPCSettings(t *testing.T) {
	_, ts := testServer(t)
	conn, _ := connect(t, ts, "test-token-123")

	resp, events := call(t, conn, "r1", "settings.set", settingsSetParams{
		Plugin: greeting.ID, Key: "greeting_text", Value: "Howdy!",
	})
	var doc struct {
		Plugin   string         `json:"plugin"`
		Settings map[string]any `json:"settings"`
	}
	okPayload(t, resp, &doc)
	assert.Equal(t, "Howdy!", doc.Settings["greeting_text"])
	require.Len(t, events, 1)
	assert.Equal(t, host.EventSettingsChanged, events[0].Event)

	resp, _ = call(t, conn, "r2", "shortcode", nameParams{Name: "hello"})
	var frag map[string]string
	okPayload(t, resp, &frag)
	assert.Contains(t, frag["html"], "Howdy!")

	resp, _ = call(t, conn, "r3", "settings.get", pluginParams{Plugin: greeting.ID})
	okPayload(t, resp, &doc)
	assert.Equal(t, "Howdy!", doc.Settings["greeting_text"])

	resp, _ = call(t, conn, "r4", "settings.set", settingsSetParams{Plugin: greeting.ID, Key: "bogus", Value: 1})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)

	resp, _ = call(t, conn, "r5", "settings.reset", pluginParams{Plugin: greeting.ID})
	okPayload(t, resp, &doc)
	assert.Equal(t, "Hello, World!", doc.Settings["greeting_text"])

	resp, _ = call(t, conn, "r6", "schema.get", pluginParams{Plugin: greeting.ID})
	var schema map[string]any
	okPayload(t, resp, &schema)
	assert.Equal(t, "object", schema["type"])
}

func TestRPCConfigGet(t *testing.T) {
	_, ts := testServer(t)
	conn, _ := connect(t, ts, "test-token-123")

	resp, _ := call(t, conn, "r1", "config.get", configGetParams{Key: "logging.level"})
	var kv map[string]any
	okPayload(t, resp, &kv)
	assert.Equal(t, "info", kv["value"])

	resp, _ = call(t, conn, "r2", "config.get", configGetParams{Key: "gateway.auth.token"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUnauthorized, resp.Error.Code)

	resp, _ = call(t, conn, "r3", "config.get", configGetParams{Key: "store.missing"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)

	resp, _ = call(t, conn, "r4", "config.get", configGetParams{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestRPCConfigReloadWithoutPath(t *testing.T) {
	_, ts := testServer(t)
	conn, _ := connect(t, ts, "test-token-123")

	resp, _ := call(t, conn, "r1", "config.reload", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestServerMethods(t *testing.T) {
	srv, _ := testServer(t)
	methods := srv.Methods()
	assert.IsIncreasing(t, methods)
	for _, m := range []string{"health", "render", "plugins.list", "settings.set", "config.reload"} {
		assert.Contains(t, methods, m)
	}
}

func TestIsReadableConfigPath(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"gateway.port", true},
		{"gateway.bind", true},
		{"gateway.auth", false},
		{"gateway.auth.token", false},
		{"gateway.tls.keyPath", false},
		{"logging.level", true},
		{"store.path", true},
		{"plugins.hello-world.settings", true},
		{"pluginsx", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, isReadableConfigPath(tt.key))
		})
	}
}

func TestResolveBindAddr(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.GatewayConfig
		want string
	}{
		{"loopback", config.GatewayConfig{Port: 8787, Bind: "loopback"}, "127.0.0.1:8787"},
		{"default", config.GatewayConfig{Port: 9000}, "127.0.0.1:9000"},
		{"lan", config.GatewayConfig{Port: 8787, Bind: "lan"}, "0.0.0.0:8787"},
		{"custom", config.GatewayConfig{Port: 8787, Bind: "custom", CustomBindHost: "10.0.0.5"}, "10.0.0.5:8787"},
		{"custom ipv6", config.GatewayConfig{Port: 1, Bind: "custom", CustomBindHost: "::1"}, "[::1]:1"},
		{"custom empty host", config.GatewayConfig{Port: 8787, Bind: "custom"}, "0.0.0.0:8787"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveBindAddr(tt.cfg))
		})
	}
}

func TestStartAndShutdown(t *testing.T) {
	cfg := config.Defaults().Gateway
	cfg.Port = 0
	srv := New(cfg, testHost(t), logging.New(nil, "silent"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		t.Fatalf("start failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}
	require.NotEmpty(t, srv.Addr())

	status, _ := getBody(t, "http://"+srv.Addr()+"/health")
	assert.Equal(t, http.StatusOK, status)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartBadTLS(t *testing.T) {
	cfg := config.Defaults().Gateway
	cfg.Port = 0
	cfg.TLS = config.GatewayTLS{Enabled: true, CertPath: "/nonexistent/cert.pem", KeyPath: "/nonexistent/key.pem"}
	srv := New(cfg, testHost(t), logging.New(nil, "silent"))
	t.Cleanup(srv.Close)

	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS")
}

func TestWebSocketSameOriginPreviewPage(t *testing.T) {
	_, ts := testServer(t, func(c *config.GatewayConfig) { c.Auth = config.GatewayAuth{} })

	header := http.Header{"Origin": []string{ts.URL}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	var challenge Frame
	require.NoError(t, conn.ReadJSON(&challenge))
	assert.Equal(t, "connect.challenge", challenge.Event)
}

func TestPreviewPage_QueryMarkupEscaped(t *testing.T) {
	_, ts := testServer(t)

	status, body := getBody(t, ts.URL+"/preview?content="+url.QueryEscape("<script>alert(1)</script>[hello]"))
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "<script>alert(1)")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, body, `<div class="hello-world-greeting">Hello, World!</div>`)
}

func TestPreviewPage_PostOrigin(t *testing.T) {
	_, ts := testServer(t)

	post := func(origin string) int {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/preview", strings.NewReader("<b>raw</b>"))
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusForbidden, post("http://evil.example"))
	assert.Equal(t, http.StatusOK, post(ts.URL))
}

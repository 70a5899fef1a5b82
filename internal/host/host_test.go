package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soyeahso/hookpress/internal/config"
	"github.com/soyeahso/hookpress/internal/hooks"
	"github.com/soyeahso/hookpress/internal/logging"
	"github.com/soyeahso/hookpress/internal/plugin"
	"github.com/soyeahso/hookpress/internal/plugins/greeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2026, time.March, 7, 9, 0, 0, 0, time.UTC) }

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Store.Path = ":memory:"
	return cfg
}

func newTestHost(t *testing.T, cfg config.Config, opts ...Option) *Host {
	t.Helper()
	opts = append([]Option{WithPlugins(greeting.New(greeting.WithClock(fixedNow)))}, opts...)
	h, err := New(context.Background(), cfg, logging.New(nil, "silent"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close(context.Background()) })
	return h
}

func boolPtr(b bool) *bool { return &b }

func TestNew_ActivatesEnabledPlugins(t *testing.T) {
	h := newTestHost(t, testConfig())

	p := h.Plugins().Get(greeting.ID)
	require.NotNil(t, p)
	assert.Equal(t, plugin.StateActive, p.State())
	assert.Equal(t, 4, h.Hooks().Len())
	assert.NotNil(t, h.Store())
}

func TestNew_DefaultBuiltins(t *testing.T) {
	h, err := New(context.Background(), testConfig(), logging.New(nil, "silent"))
	require.NoError(t, err)
	defer h.Close(context.Background())

	assert.Equal(t, []string{greeting.ID}, h.Plugins().List())
}

func TestNew_DisabledPlugin(t *testing.T) {
	cfg := testConfig()
	cfg.Plugins = map[string]config.PluginConfig{greeting.ID: {Enabled: boolPtr(false)}}
	h := newTestHost(t, cfg)

	assert.Equal(t, plugin.StateInactive, h.Plugins().Get(greeting.ID).State())
	assert.Equal(t, 0, h.Hooks().Len())
}

func TestNew_StoreDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Disabled = true
	h := newTestHost(t, cfg)

	assert.Nil(t, h.Store())
	assert.Equal(t, plugin.StateActive, h.Plugins().Get(greeting.ID).State())

	_, err := h.SetSetting(context.Background(), greeting.ID, "greeting_text", "x")
	assert.ErrorIs(t, err, ErrStoreDisabled)
	assert.ErrorIs(t, h.ResetSettings(context.Background(), greeting.ID), ErrStoreDisabled)
}

func TestNew_DuplicatePlugin(t *testing.T) {
	_, err := New(context.Background(), testConfig(), logging.New(nil, "silent"),
		WithPlugins(greeting.New(), greeting.New()))
	require.Error(t, err)
	assert.ErrorIs(t, err, plugin.ErrAlreadyRegistered)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Level = "loud"
	_, err := New(context.Background(), cfg, logging.New(nil, "silent"))
	require.Error(t, err)
	var ce *config.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestRender(t *testing.T) {
	h := newTestHost(t, testConfig())

	head, body := h.Render(context.Background(), "<p>Post</p>")
	assert.Contains(t, head, "<style>")
	assert.Contains(t, head, ".hello-world-greeting")
	assert.Regexp(t, `^<p>Post</p>\n<div class="hello-world-footer"`, body)
}

func TestRender_ExpandsShortcodes(t *testing.T) {
	h := newTestHost(t, testConfig())

	_, body := h.Render(context.Background(), "A [hello] B [unknown]")
	assert.Contains(t, body, `A <div class="hello-world-greeting">Hello, World!</div>`)
	assert.Contains(t, body, "Today is March 07, 2026")
	assert.Contains(t, body, "B [unknown]")
}

func TestShortcodeAndWidget(t *testing.T) {
	h := newTestHost(t, testConfig())
	ctx := context.Background()

	out, ok := h.Shortcode(ctx, "hello")
	assert.True(t, ok)
	assert.Contains(t, out, "Hello, World!")

	_, ok = h.Shortcode(ctx, "nope")
	assert.False(t, ok)

	out, ok = h.Widget(ctx, "hello_world")
	assert.True(t, ok)
	assert.Contains(t, out, "hello-world-widget")

	_, ok = h.Widget(ctx, "nope")
	assert.False(t, ok)
}

func TestConfigSettingsApplied(t *testing.T) {
	cfg := testConfig()
	cfg.Plugins = map[string]config.PluginConfig{
		greeting.ID: {Settings: map[string]any{"greeting_text": "Hi there", "show_date": false}},
	}
	h := newTestHost(t, cfg)

	out, _ := h.Shortcode(context.Background(), "hello")
	assert.Equal(t, `<div class="hello-world-greeting">Hi there</div>`, out)
}

func TestApply_TogglesPlugins(t *testing.T) {
	h := newTestHost(t, testConfig())
	ctx := context.Background()

	off := testConfig()
	off.Plugins = map[string]config.PluginConfig{greeting.ID: {Enabled: boolPtr(false)}}
	require.NoError(t, h.Apply(ctx, off))
	assert.Equal(t, 0, h.Hooks().Len())
	assert.Equal(t, plugin.StateInactive, h.Plugins().Get(greeting.ID).State())

	require.NoError(t, h.Apply(ctx, testConfig()))
	assert.Equal(t, 4, h.Hooks().Len())
	assert.Equal(t, plugin.StateActive, h.Plugins().Get(greeting.ID).State())
}

func TestApply_RemovedSettingsFallBackToDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.Plugins = map[string]config.PluginConfig{
		greeting.ID: {Settings: map[string]any{"greeting_text": "Hi"}},
	}
	h := newTestHost(t, cfg)

	require.NoError(t, h.Apply(context.Background(), testConfig()))
	out, _ := h.Shortcode(context.Background(), "hello")
	assert.Contains(t, out, "Hello, World!")
}

func TestSetSetting(t *testing.T) {
	h := newTestHost(t, testConfig())
	ctx := context.Background()

	doc, err := h.SetSetting(ctx, greeting.ID, "greeting_text", "Howdy!")
	require.NoError(t, err)
	assert.Equal(t, "Howdy!", doc["greeting_text"])
	assert.Equal(t, true, doc["show_date"])

	out, _ := h.Shortcode(ctx, "hello")
	assert.Contains(t, out, "Howdy!", "active handlers are refreshed")
	assert.Equal(t, 4, h.Hooks().Len())

	got, err := h.Settings(ctx, greeting.ID)
	require.NoError(t, err)
	assert.Equal(t, "Howdy!", got["greeting_text"])

	rec, err := h.Store().Get(ctx, greeting.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Version)
}

func TestSetSetting_Errors(t *testing.T) {
	h := newTestHost(t, testConfig())
	ctx := context.Background()

	_, err := h.SetSetting(ctx, greeting.ID, "colour", "red")
	assert.ErrorContains(t, err, `no setting "colour"`)

	_, err = h.SetSetting(ctx, greeting.ID, "show_date", map[string]any{"x": 1})
	assert.Error(t, err)

	_, err = h.SetSetting(ctx, "missing", "greeting_text", "x")
	assert.ErrorIs(t, err, plugin.ErrNotFound)

	got, err := h.Settings(ctx, greeting.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", got["greeting_text"])
}

func TestResetSettings(t *testing.T) {
	cfg := testConfig()
	cfg.Plugins = map[string]config.PluginConfig{
		greeting.ID: {Settings: map[string]any{"show_date": false}},
	}
	h := newTestHost(t, cfg)
	ctx := context.Background()

	_, err := h.SetSetting(ctx, greeting.ID, "greeting_text", "Howdy!")
	require.NoError(t, err)
	require.NoError(t, h.ResetSettings(ctx, greeting.ID))

	out, _ := h.Shortcode(ctx, "hello")
	assert.Equal(t, `<div class="hello-world-greeting">Hello, World!</div>`, out, "defaults overlaid with config")

	rec, err := h.Store().Get(ctx, greeting.ID)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPersistedSettingsSurviveRestart(t *testing.T) {
	cfg := config.Defaults()
	cfg.Store.Path = filepath.Join(t.TempDir(), "hookpress.db")
	ctx := context.Background()

	h, err := New(ctx, cfg, logging.New(nil, "silent"))
	require.NoError(t, err)
	_, err = h.SetSetting(ctx, greeting.ID, "greeting_text", "Stored")
	require.NoError(t, err)
	require.NoError(t, h.Close(ctx))

	h2, err := New(ctx, cfg, logging.New(nil, "silent"))
	require.NoError(t, err)
	defer h2.Close(ctx)

	out, _ := h2.Shortcode(ctx, "hello")
	assert.Contains(t, out, "Stored")
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  path: \":memory:\"\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	h := newTestHost(t, cfg, WithConfigPath(path))

	yaml := "store:\n  path: \":memory:\"\nplugins:\n  hello-world:\n    settings:\n      greeting_text: Reloaded\n      show_date: false\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	out, _ := h.Shortcode(context.Background(), "hello")
	assert.Equal(t, `<div class="hello-world-greeting">Reloaded</div>`, out)
	assert.Equal(t, "Reloaded", h.Config().Plugin(greeting.ID).Settings["greeting_text"])
}

func TestReload_NoPath(t *testing.T) {
	h := newTestHost(t, testConfig())
	assert.Error(t, h.Reload(context.Background()))
	assert.Error(t, h.Watch(context.Background()))
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  path: \":memory:\"\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	h := newTestHost(t, cfg, WithConfigPath(path), WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	yaml := "store:\n  path: \":memory:\"\nplugins:\n  hello-world:\n    enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	assert.Eventually(t, func() bool {
		return h.Hooks().Count(hooks.HookContent) == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestClose(t *testing.T) {
	h, err := New(context.Background(), testConfig(), logging.New(nil, "silent"))
	require.NoError(t, err)

	require.NoError(t, h.Close(context.Background()))
	assert.Equal(t, 0, h.Hooks().Len())
	assert.Equal(t, plugin.StateInactive, h.Plugins().Get(greeting.ID).State())

	require.NoError(t, h.Close(context.Background()), "second close is a no-op")
	assert.Error(t, h.Apply(context.Background(), testConfig()))
}

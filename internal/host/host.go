// Package host wires the hook registry, plugin lifecycle and settings
// persistence together and renders content through the registered hooks.
package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/hookpress/internal/config"
	"github.com/soyeahso/hookpress/internal/hooks"
	"github.com/soyeahso/hookpress/internal/logging"
	"github.com/soyeahso/hookpress/internal/plugin"
	"github.com/soyeahso/hookpress/internal/plugins/greeting"
	"github.com/soyeahso/hookpress/internal/store"
)

var _ plugin.SettingsRepository = (*store.SettingsStore)(nil)

// ErrStoreDisabled is returned by settings operations when persistence is off.
var ErrStoreDisabled = errors.New("settings store disabled")

var errHostClosed = errors.New("host closed")

// Host owns the registries of a running hookpress instance.
type Host struct {
	log     *logging.Logger
	hooks   *hooks.Registry
	plugins *plugin.Registry
	db      *store.DB
	repo    *store.SettingsStore

	configPath string
	debounce   time.Duration
	builtins   []plugin.Plugin

	mu     sync.Mutex // serializes Apply, Reload, settings changes and Close
	cfg    config.Config
	closed bool

	subs subscribers
}

// Option configures a Host.
type Option func(*Host)

// WithConfigPath sets the file Reload and Watch read from.
func WithConfigPath(path string) Option {
	return func(h *Host) { h.configPath = path }
}

// WithPlugins replaces the built-in plugin set.
func WithPlugins(plugins ...plugin.Plugin) Option {
	return func(h *Host) { h.builtins = plugins }
}

// WithDebounce sets how long Watch waits after the last config change
// before reloading.
func WithDebounce(d time.Duration) Option {
	return func(h *Host) { h.debounce = d }
}

// DefaultDebounce is the Watch debounce used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// New builds a host from cfg: it opens the settings store, registers the
// plugins, seeds their settings from cfg, runs startup and activates every
// enabled plugin. A plugin that fails to activate is logged and left
// inactive; the host still comes up.
func New(ctx context.Context, cfg config.Config, log *logging.Logger, opts ...Option) (*Host, error) {
	h := &Host{
		log:      log.Sub("host"),
		debounce: DefaultDebounce,
	}
	for _, o := range opts {
		o(h)
	}
	if h.builtins == nil {
		h.builtins = []plugin.Plugin{greeting.New()}
	}

	var repo plugin.SettingsRepository
	if !cfg.Store.Disabled {
		path, err := storePath(cfg)
		if err != nil {
			return nil, err
		}
		db, err := store.Open(path, log)
		if err != nil {
			return nil, fmt.Errorf("opening settings store: %w", err)
		}
		h.db = db
		h.repo = store.NewSettingsStore(db)
		repo = h.repo
	}

	h.hooks = hooks.NewRegistry(log)
	h.plugins = plugin.NewRegistry(h.hooks, repo, log)

	for _, p := range h.builtins {
		if err := h.plugins.Register(p); err != nil {
			h.closeStore()
			return nil, err
		}
	}

	if err := h.plugins.StartupAll(ctx); err != nil {
		h.closeStore()
		return nil, err
	}

	if err := h.Apply(ctx, cfg); err != nil {
		h.plugins.ShutdownAll(ctx)
		h.closeStore()
		return nil, err
	}

	h.log.Info().
		Int("plugins", h.plugins.Count()).
		Int("handlers", h.hooks.Len()).
		Msg("host ready")
	return h, nil
}

func storePath(cfg config.Config) (string, error) {
	if cfg.Store.Path != "" {
		return cfg.Store.Path, nil
	}
	paths, err := config.ResolvePaths()
	if err != nil {
		return "", fmt.Errorf("resolving paths: %w", err)
	}
	return paths.DefaultDB(), nil
}

// Apply resets plugin settings to their defaults overlaid with cfg and brings every plugin to the state
// cfg asks for. Enabled plugins are (re-)activated, so handlers pick up the
// current settings; disabled plugins that are active are deactivated.
// Activation failures are logged and do not stop the remaining plugins.
func (h *Host) Apply(ctx context.Context, cfg config.Config) error {
	if err := h.apply(ctx, cfg); err != nil {
		return err
	}
	h.emit(Event{Name: EventConfigApplied})
	return nil
}

func (h *Host) apply(ctx context.Context, cfg config.Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errHostClosed
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		msgs := make([]string, len(issues))
		for i, is := range issues {
			msgs[i] = is.String()
		}
		return &config.ConfigError{Message: strings.Join(msgs, "; ")}
	}

	for _, id := range h.plugins.List() {
		p := h.plugins.Get(id)
		pc := cfg.Plugin(id)

		if c, ok := p.(plugin.Configurable); ok {
			c.ResetSettings()
			if err := c.ApplyConfig(pc.Settings); err != nil {
				h.log.Error().Err(err).Str("id", id).Msg("invalid plugin settings in config")
			}
		}

		if !pc.IsEnabled() {
			if p.State() == plugin.StateActive {
				if err := h.plugins.Deactivate(ctx, id); err != nil {
					h.log.Error().Err(err).Str("id", id).Msg("deactivate failed")
				}
			}
			continue
		}

		// activation failures are already logged by the plugin registry
		_ = h.plugins.Activate(ctx, id)
	}

	h.cfg = cfg
	return nil
}

// Reload re-reads the config file and applies it.
func (h *Host) Reload(ctx context.Context) error {
	if h.configPath == "" {
		return errors.New("no config path")
	}
	cfg, err := config.Load(h.configPath)
	if err != nil {
		return err
	}
	h.log.Info().Str("path", h.configPath).Msg("reloading config")
	return h.Apply(ctx, cfg)
}

// Config returns the configuration last applied.
func (h *Host) Config() config.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

// Hooks returns the shared hook registry.
func (h *Host) Hooks() *hooks.Registry { return h.hooks }

// Plugins returns the plugin lifecycle registry.
func (h *Host) Plugins() *plugin.Registry { return h.plugins }

// Store returns the settings store, or nil when persistence is disabled.
func (h *Host) Store() *store.SettingsStore { return h.repo }

// Close deactivates and shuts down every plugin, then closes the store.
// Closing twice is a no-op.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	h.plugins.DeactivateAll(ctx)
	h.plugins.ShutdownAll(ctx)
	h.log.Info().Int("handlers", h.hooks.Len()).Msg("host stopped")
	return h.closeStore()
}

func (h *Host) closeStore() error {
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

// Package greeting implements the built-in Hello World plugin: a [hello]
// shortcode, a greeting widget, a head stylesheet and a content footer.
package greeting

import (
	"context"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/soyeahso/hookpress/internal/hooks"
	"github.com/soyeahso/hookpress/internal/plugin"
	"github.com/soyeahso/hookpress/internal/settings"
)

// ID is the plugin id, also used as its settings storage key.
const ID = "hello-world"

var info = plugin.MustInfo(ID, "Hello World", "1.0.0").
	WithDescription("A simple example plugin that adds a greeting shortcode and widget").
	WithAuthor("hookpress")

// Plugin is the Hello World plugin.
type Plugin struct {
	plugin.Lifecycle

	settings *settings.Store[Settings]
	now      func() time.Time
}

var _ plugin.Configurable = (*Plugin)(nil)

// Option configures a Plugin.
type Option func(*Plugin)

// WithClock overrides the clock used for the shortcode date.
func WithClock(now func() time.Time) Option {
	return func(p *Plugin) { p.now = now }
}

// New creates an inactive plugin with default settings.
func New(opts ...Option) *Plugin {
	p := &Plugin{
		settings: settings.New(DefaultSettings()),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Info returns the plugin identity.
func (p *Plugin) Info() plugin.Info { return info }

// Settings returns a copy of the current settings.
func (p *Plugin) Settings() Settings { return p.settings.Read() }

// UpdateSettings replaces the current settings. Handlers registered by an
// earlier activation keep the settings they were registered with.
func (p *Plugin) UpdateSettings(s Settings) { p.settings.Write(s) }

// CurrentSettings returns a copy of the current settings.
func (p *Plugin) CurrentSettings() any { return p.Settings() }

// ResetSettings restores DefaultSettings.
func (p *Plugin) ResetSettings() { p.settings.Write(DefaultSettings()) }

// ApplyConfig overlays settings from the host configuration file.
func (p *Plugin) ApplyConfig(raw map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	return p.settings.Update(func(s *Settings) error {
		merged, err := mergeRaw(*s, raw)
		if err != nil {
			return fmt.Errorf("decode %s settings: %w", ID, err)
		}
		*s = merged
		return nil
	})
}

// Activate loads persisted settings when a settings repository is available,
// then registers the plugin's handlers with a snapshot of the settings. The
// loaded settings replace the current ones only if registration succeeds.
func (p *Plugin) Activate(ctx context.Context, api plugin.API) error {
	log := api.Logger()
	log.Info().Msg("activating Hello World plugin")

	snapshot, version := p.settings.Snapshot()
	loaded := false
	if api.Settings != nil {
		var stored Settings
		found, err := api.Settings.Load(ctx, ID, &stored)
		if err != nil {
			return &plugin.ActivationError{Plugin: ID, Err: fmt.Errorf("load settings: %w", err)}
		}
		if found {
			snapshot, loaded = stored, true
		}
	}

	if api.Hooks == nil {
		log.Warn().Msg("hook registry unavailable, no handlers registered")
	}

	err := p.Lifecycle.Activate(api.Hooks, ID, func(g *hooks.Group) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.AddFilter(HookShortcode, hooks.PriorityDefault, shortcodeFilter{settings: snapshot, now: p.now})
		g.AddFilter(HookWidget, hooks.PriorityDefault, widgetFilter{settings: snapshot})
		g.AddAction(hooks.HookHead, hooks.PriorityDefault, headStyleAction{settings: snapshot})
		g.AddFilter(hooks.HookContent, hooks.PriorityLast, footerFilter{})
		return nil
	})
	if err != nil {
		return &plugin.ActivationError{Plugin: ID, Err: err}
	}
	// persisted settings become current only once their handlers are live
	if loaded {
		p.settings.Write(snapshot)
		version = p.settings.Version()
	}

	log.Info().
		Int("handlers", p.Registered()).
		Uint64("settings_version", version).
		Msg("Hello World plugin activated")
	return nil
}

// Deactivate removes the handlers registered by the last activation.
func (p *Plugin) Deactivate(_ context.Context, api plugin.API) error {
	removed := p.Lifecycle.Deactivate()
	api.Logger().Info().Int("handlers", removed).Msg("Hello World plugin deactivated")
	return nil
}

// OnStartup has nothing to set up.
func (p *Plugin) OnStartup(_ context.Context, api plugin.API) error {
	api.Logger().Debug().Msg("Hello World plugin startup")
	return nil
}

// OnShutdown has nothing to release.
func (p *Plugin) OnShutdown(_ context.Context, api plugin.API) error {
	api.Logger().Debug().Msg("Hello World plugin shutdown")
	return nil
}

// ConfigSchema describes Settings for a settings UI.
func (p *Plugin) ConfigSchema() *jsonschema.Schema { return configSchema() }

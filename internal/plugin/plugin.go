// Package plugin provides the plugin interface and lifecycle management for hookpress.
package plugin

import (
	"context"

	"github.com/invopop/jsonschema"
	"github.com/soyeahso/hookpress/internal/hooks"
	"github.com/soyeahso/hookpress/internal/logging"
)

// Plugin is the interface that all hookpress plugins must implement.
type Plugin interface {
	// Info returns the plugin's immutable identity.
	Info() Info

	// State reports whether the plugin's hook handlers are currently registered.
	State() State

	// Activate registers the plugin's hook handlers. A failed activation
	// leaves no handlers behind and does not change State.
	Activate(ctx context.Context, api API) error

	// Deactivate removes every handler registered by the last activation.
	Deactivate(ctx context.Context, api API) error

	// OnStartup and OnShutdown set up and release resources unrelated to
	// hook registration. They are called regardless of activation state.
	OnStartup(ctx context.Context, api API) error
	OnShutdown(ctx context.Context, api API) error

	// ConfigSchema describes the plugin's settings for a settings UI.
	// Returns nil if the plugin has nothing to configure.
	ConfigSchema() *jsonschema.Schema
}

// Configurable is implemented by plugins whose settings can be seeded from
// the host configuration file and edited by the host.
type Configurable interface {
	Plugin

	// ApplyConfig overlays loosely typed settings onto the current ones.
	// Keys absent from raw are left unchanged; a decoding error leaves the
	// settings untouched.
	ApplyConfig(raw map[string]any) error

	// CurrentSettings returns a copy of the settings the next activation
	// would snapshot.
	CurrentSettings() any

	// ResetSettings restores the plugin's default settings.
	ResetSettings()
}

// SettingsRepository loads and saves persisted plugin settings.
type SettingsRepository interface {
	// Load decodes the stored settings for pluginID into dst.
	// Returns false if nothing has been stored yet.
	Load(ctx context.Context, pluginID string, dst any) (bool, error)

	// Save stores v as the settings for pluginID.
	Save(ctx context.Context, pluginID string, v any) error
}

// API is the set of host services exposed to plugins. A nil field means the
// service is not available and plugins must skip whatever depends on it.
type API struct {
	Hooks    *hooks.Registry
	Settings SettingsRepository
	Log      *logging.Logger
}

// Logger returns the API logger, or a disabled one if none was provided.
func (a API) Logger() *logging.Logger {
	if a.Log == nil {
		return logging.New(nil, "silent")
	}
	return a.Log
}

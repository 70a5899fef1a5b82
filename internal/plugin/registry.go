package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/hookpress/internal/hooks"
	"github.com/soyeahso/hookpress/internal/logging"
)

// Registry manages plugin lifecycle.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]Plugin
	order    []string // insertion order for deterministic lifecycle
	hooks    *hooks.Registry
	settings SettingsRepository
	log      *logging.Logger
}

// NewRegistry creates a plugin registry. hr and repo may be nil; plugins
// then see those services as absent.
func NewRegistry(hr *hooks.Registry, repo SettingsRepository, log *logging.Logger) *Registry {
	return &Registry{
		plugins:  make(map[string]Plugin),
		hooks:    hr,
		settings: repo,
		log:      log.Sub("plugins"),
	}
}

// Register adds a plugin to the registry without starting or activating it.
func (r *Registry) Register(p Plugin) error {
	info := p.Info()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[info.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, info.ID)
	}

	r.plugins[info.ID] = p
	r.order = append(r.order, info.ID)

	r.log.Info().
		Str("id", info.ID).
		Str("name", info.Name).
		Str("version", info.VersionString()).
		Msg("plugin registered")

	return nil
}

// API returns the service context handed to the plugin with the given id.
func (r *Registry) API(id string) API {
	return API{
		Hooks:    r.hooks,
		Settings: r.settings,
		Log:      r.log.Sub(id),
	}
}

// ordered returns the plugins in registration order, or reversed.
// Lifecycle calls run on this copy so plugins may call back into the registry.
func (r *Registry) ordered(reverse bool) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.plugins[id])
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// StartupAll calls OnStartup on every plugin in registration order and
// stops at the first failure.
func (r *Registry) StartupAll(ctx context.Context) error {
	for _, p := range r.ordered(false) {
		id := p.Info().ID
		r.log.Debug().Str("id", id).Msg("starting plugin")
		if err := p.OnStartup(ctx, r.API(id)); err != nil {
			return fmt.Errorf("startup plugin %s: %w", id, err)
		}
	}
	return nil
}

// ActivateAll activates every plugin in registration order and stops at the
// first failure. Plugins activated before the failure stay active.
func (r *Registry) ActivateAll(ctx context.Context) error {
	for _, p := range r.ordered(false) {
		if err := r.activate(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Activate activates a single plugin by id.
func (r *Registry) Activate(ctx context.Context, id string) error {
	p := r.Get(id)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.activate(ctx, p)
}

func (r *Registry) activate(ctx context.Context, p Plugin) error {
	id := p.Info().ID
	r.log.Info().Str("id", id).Msg("activating plugin")
	if err := p.Activate(ctx, r.API(id)); err != nil {
		r.log.Error().Err(err).Str("id", id).Msg("plugin activation failed")
		return fmt.Errorf("activate plugin %s: %w", id, err)
	}
	return nil
}

// Deactivate deactivates a single plugin by id.
func (r *Registry) Deactivate(ctx context.Context, id string) error {
	p := r.Get(id)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.log.Info().Str("id", id).Msg("deactivating plugin")
	if err := p.Deactivate(ctx, r.API(id)); err != nil {
		return fmt.Errorf("deactivate plugin %s: %w", id, err)
	}
	return nil
}

// DeactivateAll deactivates every active plugin in reverse registration order.
// Errors are logged and do not stop the remaining plugins.
func (r *Registry) DeactivateAll(ctx context.Context) {
	for _, p := range r.ordered(true) {
		if p.State() != StateActive {
			continue
		}
		id := p.Info().ID
		r.log.Info().Str("id", id).Msg("deactivating plugin")
		if err := p.Deactivate(ctx, r.API(id)); err != nil {
			r.log.Error().Err(err).Str("id", id).Msg("plugin deactivate error")
		}
	}
}

// ShutdownAll calls OnShutdown on every plugin in reverse registration order.
// Errors are logged and do not stop the remaining plugins.
func (r *Registry) ShutdownAll(ctx context.Context) {
	for _, p := range r.ordered(true) {
		id := p.Info().ID
		r.log.Debug().Str("id", id).Msg("shutting down plugin")
		if err := p.OnShutdown(ctx, r.API(id)); err != nil {
			r.log.Error().Err(err).Str("id", id).Msg("plugin shutdown error")
		}
	}
}

// Get returns a plugin by ID, or nil if not found.
func (r *Registry) Get(id string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins[id]
}

// List returns all registered plugin IDs in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Info returns summary information about all registered plugins.
func (r *Registry) Info() []Summary {
	plugins := r.ordered(false)
	infos := make([]Summary, 0, len(plugins))
	for _, p := range plugins {
		info := p.Info()
		infos = append(infos, Summary{
			ID:          info.ID,
			Name:        info.Name,
			Version:     info.VersionString(),
			Description: info.Description,
			Author:      info.Author,
			State:       p.State().String(),
		})
	}
	return infos
}

// Summary holds summary data about a plugin.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	State       string `json:"state"`
}

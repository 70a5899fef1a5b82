package host

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soyeahso/hookpress/internal/plugin"
)

func (h *Host) configurable(id string) (plugin.Configurable, error) {
	p := h.plugins.Get(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", plugin.ErrNotFound, id)
	}
	c, ok := p.(plugin.Configurable)
	if !ok {
		return nil, fmt.Errorf("plugin %s has no settings", id)
	}
	return c, nil
}

// Settings returns the effective settings of a plugin: the persisted
// document when one exists, otherwise the plugin's in-memory settings.
func (h *Host) Settings(ctx context.Context, id string) (map[string]any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settings(ctx, id)
}

func (h *Host) settings(ctx context.Context, id string) (map[string]any, error) {
	c, err := h.configurable(id)
	if err != nil {
		return nil, err
	}
	if h.repo != nil {
		doc := map[string]any{}
		found, err := h.repo.Load(ctx, id, &doc)
		if err != nil {
			return nil, err
		}
		if found {
			return doc, nil
		}
	}
	return toMap(c.CurrentSettings())
}

// SetSetting changes one setting of a plugin, persists the result and
// re-activates the plugin if it is active so its handlers see the change.
func (h *Host) SetSetting(ctx context.Context, id, key string, value any) (map[string]any, error) {
	doc, err := h.setSetting(ctx, id, key, value)
	if err != nil {
		return nil, err
	}
	h.emit(Event{Name: EventSettingsChanged, Plugin: id})
	return doc, nil
}

func (h *Host) setSetting(ctx context.Context, id, key string, value any) (map[string]any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.repo == nil {
		return nil, ErrStoreDisabled
	}
	c, err := h.configurable(id)
	if err != nil {
		return nil, err
	}
	if schema := c.ConfigSchema(); schema != nil && schema.Properties != nil {
		if _, ok := schema.Properties.Get(key); !ok {
			return nil, fmt.Errorf("plugin %s has no setting %q", id, key)
		}
	}

	doc, err := h.settings(ctx, id)
	if err != nil {
		return nil, err
	}
	doc[key] = value
	if err := c.ApplyConfig(doc); err != nil {
		return nil, fmt.Errorf("invalid value for %s: %w", key, err)
	}

	current := c.CurrentSettings()
	if err := h.repo.Save(ctx, id, current); err != nil {
		return nil, err
	}
	h.log.Info().Str("id", id).Str("key", key).Msg("setting updated")

	if err := h.refresh(ctx, c); err != nil {
		return nil, err
	}
	return toMap(current)
}

// ResetSettings drops the persisted settings of a plugin and restores its
// defaults overlaid with the config file settings.
func (h *Host) ResetSettings(ctx context.Context, id string) error {
	if err := h.resetSettings(ctx, id); err != nil {
		return err
	}
	h.emit(Event{Name: EventSettingsChanged, Plugin: id})
	return nil
}

func (h *Host) resetSettings(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.repo == nil {
		return ErrStoreDisabled
	}
	c, err := h.configurable(id)
	if err != nil {
		return err
	}
	if _, err := h.repo.Delete(ctx, id); err != nil {
		return err
	}

	c.ResetSettings()
	if err := c.ApplyConfig(h.cfg.Plugin(id).Settings); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("invalid plugin settings in config")
	}
	h.log.Info().Str("id", id).Msg("settings reset")
	return h.refresh(ctx, c)
}

// refresh re-activates an active plugin so new handlers capture its
// current settings.
func (h *Host) refresh(ctx context.Context, p plugin.Plugin) error {
	if p.State() != plugin.StateActive {
		return nil
	}
	return h.plugins.Activate(ctx, p.Info().ID)
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

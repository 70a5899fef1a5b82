package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is the persisted settings document of one plugin.
type Record struct {
	PluginID  string          `json:"pluginId"`
	Data      json.RawMessage `json:"data"`
	Version   int             `json:"version"`
	Revision  string          `json:"revision"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// SettingsStore implements plugin.SettingsRepository backed by SQLite.
// Settings are stored as JSON documents keyed by plugin id; every save bumps
// the version and is appended to the history table under a fresh revision id.
type SettingsStore struct {
	db  *DB
	now func() time.Time
}

// NewSettingsStore creates a settings store using the given database.
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db, now: time.Now}
}

// Load decodes the stored settings for pluginID into dst. It reports false
// with no error when nothing has been saved for the plugin.
func (s *SettingsStore) Load(ctx context.Context, pluginID string, dst any) (bool, error) {
	rec, err := s.Get(ctx, pluginID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	if err := json.Unmarshal(rec.Data, dst); err != nil {
		return false, fmt.Errorf("decoding settings for %s: %w", pluginID, err)
	}
	return true, nil
}

// Get returns the stored record for pluginID, or nil if none exists.
func (s *SettingsStore) Get(ctx context.Context, pluginID string) (*Record, error) {
	var rec Record
	var data, updatedAt string
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT plugin_id, data, version, revision, updated_at
		 FROM plugin_settings WHERE plugin_id = ?`, pluginID,
	).Scan(&rec.PluginID, &data, &rec.Version, &rec.Revision, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings for %s: %w", pluginID, err)
	}
	rec.Data = json.RawMessage(data)
	rec.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return &rec, nil
}

// Save encodes v as JSON and stores it as the current settings of pluginID.
func (s *SettingsStore) Save(ctx context.Context, pluginID string, v any) error {
	_, err := s.SaveRecord(ctx, pluginID, v)
	return err
}

// SaveRecord is Save returning the stored record.
func (s *SettingsStore) SaveRecord(ctx context.Context, pluginID string, v any) (*Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding settings for %s: %w", pluginID, err)
	}

	rec := &Record{
		PluginID:  pluginID,
		Data:      data,
		Revision:  uuid.New().String(),
		UpdatedAt: s.now().UTC().Truncate(time.Second),
	}
	ts := rec.UpdatedAt.Format(time.DateTime)

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save %s: %w", pluginID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO plugin_settings (plugin_id, data, version, revision, updated_at)
		 VALUES (?, ?, 1, ?, ?)
		 ON CONFLICT(plugin_id) DO UPDATE SET
			data = excluded.data,
			version = plugin_settings.version + 1,
			revision = excluded.revision,
			updated_at = excluded.updated_at`,
		pluginID, string(data), rec.Revision, ts,
	); err != nil {
		return nil, fmt.Errorf("saving settings for %s: %w", pluginID, err)
	}

	if err := tx.QueryRowContext(ctx,
		"SELECT version FROM plugin_settings WHERE plugin_id = ?", pluginID,
	).Scan(&rec.Version); err != nil {
		return nil, fmt.Errorf("reading settings version for %s: %w", pluginID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO plugin_settings_history (revision, plugin_id, data, version, saved_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Revision, pluginID, string(data), rec.Version, ts,
	); err != nil {
		return nil, fmt.Errorf("recording settings history for %s: %w", pluginID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save %s: %w", pluginID, err)
	}

	s.db.log.Debug().
		Str("plugin", pluginID).
		Int("version", rec.Version).
		Str("revision", rec.Revision).
		Msg("settings saved")
	return rec, nil
}

// Delete removes the current settings of pluginID. History is kept.
// It reports whether a row was removed.
func (s *SettingsStore) Delete(ctx context.Context, pluginID string) (bool, error) {
	res, err := s.db.sql.ExecContext(ctx, "DELETE FROM plugin_settings WHERE plugin_id = ?", pluginID)
	if err != nil {
		return false, fmt.Errorf("deleting settings for %s: %w", pluginID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns the current settings of every plugin, ordered by plugin id.
func (s *SettingsStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT plugin_id, data, version, revision, updated_at
		 FROM plugin_settings ORDER BY plugin_id`)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var data, updatedAt string
		if err := rows.Scan(&rec.PluginID, &data, &rec.Version, &rec.Revision, &updatedAt); err != nil {
			return nil, err
		}
		rec.Data = json.RawMessage(data)
		rec.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// History returns every saved revision of pluginID, oldest first.
func (s *SettingsStore) History(ctx context.Context, pluginID string) ([]Record, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT revision, data, version, saved_at
		 FROM plugin_settings_history WHERE plugin_id = ? ORDER BY rowid`, pluginID)
	if err != nil {
		return nil, fmt.Errorf("loading settings history for %s: %w", pluginID, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec := Record{PluginID: pluginID}
		var data, savedAt string
		if err := rows.Scan(&rec.Revision, &data, &rec.Version, &savedAt); err != nil {
			return nil, err
		}
		rec.Data = json.RawMessage(data)
		rec.UpdatedAt, _ = time.Parse(time.DateTime, savedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

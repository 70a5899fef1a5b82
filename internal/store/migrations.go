package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create plugin settings",
		SQL: `
			CREATE TABLE plugin_settings (
				plugin_id   TEXT PRIMARY KEY,
				data        TEXT NOT NULL,
				version     INTEGER NOT NULL DEFAULT 1,
				revision    TEXT NOT NULL,
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
	{
		Version: 2,
		Name:    "create plugin settings history",
		SQL: `
			CREATE TABLE plugin_settings_history (
				revision    TEXT PRIMARY KEY,
				plugin_id   TEXT NOT NULL,
				data        TEXT NOT NULL,
				version     INTEGER NOT NULL,
				saved_at    TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_settings_history_plugin ON plugin_settings_history (plugin_id, version);
		`,
	},
}

package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/soyeahso/hookpress/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type sample struct {
	GreetingText string `json:"greeting_text"`
	ShowDate     bool   `json:"show_date"`
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hookpress.db")
	db, err := Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.FileExists(t, path)
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	for _, table := range []string{"plugin_settings", "plugin_settings_history"} {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

// --- SettingsStore tests ---

func TestSettingsStore_LoadMissing(t *testing.T) {
	s := NewSettingsStore(testDB(t))

	var dst sample
	found, err := s.Load(context.Background(), "hello-world", &dst)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, sample{}, dst)

	rec, err := s.Get(context.Background(), "hello-world")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSettingsStore_SaveLoad(t *testing.T) {
	s := NewSettingsStore(testDB(t))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "hello-world", sample{GreetingText: "Howdy!", ShowDate: true}))

	var dst sample
	found, err := s.Load(ctx, "hello-world", &dst)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{GreetingText: "Howdy!", ShowDate: true}, dst)
}

func TestSettingsStore_VersionAndRevision(t *testing.T) {
	s := NewSettingsStore(testDB(t))
	s.now = func() time.Time { return time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	first, err := s.SaveRecord(ctx, "hello-world", sample{GreetingText: "a"})
	require.NoError(t, err)
	second, err := s.SaveRecord(ctx, "hello-world", sample{GreetingText: "b"})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	assert.NotEmpty(t, first.Revision)
	assert.NotEqual(t, first.Revision, second.Revision)

	rec, err := s.Get(ctx, "hello-world")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, second.Revision, rec.Revision)
	assert.Equal(t, time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC), rec.UpdatedAt)
	assert.JSONEq(t, `{"greeting_text":"b","show_date":false}`, string(rec.Data))
}

func TestSettingsStore_History(t *testing.T) {
	s := NewSettingsStore(testDB(t))
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, s.Save(ctx, "hello-world", sample{GreetingText: text}))
	}
	require.NoError(t, s.Save(ctx, "other", sample{GreetingText: "x"}))

	hist, err := s.History(ctx, "hello-world")
	require.NoError(t, err)
	require.Len(t, hist, 3)

	var last sample
	require.NoError(t, json.Unmarshal(hist[2].Data, &last))
	assert.Equal(t, "three", last.GreetingText)
	assert.Equal(t, 3, hist[2].Version)
}

func TestSettingsStore_Delete(t *testing.T) {
	s := NewSettingsStore(testDB(t))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "hello-world", sample{GreetingText: "x"}))

	removed, err := s.Delete(ctx, "hello-world")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete(ctx, "hello-world")
	require.NoError(t, err)
	assert.False(t, removed)

	var dst sample
	found, err := s.Load(ctx, "hello-world", &dst)
	require.NoError(t, err)
	assert.False(t, found)

	hist, err := s.History(ctx, "hello-world")
	require.NoError(t, err)
	assert.Len(t, hist, 1, "history survives a reset")
}

func TestSettingsStore_List(t *testing.T) {
	s := NewSettingsStore(testDB(t))
	ctx := context.Background()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Save(ctx, "zeta", sample{}))
	require.NoError(t, s.Save(ctx, "alpha", sample{}))

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].PluginID)
	assert.Equal(t, "zeta", list[1].PluginID)
}

func TestSettingsStore_LoadDecodeError(t *testing.T) {
	s := NewSettingsStore(testDB(t))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "hello-world", map[string]any{"show_date": "not-a-bool"}))

	var dst sample
	found, err := s.Load(ctx, "hello-world", &dst)
	require.Error(t, err)
	assert.False(t, found)
	assert.Contains(t, err.Error(), "hello-world")
}

func TestSettingsStore_SaveUnencodable(t *testing.T) {
	s := NewSettingsStore(testDB(t))
	err := s.Save(context.Background(), "hello-world", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
}

func TestSettingsStore_CancelledContext(t *testing.T) {
	s := NewSettingsStore(testDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, "hello-world", sample{})
	require.Error(t, err)
}

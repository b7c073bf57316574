package settings

import (
	"testing"

	"github.com/blackwell-systems/habitlens/internal/permission"
	"github.com/blackwell-systems/habitlens/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ permission.Recorder = (*Store)(nil)

func newTestSettings(t *testing.T) (*Store, *store.Store) {
	t.Helper()
	db, err := store.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.CreateSchema())
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func TestLoad_Defaults(t *testing.T) {
	s, _ := newTestSettings(t)
	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.True(t, cfg.NotificationsEnabled)
	assert.Equal(t, ThemeSystem, cfg.Theme)
}

func TestRecordPermission(t *testing.T) {
	s, _ := newTestSettings(t)

	require.NoError(t, s.SetPermissionSkipped(true))
	require.NoError(t, s.RecordPermission(false))

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.False(t, cfg.PermissionGranted)
	assert.True(t, cfg.PermissionSkipped)

	require.NoError(t, s.RecordPermission(true))
	cfg, err = s.Load()
	require.NoError(t, err)
	assert.True(t, cfg.PermissionGranted)
	assert.False(t, cfg.PermissionSkipped)
}

func TestLoad_PartialDocumentKeepsDefaults(t *testing.T) {
	s, db := newTestSettings(t)
	require.NoError(t, db.SetSetting(Key, `{"permissionGranted":true}`))

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.True(t, cfg.PermissionGranted)
	assert.True(t, cfg.NotificationsEnabled)
	assert.Equal(t, ThemeSystem, cfg.Theme)
}

func TestLoad_CorruptDocument(t *testing.T) {
	s, db := newTestSettings(t)
	require.NoError(t, db.SetSetting(Key, `{not json`))

	cfg, err := s.Load()
	assert.Error(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestSave_RejectsUnknownTheme(t *testing.T) {
	s, _ := newTestSettings(t)
	cfg := Defaults()
	cfg.Theme = "sepia"
	assert.Error(t, s.Save(cfg))
}

func TestUpdate_Uninitialized(t *testing.T) {
	db, err := store.New(":memory:")
	require.NoError(t, err)
	defer db.Close()

	err = New(db).RecordPermission(true)
	assert.ErrorIs(t, err, store.ErrNotInitialized)
}

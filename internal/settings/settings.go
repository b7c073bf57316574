// Package settings persists the user-facing settings record, including the
// committed permission decision.
package settings

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/blackwell-systems/habitlens/internal/store"
)

// Key is the settings-table key the document is stored under.
const Key = "habitlens_settings"

// Theme values.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Settings is the persisted settings document.
type Settings struct {
	PermissionGranted    bool   `json:"permissionGranted" yaml:"permissionGranted"`
	PermissionSkipped    bool   `json:"permissionSkipped" yaml:"permissionSkipped"`
	OnboardingComplete   bool   `json:"onboardingComplete" yaml:"onboardingComplete"`
	NotificationsEnabled bool   `json:"notificationsEnabled" yaml:"notificationsEnabled"`
	Theme                string `json:"theme" yaml:"theme"`
}

// Defaults returns the settings of a fresh install.
func Defaults() Settings {
	return Settings{
		NotificationsEnabled: true,
		Theme:                ThemeSystem,
	}
}

// Store reads and writes the settings document. Each setter is a
// read-modify-write of the whole document.
type Store struct {
	mu sync.Mutex
	db *store.Store
}

// New creates a settings store on top of db.
func New(db *store.Store) *Store {
	return &Store{db: db}
}

// Load returns the stored settings, or Defaults when none were saved.
// Fields missing from an older document keep their default values.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Settings, error) {
	cfg := Defaults()

	raw, ok, err := s.db.GetSetting(Key)
	if err != nil {
		return cfg, fmt.Errorf("failed to load settings: %w", err)
	}
	if !ok {
		return cfg, nil
	}

	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings: %w", err)
	}
	return cfg, nil
}

// Save replaces the stored document.
func (s *Store) Save(cfg Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(cfg)
}

func (s *Store) save(cfg Settings) error {
	switch cfg.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("invalid theme %q", cfg.Theme)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.db.SetSetting(Key, string(data)); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Update applies fn to the stored settings and saves the result.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load()
	if err != nil {
		return err
	}
	fn(&cfg)
	return s.save(cfg)
}

// RecordPermission persists a committed permission decision. A grant
// clears the skipped flag.
func (s *Store) RecordPermission(granted bool) error {
	return s.Update(func(cfg *Settings) {
		cfg.PermissionGranted = granted
		if granted {
			cfg.PermissionSkipped = false
		}
	})
}

// SetPermissionSkipped records that the user chose to continue without
// usage access.
func (s *Store) SetPermissionSkipped(skipped bool) error {
	return s.Update(func(cfg *Settings) { cfg.PermissionSkipped = skipped })
}

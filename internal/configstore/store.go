// Package configstore loads and persists the aquarium parameter document
// (optimal/configurable ranges, mode and per-mode cadences).
//
// Readers always reload from disk; there is no cache to go stale. Writers
// validate before persisting and never touch the file on a rejected payload.
// Concurrent writers in different processes race with last-writer-wins.
package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/models"
)

var ErrInvalidMode = errors.New("invalid mode: must be demo or production")

// Store is the single reference callers hold to the config document.
type Store struct {
	path string
	log  *logger.Logger
	mu   sync.Mutex // serializes in-process writers
}

func New(path string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{path: path, log: log}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load re-reads the document. Any read, parse or validation failure falls
// back to Default() with a warning.
func (s *Store) Load() models.AppConfig {
	cfg, err := s.read()
	if err != nil {
		s.log.Warnw("config_load_fallback_default", "path", s.path, "err", err)
		return Default()
	}
	return cfg
}

// Save validates cfg and persists it. A rejected payload leaves the stored
// document untouched.
func (s *Store) Save(cfg models.AppConfig) error {
	if cfg.Modes == nil {
		cfg.Modes = defaultModes()
	}
	if err := Validate(cfg); err != nil {
		s.log.Warnw("config_write_rejected", "path", s.path, "err", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(cfg)
}

// SetMode persists a new mode through the validated write path.
func (s *Store) SetMode(mode string) (models.AppConfig, error) {
	if !models.IsMode(mode) {
		s.log.Warnw("config_mode_rejected", "mode", mode)
		return models.AppConfig{}, ErrInvalidMode
	}
	cfg := s.Load()
	cfg.Mode = mode
	if err := s.Save(cfg); err != nil {
		return models.AppConfig{}, err
	}
	return cfg, nil
}

// EnsureExists writes the default document when the file is missing.
func (s *Store) EnsureExists() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config %q: %w", s.path, err)
	}
	s.log.Infow("config_seed_default", "path", s.path)
	return s.Save(Default())
}

func (s *Store) read() (models.AppConfig, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return models.AppConfig{}, fmt.Errorf("read config %q: %w", s.path, err)
	}
	if err := validateDocument(raw); err != nil {
		return models.AppConfig{}, err
	}
	var cfg models.AppConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return models.AppConfig{}, fmt.Errorf("parse config %q: %w", s.path, err)
	}
	if len(cfg.Modes) == 0 {
		cfg.Modes = defaultModes()
	}
	if err := validateSemantics(cfg); err != nil {
		return models.AppConfig{}, err
	}
	return cfg, nil
}

// write replaces the file atomically (temp file + rename in the same dir).
func (s *Store) write(cfg models.AppConfig) error {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".parameters-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace config %q: %w", s.path, err)
	}
	return nil
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// Manager owns the config file. Environment overrides are layered on top of
// the file contents in memory and never written back.
type Manager struct {
	mu        sync.RWMutex
	file      *Config
	effective *Config
	path      string
	env       func(string) string
}

func New(path string) (*Manager, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return newManager(path, os.Getenv)
}

func newManager(path string, env func(string) string) (*Manager, error) {
	m := &Manager{path: path, env: env}

	var err error
	m.file, err = m.readParseValidate(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if errors.Is(err, os.ErrNotExist) {
		m.file = m.GetDefault()
		if err := m.saveLocked(); err != nil {
			return nil, fmt.Errorf("write config: %w", err)
		}
	}

	m.effective = m.withEnv(m.file)
	if err := m.validate(m.effective); err != nil {
		return nil, fmt.Errorf("validate env overrides: %w", err)
	}
	return m, nil
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.effective
}

func (m *Manager) Update(modify func(cfg *Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return errors.New("no config loaded")
	}

	next := clone(m.file)
	modify(next)

	if err := m.validate(next); err != nil {
		return fmt.Errorf("invalid config update: %w", err)
	}

	m.file = next
	m.effective = m.withEnv(next)
	return m.saveLocked()
}

func (m *Manager) withEnv(base *Config) *Config {
	cfg := clone(base)

	if v := m.env("TWITCH_OAUTH"); v != "" {
		cfg.Twitch.OAuth = v
	}
	if v := m.env("TWITCH_CLIENT_ID"); v != "" {
		cfg.Twitch.ClientID = v
	}
	if v := m.env("TWITCH_NICK"); v != "" {
		cfg.Twitch.Nick = v
	}
	if v := m.env("TWITCH_CHANNELS"); v != "" {
		cfg.Twitch.Channels = cfg.Twitch.Channels[:0]
		for _, ch := range strings.Split(v, ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				cfg.Twitch.Channels = append(cfg.Twitch.Channels, ch)
			}
		}
	}
	if v := m.env("TIRC_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := m.env("TIRC_AUTH_TOKEN"); v != "" {
		cfg.HTTP.AuthToken = v
	}

	return cfg
}

func clone(cfg *Config) *Config {
	c := *cfg
	c.Twitch.Channels = slices.Clone(cfg.Twitch.Channels)
	if cfg.Proxy != nil {
		p := *cfg.Proxy
		c.Proxy = &p
	}
	return &c
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func (m *Manager) readParseValidate(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("no config path provided")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open/read config: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	} else if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	m.applyDefaults(&cfg)
	if err := m.validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &cfg, nil
}

func (m *Manager) saveLocked() error {
	if m.path == "" {
		return errors.New("no config file loaded")
	}
	if m.file == nil {
		return errors.New("no config to save")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(m.path) {
		data, err = yaml.Marshal(m.file)
	} else {
		data, err = json.MarshalIndent(m.file, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return m.writeAtomic(m.path, data, 0600)
}

func (m *Manager) writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, time.Now().UnixNano()))

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ABOUTME: Application configuration loaded from TOML at XDG paths
// ABOUTME: Supplies defaults and DEALFLOW_* environment overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/harperreed/dealflow/access"
)

const (
	AppName                 = "dealflow"
	DefaultPageSize         = 25
	DefaultReminderInterval = 30 * time.Second
	DefaultDashboardDays    = 30
	DefaultLegacyTasks      = string(access.LegacyPermissive)
	DefaultCascadeContacts  = true
	configFileName          = "config.toml"
)

// Actor is the signed-in user the process acts as.
type Actor struct {
	ID    string `toml:"id"`
	Email string `toml:"email"`
	Name  string `toml:"name"`
}

type Config struct {
	DBPath               string   `toml:"db_path"`
	RedisURL             string   `toml:"redis_url"`
	PageSize             int      `toml:"page_size"`
	ReminderInterval     Duration `toml:"reminder_interval"`
	DashboardDays        int      `toml:"dashboard_days"`
	LegacyTasks          string   `toml:"legacy_tasks"`
	CascadeContactDelete bool     `toml:"cascade_contact_delete"`
	// StateHost is the charm server holding per-device state.
	StateHost     string `toml:"state_host"`
	StateAutoSync bool   `toml:"state_auto_sync"`
	Actor         Actor  `toml:"actor"`
}

// Duration reads TOML strings like "45s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() *Config {
	return &Config{
		DBPath:               filepath.Join(xdg.DataHome, AppName, AppName+".db"),
		PageSize:             DefaultPageSize,
		ReminderInterval:     Duration{DefaultReminderInterval},
		DashboardDays:        DefaultDashboardDays,
		LegacyTasks:          DefaultLegacyTasks,
		CascadeContactDelete: DefaultCascadeContacts,
	}
}

// Path returns $XDG_CONFIG_HOME/dealflow/config.toml.
func Path() string {
	return filepath.Join(xdg.ConfigHome, AppName, configFileName)
}

// Load reads the config at Path.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.fillZeroes()
	return cfg, nil
}

func (c *Config) fillZeroes() {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.ReminderInterval.Duration <= 0 {
		c.ReminderInterval = Duration{DefaultReminderInterval}
	}
	if c.DashboardDays < 0 {
		c.DashboardDays = DefaultDashboardDays
	}
	if c.LegacyTasks == "" {
		c.LegacyTasks = DefaultLegacyTasks
	}
}

// applyEnvOverrides lets DEALFLOW_* variables win over the file.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DEALFLOW_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DEALFLOW_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("DEALFLOW_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DEALFLOW_PAGE_SIZE: %w", err)
		}
		cfg.PageSize = n
	}
	if v := os.Getenv("DEALFLOW_REMINDER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DEALFLOW_REMINDER_INTERVAL: %w", err)
		}
		cfg.ReminderInterval = Duration{d}
	}
	if v := os.Getenv("DEALFLOW_DASHBOARD_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DEALFLOW_DASHBOARD_DAYS: %w", err)
		}
		cfg.DashboardDays = n
	}
	if v := os.Getenv("DEALFLOW_LEGACY_TASKS"); v != "" {
		cfg.LegacyTasks = v
	}
	if v := os.Getenv("DEALFLOW_CASCADE_CONTACT_DELETE"); v != "" {
		cfg.CascadeContactDelete = v == "true" || v == "1"
	}
	if v := os.Getenv("DEALFLOW_STATE_HOST"); v != "" {
		cfg.StateHost = v
	}
	if v := os.Getenv("DEALFLOW_ACTOR_ID"); v != "" {
		cfg.Actor.ID = v
	}
	if v := os.Getenv("DEALFLOW_ACTOR_EMAIL"); v != "" {
		cfg.Actor.Email = v
	}
	if v := os.Getenv("DEALFLOW_ACTOR_NAME"); v != "" {
		cfg.Actor.Name = v
	}
	return nil
}

// Save writes the config to path, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Policy maps legacy_tasks onto the permission policy.
func (c *Config) Policy() access.Policy {
	return access.Policy{Legacy: access.ParseLegacyMode(c.LegacyTasks)}
}

// CurrentActor returns the configured actor, or the OS user when none is set.
func (c *Config) CurrentActor() access.Actor {
	if c.Actor.ID == "" && c.Actor.Email == "" {
		return access.NewActor(os.Getenv("USER"), "")
	}
	return access.NewActor(c.Actor.ID, c.Actor.Email)
}

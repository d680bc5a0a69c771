// Package config loads the single YAML configuration file the service
// starts from: server mode, database, auth, identity gate, session policy
// and the static geofence zone registry.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"geoattend-backend/internal/zone"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

type IdentityConfig struct {
	URL               string  `yaml:"url"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
}

type SessionConfig struct {
	CheckoutHour          int    `yaml:"checkout_hour"`
	LocationMaxAgeSeconds int    `yaml:"location_max_age_seconds"`
	Timezone              string `yaml:"timezone"`
}

type Config struct {
	Version  string            `yaml:"version"`
	Mode     string            `yaml:"mode"`
	Server   ServerConfig      `yaml:"server"`
	DB       DatabaseConfig    `yaml:"database"`
	Auth     AuthConfig        `yaml:"auth"`
	Identity IdentityConfig    `yaml:"identity"`
	Session  SessionConfig     `yaml:"session"`
	Zones    []zone.Definition `yaml:"zones"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("mode must be dev or release, got %q", c.Mode)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Identity.URL == "" {
		return fmt.Errorf("identity.url is required")
	}
	if c.Session.CheckoutHour < 0 || c.Session.CheckoutHour > 23 {
		return fmt.Errorf("session.checkout_hour must be 0-23, got %d", c.Session.CheckoutHour)
	}
	if c.Session.LocationMaxAgeSeconds < 0 {
		return fmt.Errorf("session.location_max_age_seconds must not be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8443"
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 24
	}
	if c.Identity.TimeoutSeconds <= 0 {
		c.Identity.TimeoutSeconds = 10
	}
	if c.Session.Timezone == "" {
		c.Session.Timezone = "Local"
	}
}

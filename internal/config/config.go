// Package config loads the immutable application configuration.
//
// CONFIG AS AN EXPLICIT STRUCT, NOT AMBIENT GLOBALS:
// Everything the process needs at startup — signing secret, database path,
// listen port, CORS origins — is read ONCE here into a plain struct and then
// passed down via constructors. No package reads os.Getenv after startup,
// which keeps behaviour predictable and makes components trivially testable
// (tests just build a Config literal).
//
// PRECEDENCE (lowest to highest): built-in defaults → optional YAML file →
// environment variables. koanf layers providers in load order, so a later
// Load overrides earlier keys.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port           int           `koanf:"port"`
	DBPath         string        `koanf:"db_path"`
	JWTSecret      string        `koanf:"jwt_secret"`
	TokenTTL       time.Duration `koanf:"token_ttl"` // 0 = tokens never expire
	AllowedOrigins []string      `koanf:"allowed_origins"`
	PublicPostList bool          `koanf:"public_post_list"` // is GET /posts/all open to everyone?
	BcryptCost     int           `koanf:"bcrypt_cost"`
	LogLevel       string        `koanf:"log_level"`
}

// Load builds the Config. configPath may be "" to skip the YAML layer.
//
// Environment keys map to config keys by lowercasing: JWT_SECRET →
// jwt_secret, PUBLIC_POST_LIST → public_post_list, and so on.
// ALLOWED_ORIGINS is a comma-separated list.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults.
	defaults := map[string]any{
		"port":             8080,
		"db_path":          "data/blog.db",
		"token_ttl":        "0s",
		"allowed_origins":  []string{"http://localhost:3000"},
		"public_post_list": true,
		"bcrypt_cost":      12,
		"log_level":        "info",
	}
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("config: setting default %s: %w", key, err)
		}
	}

	// Layer 2: optional YAML file.
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables override everything.
	if err := k.Load(env.Provider("", ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	// ALLOWED_ORIGINS from the environment arrives as one comma-separated
	// string; normalise it to a list before unmarshalling, or the decode
	// into []string fails.
	if raw, ok := k.Get("allowed_origins").(string); ok {
		var origins []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		if err := k.Set("allowed_origins", origins); err != nil {
			return nil, fmt.Errorf("config: normalising allowed_origins: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKeyMapper limits which environment variables koanf picks up and maps
// them onto config keys. Loading the entire environment unfiltered would
// let unrelated variables (PATH, HOME, ...) shadow config keys.
func envKeyMapper(key string) string {
	known := map[string]string{
		"PORT":             "port",
		"DB_PATH":          "db_path",
		"JWT_SECRET":       "jwt_secret",
		"TOKEN_TTL":        "token_ttl",
		"ALLOWED_ORIGINS":  "allowed_origins",
		"PUBLIC_POST_LIST": "public_post_list",
		"BCRYPT_COST":      "bcrypt_cost",
		"LOG_LEVEL":        "log_level",
	}
	if mapped, ok := known[key]; ok {
		return mapped
	}
	return "" // ignore everything else
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	return nil
}

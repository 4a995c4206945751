package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the reword configuration.
type Config struct {
	Provider        string        `json:"provider" yaml:"provider"`
	Model           string        `json:"model" yaml:"model"`
	Remote          string        `json:"remote" yaml:"remote"`
	Format          string        `json:"format" yaml:"format"`
	MaxChunkRetries int           `json:"maxChunkRetries" yaml:"maxChunkRetries"`
	Style           StyleConfig   `json:"style" yaml:"style"`
	Cache           CacheConfig   `json:"cache" yaml:"cache"`
	Privacy         PrivacyConfig `json:"privacy" yaml:"privacy"`
}

// StyleConfig controls the flavor of generated messages.
type StyleConfig struct {
	Language    string `json:"language" yaml:"language"`
	Emoji       bool   `json:"emoji" yaml:"emoji"`
	Description bool   `json:"description" yaml:"description"`
}

// Key returns a stable fingerprint of the style for cache keying.
func (s StyleConfig) Key() string {
	return fmt.Sprintf("%s/%t/%t", s.Language, s.Emoji, s.Description)
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds" yaml:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool `json:"redactSecrets" yaml:"redactSecrets"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:        "anthropic",
		Model:           "claude-sonnet-4-20250514",
		Remote:          "origin",
		Format:          "text",
		MaxChunkRetries: 0, // retry failing chunks indefinitely
		Style: StyleConfig{
			Language:    "en",
			Emoji:       false,
			Description: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for reword.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "reword"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "reword"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "reword"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "reword"), nil
	default:
		return filepath.Join(home, ".config", "reword"), nil
	}
}

// ConfigPath returns the path of the config file that exists, or the JSON
// default when none does.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return filepath.Join(dir, "config.json"), nil
}

// fileConfig mirrors Config for decoding. Pointer booleans distinguish an
// explicit false from an absent key.
type fileConfig struct {
	Provider        string `json:"provider" yaml:"provider"`
	Model           string `json:"model" yaml:"model"`
	Remote          string `json:"remote" yaml:"remote"`
	Format          string `json:"format" yaml:"format"`
	MaxChunkRetries *int   `json:"maxChunkRetries" yaml:"maxChunkRetries"`
	Style           struct {
		Language    string `json:"language" yaml:"language"`
		Emoji       *bool  `json:"emoji" yaml:"emoji"`
		Description *bool  `json:"description" yaml:"description"`
	} `json:"style" yaml:"style"`
	Cache struct {
		Enabled    *bool  `json:"enabled" yaml:"enabled"`
		Dir        string `json:"dir" yaml:"dir"`
		TTLSeconds *int   `json:"ttlSeconds" yaml:"ttlSeconds"`
	} `json:"cache" yaml:"cache"`
	Privacy struct {
		RedactSecrets *bool `json:"redactSecrets" yaml:"redactSecrets"`
	} `json:"privacy" yaml:"privacy"`
}

func loadFrom(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fileConfig{}, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fileConfig{}, fmt.Errorf("parsing config file: %w", err)
		}
	}
	return cfg, nil
}

// Save writes the config to the JSON config file.
func Save(cfg Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// LoadFile returns the defaults overlaid with the config file only, without
// env or flag overrides. `config set` uses it so saved files round-trip.
func LoadFile() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	fileCfg, err := loadFrom(path)
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	return cfg, nil
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags (only non-zero values
// should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src fileConfig) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Remote != "" {
		dst.Remote = src.Remote
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.MaxChunkRetries != nil {
		dst.MaxChunkRetries = *src.MaxChunkRetries
	}
	if src.Style.Language != "" {
		dst.Style.Language = src.Style.Language
	}
	if src.Style.Emoji != nil {
		dst.Style.Emoji = *src.Style.Emoji
	}
	if src.Style.Description != nil {
		dst.Style.Description = *src.Style.Description
	}
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = *src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds != nil {
		dst.Cache.TTLSeconds = *src.Cache.TTLSeconds
	}
	if src.Privacy.RedactSecrets != nil {
		dst.Privacy.RedactSecrets = *src.Privacy.RedactSecrets
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("REWORD_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("REWORD_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("REWORD_REMOTE"); v != "" {
		cfg.Remote = v
	}
	if v := os.Getenv("REWORD_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("REWORD_LANGUAGE"); v != "" {
		cfg.Style.Language = v
	}
	if v := os.Getenv("REWORD_MAX_CHUNK_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxChunkRetries = n
		}
	}
	if v := os.Getenv("REWORD_EMOJI"); v != "" {
		cfg.Style.Emoji = v == "1" || v == "true"
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["provider"]; ok && v != "" {
		cfg.Provider = v
	}
	if v, ok := overrides["model"]; ok && v != "" {
		cfg.Model = v
	}
	if v, ok := overrides["remote"]; ok && v != "" {
		cfg.Remote = v
	}
	if v, ok := overrides["format"]; ok && v != "" {
		cfg.Format = v
	}
	if v, ok := overrides["language"]; ok && v != "" {
		cfg.Style.Language = v
	}
	if v, ok := overrides["maxChunkRetries"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxChunkRetries = n
		}
	}
}

// SetField sets a single config field by key name. Returns error if key is
// unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "remote":
		cfg.Remote = value
	case "format":
		cfg.Format = value
	case "language":
		cfg.Style.Language = value
	case "emoji":
		cfg.Style.Emoji = value == "true" || value == "1"
	case "description":
		cfg.Style.Description = value == "true" || value == "1"
	case "maxChunkRetries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxChunkRetries must be an integer: %w", err)
		}
		cfg.MaxChunkRetries = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// GetField returns a single config field by key name as a string.
func GetField(cfg Config, key string) (string, error) {
	switch key {
	case "provider":
		return cfg.Provider, nil
	case "model":
		return cfg.Model, nil
	case "remote":
		return cfg.Remote, nil
	case "format":
		return cfg.Format, nil
	case "language":
		return cfg.Style.Language, nil
	case "emoji":
		return strconv.FormatBool(cfg.Style.Emoji), nil
	case "description":
		return strconv.FormatBool(cfg.Style.Description), nil
	case "maxChunkRetries":
		return strconv.Itoa(cfg.MaxChunkRetries), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

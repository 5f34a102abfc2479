// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"

	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/util"
)

// DefaultServerURL is the production Aïna backend.
const DefaultServerURL = "https://app-rag-its-new2.azurewebsites.net"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete aina configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" json:"server" yaml:"server"`
	Auth    AuthConfig    `toml:"auth" json:"auth" yaml:"auth"`
	Chat    ChatConfig    `toml:"chat" json:"chat" yaml:"chat"`
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
	UI      UIConfig      `toml:"ui" json:"ui" yaml:"ui"`
	Export  ExportConfig  `toml:"export" json:"export" yaml:"export"`
	Sandbox SandboxConfig `toml:"sandbox" json:"sandbox" yaml:"sandbox"`
}

// ServerConfig describes how to reach the remote backend.
type ServerConfig struct {
	// URL is the base URL of the backend (no trailing slash needed)
	URL string `toml:"url" json:"url" yaml:"url"`
	// TimeoutSecs bounds each request. 0 means no client-side timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`
	// RequestsPerSecond limits outgoing requests. 0 means unlimited.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"`
	// Burst is the limiter burst size when RequestsPerSecond is set.
	Burst int `toml:"burst" json:"burst" yaml:"burst"`
	// MaxResponseMB caps the size of a decoded response body.
	MaxResponseMB int `toml:"max_response_mb" json:"max_response_mb" yaml:"max_response_mb"`
}

// AuthConfig points at the bearer token acquired by the sign-in flow.
type AuthConfig struct {
	// TokenFile is read (and watched) for the access token
	TokenFile string `toml:"token_file" json:"token_file" yaml:"token_file"`
	// Token is an inline token. Prefer TokenFile or AINA_TOKEN.
	Token string `toml:"token,omitempty" json:"token,omitempty" yaml:"token,omitempty"`
}

// ChatConfig holds conversation defaults.
type ChatConfig struct {
	// DefaultAgent is one of doc, finance, vision, search
	DefaultAgent string `toml:"default_agent" json:"default_agent" yaml:"default_agent"`
	// RefreshAfterSend reloads the conversation list after every answer
	RefreshAfterSend bool `toml:"refresh_after_send" json:"refresh_after_send" yaml:"refresh_after_send"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level" json:"level" yaml:"level"`
	// File receives JSON log lines. Empty means ~/.aina/aina.log.
	File string `toml:"file" json:"file" yaml:"file"`
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" json:"theme" yaml:"theme"`
	// TypingSpeedMs is the delay per revealed rune of an answer. 0 disables the effect.
	TypingSpeedMs int `toml:"typing_speed_ms" json:"typing_speed_ms" yaml:"typing_speed_ms"`
	// SidebarOpen shows the conversation list on start
	SidebarOpen bool `toml:"sidebar_open" json:"sidebar_open" yaml:"sidebar_open"`
	// TitleMaxRunes truncates sidebar titles
	TitleMaxRunes int `toml:"title_max_runes" json:"title_max_runes" yaml:"title_max_runes"`
}

// ExportConfig holds transcript export defaults.
type ExportConfig struct {
	// Dir is where exports are written. Empty means the working directory.
	Dir string `toml:"dir" json:"dir" yaml:"dir"`
	// Format is md, json or yaml
	Format string `toml:"format" json:"format" yaml:"format"`
}

// SandboxConfig configures the local development backend.
type SandboxConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:8787"
	Addr string `toml:"addr" json:"addr" yaml:"addr"`
	// Token is the bearer token the sandbox accepts. Empty accepts any token.
	Token string `toml:"token,omitempty" json:"token,omitempty" yaml:"token,omitempty"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:               DefaultServerURL,
			TimeoutSecs:       0,
			RequestsPerSecond: 0,
			Burst:             1,
			MaxResponseMB:     10,
		},
		Chat: ChatConfig{
			DefaultAgent:     string(model.DefaultAgent),
			RefreshAfterSend: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme:         "auto",
			TypingSpeedMs: 10,
			SidebarOpen:   true,
			TitleMaxRunes: 40,
		},
		Export: ExportConfig{
			Format: "md",
		},
		Sandbox: SandboxConfig{
			Addr: "127.0.0.1:8787",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the aina configuration directory. AINA_HOME overrides
// the default ~/.aina.
func ConfigDir() (string, error) {
	if dir := os.Getenv("AINA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".aina"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultTokenFile returns ~/.config/aina/token.
func DefaultTokenFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(dir, "aina", "token"), nil
}

// LogPath returns the configured log file, or aina.log in the config directory.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "aina.log"), nil
}

// TokenPath returns the configured token file, or the default location.
func (c *Config) TokenPath() (string, error) {
	if c.Auth.TokenFile != "" {
		return expandHome(c.Auth.TokenFile)
	}
	return DefaultTokenFile()
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ensureSecurePermissions tightens config files to 0600. They may hold a token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.aina/config.toml, falling back to config.json, then to
// defaults. Environment overrides are applied last, then the result is
// validated.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return nil, err
	}

	switch {
	case fileExists(tomlPath):
		if err := LoadTOML(cfg, tomlPath); err != nil {
			return nil, err
		}
	case fileExists(jsonPath):
		if err := LoadJSON(cfg, jsonPath); err != nil {
			return nil, err
		}
	}

	return finish(cfg)
}

// LoadFromPath loads a specific file. Files ending in .json (or .jsonc) are
// read as JSON with comments, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" || ext == ".jsonc" {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, err
		}
	} else if err := LoadTOML(cfg, path); err != nil {
		return nil, err
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	// Best effort; some filesystems do not support chmod.
	_ = ensureSecurePermissions(path)

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML config %s: %w", path, err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg. Comments and trailing commas are
// allowed.
func LoadJSON(cfg *Config, path string) error {
	_ = ensureSecurePermissions(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON config %s: %w", path, err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return fmt.Errorf("failed to decode JSON config %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

const tomlHeader = `# aina configuration file
# Generated by aina - edit with care
#
# Environment overrides: AINA_SERVER, AINA_AGENT, AINA_TOKEN_FILE,
# AINA_LOG_LEVEL, AINA_REQUESTS_PER_SECOND

`

// Save writes the configuration to ~/.aina/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML. The file is created 0600 inside a 0700
// directory because it may hold an inline token.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(tomlHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.Server.URL); err != nil || u.Host == "" {
		add("server.url", "invalid URL %q", c.Server.URL)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("server.url", "scheme must be http or https, got %q", u.Scheme)
	}
	if c.Server.TimeoutSecs < 0 {
		add("server.timeout_secs", "must be >= 0, got %d", c.Server.TimeoutSecs)
	}
	if c.Server.RequestsPerSecond < 0 {
		add("server.requests_per_second", "must be >= 0, got %g", c.Server.RequestsPerSecond)
	}
	if c.Server.Burst < 1 {
		add("server.burst", "must be >= 1, got %d", c.Server.Burst)
	}
	if c.Server.MaxResponseMB < 1 || c.Server.MaxResponseMB > 1024 {
		add("server.max_response_mb", "must be between 1 and 1024, got %d", c.Server.MaxResponseMB)
	}

	if _, err := model.ParseAgent(c.Chat.DefaultAgent); err != nil {
		add("chat.default_agent", "%v", err)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("logging.level", "invalid level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "invalid theme %q, must be one of: dark, light, auto", c.UI.Theme)
	}
	if c.UI.TypingSpeedMs < 0 || c.UI.TypingSpeedMs > 1000 {
		add("ui.typing_speed_ms", "must be between 0 and 1000, got %d", c.UI.TypingSpeedMs)
	}
	if c.UI.TitleMaxRunes < 4 {
		add("ui.title_max_runes", "must be >= 4, got %d", c.UI.TitleMaxRunes)
	}

	switch strings.ToLower(c.Export.Format) {
	case "md", "markdown", "json", "yaml", "yml":
	default:
		add("export.format", "invalid format %q, must be one of: md, json, yaml", c.Export.Format)
	}

	if c.Sandbox.Addr == "" {
		add("sandbox.addr", "must not be empty")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults. Booleans are left alone
// because false is a meaningful setting.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")
	if c.Server.Burst == 0 {
		c.Server.Burst = defaults.Server.Burst
	}
	if c.Server.MaxResponseMB == 0 {
		c.Server.MaxResponseMB = defaults.Server.MaxResponseMB
	}
	if c.Chat.DefaultAgent == "" {
		c.Chat.DefaultAgent = defaults.Chat.DefaultAgent
	} else if agent, err := model.ParseAgent(c.Chat.DefaultAgent); err == nil {
		c.Chat.DefaultAgent = string(agent)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.TitleMaxRunes == 0 {
		c.UI.TitleMaxRunes = defaults.UI.TitleMaxRunes
	}
	if c.Export.Format == "" {
		c.Export.Format = defaults.Export.Format
	}
	if c.Sandbox.Addr == "" {
		c.Sandbox.Addr = defaults.Sandbox.Addr
	}
}

// Agent returns the configured default agent.
func (c *Config) Agent() model.AgentType {
	agent, err := model.ParseAgent(c.Chat.DefaultAgent)
	if err != nil {
		return model.DefaultAgent
	}
	return agent
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - AINA_SERVER: overrides server.url
//   - AINA_AGENT: overrides chat.default_agent
//   - AINA_TOKEN_FILE: overrides auth.token_file
//   - AINA_LOG_LEVEL: overrides logging.level
//   - AINA_REQUESTS_PER_SECOND: overrides server.requests_per_second
func (c *Config) ApplyEnvOverrides() error {
	if server := os.Getenv("AINA_SERVER"); server != "" {
		c.Server.URL = server
	}
	if agent := os.Getenv("AINA_AGENT"); agent != "" {
		c.Chat.DefaultAgent = agent
	}
	if tokenFile := os.Getenv("AINA_TOKEN_FILE"); tokenFile != "" {
		c.Auth.TokenFile = tokenFile
	}
	if level := os.Getenv("AINA_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if rps := os.Getenv("AINA_REQUESTS_PER_SECOND"); rps != "" {
		v, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("AINA_REQUESTS_PER_SECOND: invalid number %q: %w", rps, err)
		}
		c.Server.RequestsPerSecond = v
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.url").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("%s is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an arbitrary value with type conversion.
func setFieldValue(field reflect.Value, value any) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %w", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %w", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				lower := strings.ToLower(strVal)
				if lower != "yes" && lower != "no" {
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
				boolVal = lower == "yes"
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Keys returns all configuration keys in dot notation, in declaration order.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		prefix := tagName(section)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, prefix+"."+tagName(section.Type.Field(j)))
		}
	}
	return keys
}

func tagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

// Clone returns a copy of the config. Config holds only value fields.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Redacted returns a copy safe to print or log: inline tokens are masked.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Auth.Token != "" {
		safe.Auth.Token = "[REDACTED]"
	}
	if safe.Sandbox.Token != "" {
		safe.Sandbox.Token = "[REDACTED]"
	}
	return safe
}

// String returns a JSON representation with secrets redacted.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}

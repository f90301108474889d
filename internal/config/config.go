// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rigrun-assist.
//
// Configuration file location (in order of precedence):
//   - Environment variables (ANTHROPIC_API_KEY, RIGRUN_ASSIST_*)
//   - ~/.rigrun-assist/config.toml
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigrun-assist/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultModelID is the lowest-tier free model in the catalog.
	DefaultModelID = "claude-3-haiku-20240307"

	// DefaultMaxTokens is the token budget sent with every request.
	DefaultMaxTokens = 4096

	// DefaultMaxImages bounds the number of images attached to one session.
	DefaultMaxImages = 3

	// DefaultBaseURL is the Anthropic API root.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultTimeoutSecs is the per-request timeout.
	DefaultTimeoutSecs = 120

	// DefaultMaxFileSize is the largest file that can be attached (bytes).
	DefaultMaxFileSize = 512 * 1024

	// dirName is the configuration directory under the user's home.
	dirName = ".rigrun-assist"
)

// Prompt purposes shipped by default.
const (
	PurposeExplain  = "explain"
	PurposeOptimize = "optimize"
	PurposeComment  = "comment"
	PurposeDebug    = "debug"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigrun-assist configuration.
type Config struct {
	// Credential is the Anthropic API key. Empty means not configured.
	Credential string `toml:"credential" json:"credential"`

	// ModelID is the default model used when a send does not name one.
	ModelID string `toml:"model_id" json:"model_id"`

	// MaxTokens is the token budget for each request.
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`

	// AutoAttachFile attaches the focused document automatically.
	AutoAttachFile bool `toml:"auto_attach_file" json:"auto_attach_file"`

	// MaxImages bounds the number of attached images.
	MaxImages int `toml:"max_images" json:"max_images"`

	// BaseURL overrides the API endpoint (used for proxies and tests).
	BaseURL string `toml:"base_url" json:"base_url"`

	// TimeoutSecs is the request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// MaxFileSize is the largest file (bytes) accepted as an attachment.
	MaxFileSize int64 `toml:"max_file_size" json:"max_file_size"`

	// Prompts maps a purpose (explain, optimize, ...) to a text/template
	// rendered with .Code and .Language.
	Prompts map[string]string `toml:"prompts" json:"prompts"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// UIConfig contains panel display settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light". Auto asks the terminal.
	Theme string `toml:"theme" json:"theme"`
	// WordWrap is the column width used when rendering replies (0 = panel width).
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
}

// DefaultPrompts returns the built-in purpose -> prompt templates.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PurposeExplain:  "Explain what the following {{.Language}} code does, step by step:\n\n```{{.Language}}\n{{.Code}}\n```",
		PurposeOptimize: "Suggest optimizations for the following {{.Language}} code and show the improved version:\n\n```{{.Language}}\n{{.Code}}\n```",
		PurposeComment:  "Add clear, concise comments to the following {{.Language}} code. Return only the commented code:\n\n```{{.Language}}\n{{.Code}}\n```",
		PurposeDebug:    "Find bugs in the following {{.Language}} code and explain how to fix them:\n\n```{{.Language}}\n{{.Code}}\n```",
	}
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Credential:     "",
		ModelID:        DefaultModelID,
		MaxTokens:      DefaultMaxTokens,
		AutoAttachFile: true,
		MaxImages:      DefaultMaxImages,
		BaseURL:        DefaultBaseURL,
		TimeoutSecs:    DefaultTimeoutSecs,
		MaxFileSize:    DefaultMaxFileSize,
		Prompts:        DefaultPrompts(),
		UI: UIConfig{
			Theme: "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions checks and fixes permissions on the config file.
// The file holds the credential, so it must be 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file.
// A missing file yields the defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file on top of cfg. Keys absent from the file keep
// the values already in cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys ignored: %s\n", strings.Join(keys, ", "))
	}
	return nil
}

// SetDefaults fills zero values with defaults. User prompts are merged over
// the built-in ones so a config that defines only one purpose keeps the rest.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.ModelID == "" {
		c.ModelID = defaults.ModelID
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaults.MaxTokens
	}
	if c.MaxImages == 0 {
		c.MaxImages = defaults.MaxImages
	}
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = defaults.TimeoutSecs
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = defaults.MaxFileSize
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}

	merged := DefaultPrompts()
	for purpose, prompt := range c.Prompts {
		if strings.TrimSpace(prompt) != "" {
			merged[strings.ToLower(purpose)] = prompt
		}
	}
	c.Prompts = merged
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# rigrun-assist configuration file\n")
	sb.WriteString("# Generated by rigrun-assist - edit with care\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.MaxTokens < 1 || c.MaxTokens > 200000 {
		errs = append(errs, ValidationError{
			Field:   "max_tokens",
			Message: fmt.Sprintf("must be 1-200000, got %d", c.MaxTokens),
		})
	}

	if c.MaxImages < 0 || c.MaxImages > 20 {
		errs = append(errs, ValidationError{
			Field:   "max_images",
			Message: fmt.Sprintf("must be 0-20, got %d", c.MaxImages),
		})
	}

	if c.TimeoutSecs < 1 || c.TimeoutSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "timeout_secs",
			Message: fmt.Sprintf("must be 1-3600, got %d", c.TimeoutSecs),
		})
	}

	if c.MaxFileSize < 0 {
		errs = append(errs, ValidationError{
			Field:   "max_file_size",
			Message: "cannot be negative",
		})
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "base_url",
				Message: fmt.Sprintf("invalid URL %q", c.BaseURL),
			})
		}
	}

	if strings.TrimSpace(c.ModelID) == "" {
		errs = append(errs, ValidationError{
			Field:   "model_id",
			Message: "cannot be empty",
		})
	}

	validThemes := map[string]bool{"auto": true, "dark": true, "light": true}
	if c.UI.Theme != "" && !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	for purpose, prompt := range c.Prompts {
		if _, err := template.New(purpose).Parse(prompt); err != nil {
			errs = append(errs, ValidationError{
				Field:   "prompts." + purpose,
				Message: fmt.Sprintf("invalid template: %v", err),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - ANTHROPIC_API_KEY: overrides credential
//   - RIGRUN_ASSIST_MODEL: overrides model_id
//   - RIGRUN_ASSIST_MAX_TOKENS: overrides max_tokens
//   - RIGRUN_ASSIST_BASE_URL: overrides base_url
//   - RIGRUN_ASSIST_AUTO_ATTACH: overrides auto_attach_file
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Credential = strings.TrimSpace(key)
	}

	if model := os.Getenv("RIGRUN_ASSIST_MODEL"); model != "" {
		c.ModelID = model
	}

	if tokens := os.Getenv("RIGRUN_ASSIST_MAX_TOKENS"); tokens != "" {
		if n, err := strconv.Atoi(tokens); err == nil && n > 0 {
			c.MaxTokens = n
		}
	}

	if base := os.Getenv("RIGRUN_ASSIST_BASE_URL"); base != "" {
		c.BaseURL = base
	}

	if auto := os.Getenv("RIGRUN_ASSIST_AUTO_ATTACH"); auto != "" {
		c.AutoAttachFile = auto == "1" || strings.EqualFold(auto, "true")
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "max_images").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
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
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
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

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
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

// GetAllKeys returns all scalar configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"credential",
		"model_id",
		"max_tokens",
		"auto_attach_file",
		"max_images",
		"base_url",
		"timeout_secs",
		"max_file_size",
		"ui.theme",
		"ui.word_wrap",
	}
}

// Purposes returns the configured prompt purposes in sorted order.
func (c *Config) Purposes() []string {
	out := make([]string, 0, len(c.Prompts))
	for p := range c.Prompts {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// CLONE / STRING
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Prompts != nil {
		clone.Prompts = make(map[string]string, len(c.Prompts))
		for k, v := range c.Prompts {
			clone.Prompts[k] = v
		}
	}
	return &clone
}

// String returns a JSON representation with the credential redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Credential != "" {
		safe.Credential = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			if cfg == nil {
				cfg = Default()
			}
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}

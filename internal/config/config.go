// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigrun-shell/internal/approval"
	"github.com/jeranaias/rigrun-shell/internal/util"
)

// CurrentVersion is the config schema version written by SaveTo.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigrun-shell configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Approval mode settings
	Approval ApprovalConfig `toml:"approval" json:"approval"`

	// Custom command discovery
	Commands CommandsConfig `toml:"commands" json:"commands"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// ApprovalConfig controls how aggressively the assistant may act.
type ApprovalConfig struct {
	// DefaultMode is the mode a session starts in: default, autoEdit, plan, yolo
	DefaultMode string `toml:"default_mode" json:"default_mode"`
	// DisableYolo refuses every switch into YOLO mode
	DisableYolo bool `toml:"disable_yolo" json:"disable_yolo"`
}

// CommandsConfig locates custom command directories.
type CommandsConfig struct {
	// UserDir holds commands available in every project ("~" is expanded)
	UserDir string `toml:"user_dir" json:"user_dir"`
	// ProjectDir is resolved against the working directory; its commands win
	// over user commands with the same name
	ProjectDir string `toml:"project_dir" json:"project_dir"`
	// Watch re-discovers commands when files in either directory change
	Watch bool `toml:"watch" json:"watch"`
	// WatchDebounceMs coalesces bursts of file events
	WatchDebounceMs int `toml:"watch_debounce_ms" json:"watch_debounce_ms"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
	// File is the log path; "-" logs to stderr
	File string `toml:"file" json:"file"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// Editor is the external editor command; empty uses $EDITOR
	Editor string `toml:"editor" json:"editor"`
	// ShowHelpHints shows key hints in the footer
	ShowHelpHints bool `toml:"show_help_hints" json:"show_help_hints"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Approval: ApprovalConfig{
			DefaultMode: approval.ModeDefault.String(),
		},
		Commands: CommandsConfig{
			UserDir:         "~/.rigrun/commands",
			ProjectDir:      filepath.Join(".rigrun", "commands"),
			Watch:           true,
			WatchDebounceMs: 300,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "~/.rigrun/rigrun-shell.log",
		},
		UI: UIConfig{
			Theme:         "auto",
			ShowHelpHints: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigrun configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigrun"), nil
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

// DefaultPath returns the file Load reads first: config.toml, or
// config.json when only that one exists.
func DefaultPath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// ExpandPath expands a leading "~" to the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// CommandDirs returns the custom command directories in discovery order:
// user first, then project.
func (c *Config) CommandDirs() []string {
	var dirs []string
	if c.Commands.UserDir != "" {
		dirs = append(dirs, ExpandPath(c.Commands.UserDir))
	}
	if c.Commands.ProjectDir != "" {
		dirs = append(dirs, ExpandPath(c.Commands.ProjectDir))
	}
	return dirs
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	for _, candidate := range []struct {
		pathFn func() (string, error)
		kind   string
	}{
		{ConfigPathTOML, "TOML"},
		{ConfigPathJSON, "JSON"},
	} {
		path, err := candidate.pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to load %s config: %w", candidate.kind, err)
			break
		}
		return cfg, nil
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		// Env overrides produced an invalid config; drop them.
		cfg = Default()
		loadErr = errors.Join(loadErr, fmt.Errorf("invalid config: %w", err))
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML decodes a TOML file on top of cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file on top of cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func loadFile(cfg *Config, path string) error {
	if isJSONPath(path) {
		if err := LoadJSON(cfg, path); err != nil {
			return fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
		return nil
	}
	if err := LoadTOML(cfg, path); err != nil {
		return fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	return nil
}

func isJSONPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".json")
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Keys missing from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTo writes cfg to path, as JSON for a ".json" path and TOML otherwise.
func SaveTo(cfg *Config, path string) error {
	if isJSONPath(path) {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// Edit sets one key in the file at path and writes it back. The file is
// read without environment overrides so they never end up on disk; a
// missing file starts from defaults. Nothing is written when the new value
// does not validate.
func Edit(path, key, value string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.Set(key, value); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := SaveTo(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTOML writes the configuration as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# rigrun-shell configuration file\n")
	buf.WriteString("# Generated by rigrun-shell - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
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

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json", "logfmt"}
	validThemes     = []string{"dark", "light", "auto"}
)

// MaxWatchDebounceMs bounds commands.watch_debounce_ms.
const MaxWatchDebounceMs = 10000

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	mode, err := approval.ParseMode(c.Approval.DefaultMode)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "approval.default_mode",
			Message: fmt.Sprintf("must be one of default, autoEdit, plan, yolo (got %q)", c.Approval.DefaultMode),
		})
	} else if mode == approval.ModeYolo && c.Approval.DisableYolo {
		errs = append(errs, ValidationError{
			Field:   "approval.default_mode",
			Message: "cannot be yolo while approval.disable_yolo is set",
		})
	}

	if c.Commands.WatchDebounceMs < 0 || c.Commands.WatchDebounceMs > MaxWatchDebounceMs {
		errs = append(errs, ValidationError{
			Field:   "commands.watch_debounce_ms",
			Message: fmt.Sprintf("must be between 0 and %d", MaxWatchDebounceMs),
		})
	}

	if !oneOf(c.Log.Level, validLogLevels) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("must be one of %s (got %q)", strings.Join(validLogLevels, ", "), c.Log.Level),
		})
	}
	if !oneOf(c.Log.Format, validLogFormats) {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("must be one of %s (got %q)", strings.Join(validLogFormats, ", "), c.Log.Format),
		})
	}
	if !oneOf(c.UI.Theme, validThemes) {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("must be one of %s (got %q)", strings.Join(validThemes, ", "), c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func oneOf(value string, valid []string) bool {
	for _, v := range valid {
		if strings.EqualFold(value, v) {
			return true
		}
	}
	return false
}

// SetDefaults fills empty values and normalizes case-insensitive fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Approval.DefaultMode == "" {
		c.Approval.DefaultMode = defaults.Approval.DefaultMode
	} else if mode, err := approval.ParseMode(c.Approval.DefaultMode); err == nil {
		c.Approval.DefaultMode = mode.String()
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	c.UI.Theme = strings.ToLower(c.UI.Theme)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RIGRUN_APPROVAL_MODE: overrides approval.default_mode
//   - RIGRUN_DISABLE_YOLO: set to "1" or "true" to refuse YOLO mode
//   - RIGRUN_COMMANDS_DIR: overrides commands.user_dir
//   - RIGRUN_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if mode := os.Getenv("RIGRUN_APPROVAL_MODE"); mode != "" {
		c.Approval.DefaultMode = mode
	}

	if disable := os.Getenv("RIGRUN_DISABLE_YOLO"); disable != "" {
		c.Approval.DisableYolo = parseBool(disable)
	}

	if dir := os.Getenv("RIGRUN_COMMANDS_DIR"); dir != "" {
		c.Commands.UserDir = dir
	}

	if level := os.Getenv("RIGRUN_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "log.level").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookupField(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "log.level").
// The result is not validated; call Validate afterwards.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookupField(key)
	if err != nil {
		return err
	}
	if field.Kind() == reflect.Struct {
		return fmt.Errorf("cannot set section: %s", key)
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookupField(key string) (reflect.Value, error) {
	if key == "" {
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
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	if value == nil {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation, sorted.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	sort.Strings(keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("toml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, prefix+name+".", keys)
			continue
		}
		*keys = append(*keys, prefix+name)
	}
}

// String returns a JSON representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

/*
Package config manages the TOML config for replserve.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/replserve/internal/utils"
	"github.com/bastiangx/replserve/pkg/matching"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Completion CompletionConfig `toml:"completion"`
	Imports    ImportsConfig    `toml:"imports"`
	Server     ServerConfig     `toml:"server"`
}

// CompletionConfig controls how candidates are matched.
type CompletionConfig struct {
	Mode                 string `toml:"mode"`
	CompleteMagicMethods bool   `toml:"complete_magic_methods"`
	MaxMatches           int    `toml:"max_matches"`
}

// ImportsConfig controls the module index.
type ImportsConfig struct {
	SearchPaths    []string `toml:"search_paths"`
	CacheFile      string   `toml:"cache_file"`
	ScanTTLSeconds int      `toml:"scan_ttl_seconds"`
	MaxDepth       int      `toml:"max_depth"`
	Watch          bool     `toml:"watch"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLineLength int `toml:"max_line_length"`
	MaxHistory    int `toml:"max_history"`
}

// MatchingMode parses Mode, falling back to simple matching for unknown
// values.
func (c CompletionConfig) MatchingMode() matching.Mode {
	mode, err := matching.ParseMode(c.Mode)
	if err != nil {
		log.Warnf("Unknown completion mode %q in config, using simple", c.Mode)
		return matching.Simple
	}
	return mode
}

// ScanTTL is how long a search path scan stays valid.
func (c ImportsConfig) ScanTTL() time.Duration {
	return time.Duration(c.ScanTTLSeconds) * time.Second
}

// CachePath resolves CacheFile: absolute and ~ paths are used as is,
// relative ones live in the config directory. Empty disables the cache.
func (c ImportsConfig) CachePath(configDir string) string {
	if c.CacheFile == "" {
		return ""
	}
	p := utils.ExpandUser(c.CacheFile)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(configDir, p)
}

// GetConfigDir returns the directory replserve keeps its files in
func GetConfigDir() string {
	return utils.NewPathResolver().GetConfigDir()
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() string {
	return utils.NewPathResolver().GetConfigPath("config.toml")
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/replserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath := GetDefaultConfigPath()
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Completion: CompletionConfig{
			Mode:                 matching.Simple.String(),
			CompleteMagicMethods: true,
			MaxMatches:           64,
		},
		Imports: ImportsConfig{
			SearchPaths:    []string{},
			CacheFile:      "modules.msgpack",
			ScanTTLSeconds: 300,
			MaxDepth:       4,
			Watch:          false,
		},
		Server: ServerConfig{
			MaxLineLength: 4096,
			MaxHistory:    1000,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.sanitize()
	return config, nil
}

// tryPartialParse keeps whatever keys of a broken file still decode
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "completion"); ok {
		extractCompletionConfig(section, &config.Completion)
	}
	if section, ok := utils.ExtractSection(tempConfig, "imports"); ok {
		extractImportsConfig(section, &config.Imports)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	config.sanitize()
	return config, nil
}

func extractCompletionConfig(data map[string]any, c *CompletionConfig) {
	if val, ok := utils.ExtractString(data, "mode"); ok {
		c.Mode = val
	}
	if val, ok := utils.ExtractBool(data, "complete_magic_methods"); ok {
		c.CompleteMagicMethods = val
	}
	if val, ok := utils.ExtractInt64(data, "max_matches"); ok {
		c.MaxMatches = val
	}
}

func extractImportsConfig(data map[string]any, c *ImportsConfig) {
	if val, ok := utils.ExtractStringSlice(data, "search_paths"); ok {
		c.SearchPaths = val
	}
	if val, ok := utils.ExtractString(data, "cache_file"); ok {
		c.CacheFile = val
	}
	if val, ok := utils.ExtractInt64(data, "scan_ttl_seconds"); ok {
		c.ScanTTLSeconds = val
	}
	if val, ok := utils.ExtractInt64(data, "max_depth"); ok {
		c.MaxDepth = val
	}
	if val, ok := utils.ExtractBool(data, "watch"); ok {
		c.Watch = val
	}
}

func extractServerConfig(data map[string]any, c *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_line_length"); ok {
		c.MaxLineLength = val
	}
	if val, ok := utils.ExtractInt64(data, "max_history"); ok {
		c.MaxHistory = val
	}
}

// sanitize replaces out of range values with defaults.
func (c *Config) sanitize() {
	def := DefaultConfig()
	if _, err := matching.ParseMode(c.Completion.Mode); err != nil {
		log.Warnf("Unknown completion mode %q, using %s", c.Completion.Mode, def.Completion.Mode)
		c.Completion.Mode = def.Completion.Mode
	}
	if c.Completion.MaxMatches < 0 {
		c.Completion.MaxMatches = def.Completion.MaxMatches
	}
	if c.Imports.ScanTTLSeconds <= 0 {
		c.Imports.ScanTTLSeconds = def.Imports.ScanTTLSeconds
	}
	if c.Imports.MaxDepth <= 0 {
		c.Imports.MaxDepth = def.Imports.MaxDepth
	}
	if c.Server.MaxLineLength <= 0 {
		c.Server.MaxLineLength = def.Server.MaxLineLength
	}
	if c.Server.MaxHistory <= 0 {
		c.Server.MaxHistory = def.Server.MaxHistory
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	return SaveConfig(DefaultConfig(), GetDefaultConfigPath())
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return GetDefaultConfigPath()
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the completion settings and saves to file. Nil
// arguments are left alone.
func (c *Config) Update(configPath string, mode *string, magic *bool, maxMatches *int) error {
	if mode != nil {
		if _, err := matching.ParseMode(*mode); err != nil {
			return err
		}
		c.Completion.Mode = *mode
	}
	if magic != nil {
		c.Completion.CompleteMagicMethods = *magic
	}
	if maxMatches != nil {
		c.Completion.MaxMatches = *maxMatches
	}
	return SaveConfig(c, configPath)
}

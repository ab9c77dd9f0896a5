package config

import (
	"dario.cat/mergo"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"runtime"
)

// Config represents the application configuration
type Config struct {
	Bundle  BundleConfig  `yaml:"bundle,omitempty"`
	Player  PlayerConfig  `yaml:"player,omitempty"`
	Entries EntriesConfig `yaml:"entries,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// BundleConfig identifies the player bundle to load.  All fields but KS are required.
type BundleConfig struct {
	BundlerURL string `yaml:"bundler_url,omitempty"`
	PartnerID  string `yaml:"partner_id,omitempty"`
	UIConfID   string `yaml:"ui_conf_id,omitempty"`
	KS         string `yaml:"ks,omitempty"`
}

// PlayerConfig contains media player settings
type PlayerConfig struct {
	Type string `yaml:"type,omitempty"` // "mpv"
	Path string `yaml:"path,omitempty"`
	Args string `yaml:"args,omitempty"`
	// ServiceURL is the base URL media entries are resolved against.  Defaults to the bundler URL.
	ServiceURL      string `yaml:"service_url,omitempty"`
	Autoplay        *bool  `yaml:"autoplay,omitempty"`
	EnableAnalytics *bool  `yaml:"enable_analytics,omitempty"`
}

// EntriesConfig selects the media shown by the dashboard
type EntriesConfig struct {
	EntryID          string `yaml:"entry_id,omitempty"`
	AlternateEntryID string `yaml:"alternate_entry_id,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty"`
}

// AutoplayEnabled reports whether media should start playing once loaded.  Defaults to true.
func (p PlayerConfig) AutoplayEnabled() bool {
	return p.Autoplay == nil || *p.Autoplay
}

// AnalyticsEnabled reports whether the analytics plugin of the player should stay enabled.  Defaults to false.
func (p PlayerConfig) AnalyticsEnabled() bool {
	return p.EnableAnalytics != nil && *p.EnableAnalytics
}

// MediaServiceURL returns the base URL used to resolve entry ids into playable media
func (c *Config) MediaServiceURL() string {
	if c.Player.ServiceURL != "" {
		return c.Player.ServiceURL
	}
	return c.Bundle.BundlerURL
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
func Load() (*Config, error) {
	// 1. Start with base defaults
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	// 2. If no config file exists on disk, then write a default one
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// If there is an error saving the default config, then still let the application startup using the defaults.
		_ = save(cfg, configPath)
	}

	// 3. Apply dynamic defaults if necessary
	applyDynamicDefaults(cfg)

	// 4. Load the config from disk and merge it into the base defaults
	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	// Overrides the config with any values coming from the loaded file
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	// 5. Apply the environment variable overrides which take precedence
	if err = applyEnvVarOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	// Create config dir if not exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv("EMBEDPLAYER_CONFIG_PATH")
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "embedplayer", "config.yaml"), nil
}

// createBaseDefaultConfig creates a config with all default values.  The bundle and entries point at the public
// demo account so the dashboard works out of the box.
func createBaseDefaultConfig() *Config {
	return &Config{
		Bundle: BundleConfig{
			BundlerURL: "https://cdnapisec.kaltura.com",
			PartnerID:  "4900233",
			UIConfID:   "51188803",
		},
		Player: PlayerConfig{
			Type: "mpv",
			Path: "mpv",
		},
		Entries: EntriesConfig{
			EntryID: "1_2qf5wm4c",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to logging in the current directory if home directory cannot be determined
		return filepath.Join(".", "embedplayer.log")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\embedplayer\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, "embedplayer", "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", "embedplayer", "logs")
		}
	case "darwin":
		// macOS:  ~/Library/Logs/embedplayer
		basePath = filepath.Join(homedir, "Library", "Logs", "embedplayer")
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, "embedplayer", "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", "embedplayer", "logs")
		}
	}

	err = os.MkdirAll(basePath, 0700)
	if err != nil {
		// If we failed to create the directory, fallback to logging in the current directory
		return filepath.Join(".", "embedplayer.log")
	}
	return filepath.Join(basePath, "embedplayer.log")
}

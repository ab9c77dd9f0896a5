package config

import (
	"fmt"
	"os"
	"strconv"
)

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string) error
}

func setString(target func(*Config) *string) func(*Config, string) error {
	return func(c *Config, s string) error {
		*target(c) = s
		return nil
	}
}

func setBool(target func(*Config) **bool) func(*Config, string) error {
	return func(c *Config, s string) error {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		*target(c) = &v
		return nil
	}
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this environment variable
		// points to where the config should be loaded.  It is handled prior to loading the config.
		name:  "EMBEDPLAYER_CONFIG_PATH",
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) error { return nil }, // Special case, no-op
	},
	{
		name:  "EMBEDPLAYER_CONFIG_BUNDLE_URL",
		desc:  "Sets the base URL the player bundle is loaded from.  Default: https://cdnapisec.kaltura.com",
		apply: setString(func(c *Config) *string { return &c.Bundle.BundlerURL }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_BUNDLE_PARTNER_ID",
		desc:  "Sets the partner id of the bundle.  Default: demo partner",
		apply: setString(func(c *Config) *string { return &c.Bundle.PartnerID }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_BUNDLE_UI_CONF_ID",
		desc:  "Sets the ui conf id of the bundle.  Default: demo ui conf",
		apply: setString(func(c *Config) *string { return &c.Bundle.UIConfID }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_BUNDLE_KS",
		desc:  "Sets the credential token passed to the player.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Bundle.KS }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_PLAYER_TYPE",
		desc:  "Sets the video player backend.  Should be `mpv`.  Default: mpv",
		apply: setString(func(c *Config) *string { return &c.Player.Type }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_PLAYER_PATH",
		desc:  "Sets the path to a video player binary.  Default: mpv",
		apply: setString(func(c *Config) *string { return &c.Player.Path }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_PLAYER_ARGS",
		desc:  "Sets additional video player arguments.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Player.Args }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_PLAYER_SERVICE_URL",
		desc:  "Sets the base URL media entries are resolved against.  Default: the bundle URL",
		apply: setString(func(c *Config) *string { return &c.Player.ServiceURL }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_PLAYER_AUTOPLAY",
		desc:  "Start playing media as soon as it is loaded.  Default: true",
		apply: setBool(func(c *Config) **bool { return &c.Player.Autoplay }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_PLAYER_ENABLE_ANALYTICS",
		desc:  "Keep the player analytics plugin enabled.  Default: false",
		apply: setBool(func(c *Config) **bool { return &c.Player.EnableAnalytics }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_ENTRY_ID",
		desc:  "Sets the entry shown on startup.  Default: demo entry",
		apply: setString(func(c *Config) *string { return &c.Entries.EntryID }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_ALTERNATE_ENTRY_ID",
		desc:  "Sets the entry used by the switch media action.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Entries.AlternateEntryID }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: setString(func(c *Config) *string { return &c.Logging.Level }),
	},
	{
		name:  "EMBEDPLAYER_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: setString(func(c *Config) *string { return &c.Logging.FilePath }),
	},
}

func applyEnvVarOverrides(c *Config) error {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			if err := envVar.apply(c, value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar.name, err)
			}
		}
	}
	return nil
}

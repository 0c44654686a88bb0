// Package config loads emotepack settings from defaults, an optional TOML
// file, EMOTEPACK_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/provide-io/emotepack/pkg/emote/archive"
	"github.com/provide-io/emotepack/pkg/emote/naming"
	"github.com/provide-io/emotepack/pkg/emote/session"
	"github.com/provide-io/emotepack/pkg/emote/slots"
	"github.com/provide-io/emotepack/pkg/utils/permissions"
)

// Config holds application configuration.
type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Naming   NamingConfig  `mapstructure:"naming"`
	Archive  ArchiveConfig `mapstructure:"archive"`
	Slots    SlotsConfig   `mapstructure:"slots"`
	Decode   DecodeConfig  `mapstructure:"decode"`
	Output   OutputConfig  `mapstructure:"output"`
	Server   ServerConfig  `mapstructure:"server"`
}

// NamingConfig holds the file name template.
type NamingConfig struct {
	Mode      string `mapstructure:"mode"`
	Label     string `mapstructure:"label"`
	Extension string `mapstructure:"extension"`
}

// ArchiveConfig holds the archive export settings.
type ArchiveConfig struct {
	Format string `mapstructure:"format"`
	Name   string `mapstructure:"name"`
}

// SlotsConfig holds slot list settings.
type SlotsConfig struct {
	ReplacePolicy string `mapstructure:"replace_policy"`
	LowerCase     bool   `mapstructure:"lower_case"`
	ListFile      string `mapstructure:"list_file"`
}

// DecodeConfig holds preview decoding settings.
type DecodeConfig struct {
	ThumbnailSize uint          `mapstructure:"thumbnail_size"`
	Workers       int           `mapstructure:"workers"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// OutputConfig holds settings for files written to disk.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Permissions string `mapstructure:"permissions"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	DownloadTTL time.Duration `mapstructure:"download_ttl"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":      "log_level",
	"mode":           "naming.mode",
	"label":          "naming.label",
	"ext":            "naming.extension",
	"format":         "archive.format",
	"archive-name":   "archive.name",
	"replace-policy": "slots.replace_policy",
	"lower-case":     "slots.lower_case",
	"list":           "slots.list_file",
	"workers":        "decode.workers",
	"out":            "output.dir",
	"perms":          "output.permissions",
	"addr":           "server.addr",
}

// Path returns the configuration file path: $EMOTEPACK_CONFIG, or
// ~/.config/emotepack/config.toml.
func Path() string {
	if p := os.Getenv("EMOTEPACK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "emotepack", "config.toml")
}

// Load reads configuration. Env var overrides use prefix EMOTEPACK_; flags
// from fs that were set on the command line override everything else.
// fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("log_level", "")
	v.SetDefault("naming.mode", string(naming.ModeWithPrefix))
	v.SetDefault("naming.label", "")
	v.SetDefault("naming.extension", naming.DefaultExtension)
	v.SetDefault("archive.format", archive.DefaultFormat)
	v.SetDefault("archive.name", "emotions")
	v.SetDefault("slots.replace_policy", string(slots.PreserveBindings))
	v.SetDefault("slots.lower_case", false)
	v.SetDefault("slots.list_file", "")
	v.SetDefault("decode.thumbnail_size", slots.DefaultThumbnailSize)
	v.SetDefault("decode.workers", 4)
	v.SetDefault("decode.cache_ttl", slots.DefaultCacheTTL)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.permissions", permissions.FormatOctal(permissions.DefaultFilePerms))
	v.SetDefault("server.addr", "127.0.0.1:8765")
	v.SetDefault("server.download_ttl", 5*time.Minute)

	path := Path()
	v.SetConfigType("toml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("EMOTEPACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	// read config file if present; a file that exists must parse
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, c.Validate()
}

// Validate checks the values that are parsed later.
func (c Config) Validate() error {
	if _, err := naming.ParseMode(c.Naming.Mode); err != nil {
		return err
	}
	if _, err := archive.ForFormat(c.Archive.Format); err != nil {
		return err
	}
	if _, err := permissions.ParseOctalString(c.Output.Permissions); err != nil {
		return fmt.Errorf("output.permissions: %w", err)
	}
	if c.Decode.Workers < 1 {
		return fmt.Errorf("decode.workers must be at least 1, got %d", c.Decode.Workers)
	}
	return nil
}

// NamingSettings returns the parsed naming settings.
func (c Config) NamingSettings() naming.Config {
	mode, _ := naming.ParseMode(c.Naming.Mode)
	return naming.Config{Mode: mode, Label: c.Naming.Label, Extension: c.Naming.Extension}.Normalize()
}

// FilePerms returns the parsed output file permissions.
func (c Config) FilePerms() uint16 {
	perm, _ := permissions.ParseOctalString(c.Output.Permissions)
	return perm
}

// SessionOptions builds the session settings described by c.
func (c Config) SessionOptions(logger hclog.Logger, notifier session.Notifier) session.Options {
	return session.Options{
		Slots: slots.Options{
			ReplacePolicy:  slots.ParseReplacePolicy(c.Slots.ReplacePolicy),
			LowerCaseNames: c.Slots.LowerCase,
			Decoder: slots.NewDecoder(slots.DecoderOptions{
				ThumbnailSize: c.Decode.ThumbnailSize,
				CacheTTL:      c.Decode.CacheTTL,
				Logger:        logger,
			}),
			Logger: logger,
		},
		Naming:        c.NamingSettings(),
		ArchiveFormat: c.Archive.Format,
		ArchiveName:   c.Archive.Name,
		Notifier:      notifier,
		Logger:        logger,
	}
}

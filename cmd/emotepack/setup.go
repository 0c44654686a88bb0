package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/provide-io/emotepack/internal/config"
	"github.com/provide-io/emotepack/pkg"
	emoteerrors "github.com/provide-io/emotepack/pkg/emote/errors"
	"github.com/provide-io/emotepack/pkg/emote/session"
	"github.com/provide-io/emotepack/pkg/logging"
)

// sessionFlags are shared by every command that builds a session.
type sessionFlags struct {
	images []string
	add    []string
}

func addNamingFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Naming mode (withPrefix, plain)")
	cmd.Flags().String("label", "", "Character label used in file names")
	cmd.Flags().String("ext", "", "Extension used in file names")
}

func addSessionFlags(cmd *cobra.Command, sf *sessionFlags) {
	addNamingFlags(cmd)
	cmd.Flags().String("list", "", "Slot list file, one name per line")
	cmd.Flags().StringSliceVar(&sf.add, "add", nil, "Slot names to append after the list is loaded")
	cmd.Flags().StringSliceVarP(&sf.images, "images", "i", nil, "Image directories; files named <slot>.<ext> are bound to <slot>")
	cmd.Flags().String("replace-policy", "", "Keep or drop images when the list is replaced (preserve, clear)")
	cmd.Flags().Bool("lower-case", false, "Lower-case appended slot names")
	cmd.Flags().Int("workers", 0, "Parallel image decoders")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "", "Output directory")
	cmd.Flags().String("perms", "", "Permissions of written files (octal)")
}

// loadConfig reads the configuration and builds the command logger.
func loadConfig(cmd *cobra.Command) (config.Config, hclog.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	level, source := logging.ResolveLevel(cfg.LogLevel)
	logger := logging.NewLogger("emotepack", level, os.Stderr)
	logger.Debug("⚙️ Configuration loaded", "log_level", level, "source", source, "config", config.Path())
	return cfg, logger, nil
}

// buildSession creates a session from configuration and fills it from the
// list file, appended names and image directories.
func buildSession(ctx context.Context, cfg config.Config, sf *sessionFlags, logger hclog.Logger) (*session.Session, error) {
	sess, err := session.New(cfg.SessionOptions(logger, noticePrinter(os.Stderr)))
	if err != nil {
		return nil, err
	}
	if err := fillSession(ctx, sess, cfg, sf, logger); err != nil {
		return nil, err
	}
	return sess, nil
}

func fillSession(ctx context.Context, sess *session.Session, cfg config.Config, sf *sessionFlags, logger hclog.Logger) error {
	if cfg.Slots.ListFile != "" {
		if err := pkg.LoadListFile(sess, cfg.Slots.ListFile); err != nil && !emoteerrors.IsWarning(err) {
			return err
		}
	}

	for _, name := range sf.add {
		if _, err := sess.AddName(name); err != nil {
			logger.Debug("➕ Name not added", "name", name, "error", err)
		}
	}

	for _, dir := range sf.images {
		report, err := pkg.BindDirectory(ctx, sess, dir, cfg.Decode.Workers, logger)
		if err != nil {
			return fmt.Errorf("binding images from %s: %w", dir, err)
		}
		for _, name := range report.Skipped {
			logger.Info("⏭️ No slot for file", "file", name)
		}
	}
	return nil
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/provide-io/emotepack/internal/server"
	"github.com/provide-io/emotepack/pkg"
)

func newPackCmd() *cobra.Command {
	sf := &sessionFlags{}
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Export every bound slot into one archive",
		Example: `  emotepack pack --label Rin -i ./faces
  emotepack pack --list emotions.txt -i ./faces --format tar.zst -o dist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sess, err := buildSession(cmd.Context(), cfg, sf, logger)
			if err != nil {
				return err
			}

			report, err := pkg.Pack(cmd.Context(), sess, cfg.Output.Dir, cfg.FilePerms(), logger)
			if err != nil {
				return err
			}
			fmt.Println(reportTable(report))
			fmt.Println(filepath.Join(cfg.Output.Dir, report.Archive))
			return nil
		},
	}
	addSessionFlags(cmd, sf)
	addOutputFlags(cmd)
	cmd.Flags().String("format", "", "Archive format (zip, tar, tar.gz, tar.bz2, tar.zst, tar.lz4)")
	cmd.Flags().String("archive-name", "", "Archive base name")
	return cmd
}

func newSplitCmd() *cobra.Command {
	sf := &sessionFlags{}
	var clean bool
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Export every bound slot as its own file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sess, err := buildSession(cmd.Context(), cfg, sf, logger)
			if err != nil {
				return err
			}

			report, err := pkg.Split(cmd.Context(), sess, cfg.Output.Dir, cfg.FilePerms(), clean, logger)
			if err != nil {
				return err
			}
			fmt.Println(reportTable(report))
			return nil
		},
	}
	addSessionFlags(cmd, sf)
	addOutputFlags(cmd)
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove files of an earlier split first")
	return cmd
}

func newNamesCmd() *cobra.Command {
	sf := &sessionFlags{}
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Show the slot list and the file name of each slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sess, err := buildSession(cmd.Context(), cfg, sf, logger)
			if err != nil {
				return err
			}
			fmt.Println(cellsTable(sess.Render()))
			return nil
		},
	}
	addSessionFlags(cmd, sf)
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <archive>",
		Short: "List the entries of an exported archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, entries, err := pkg.Inspect(args[0])
			if err != nil {
				return err
			}
			fmt.Println(entriesTable(a, entries))
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <dir>",
		Short: "Check a split output directory against its manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			_, err = pkg.VerifyOutputWithLogger(args[0], logger)
			return err
		},
	}
}

func newServeCmd() *cobra.Command {
	sf := &sessionFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a session over HTTP with websocket notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			srv, err := server.New(cfg.SessionOptions(logger, nil), server.Options{
				DownloadTTL: cfg.Server.DownloadTTL,
				Logger:      logger,
			})
			if err != nil {
				return err
			}
			if err := fillSession(cmd.Context(), srv.Session(), cfg, sf, logger); err != nil {
				srv.Close()
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("emotepack listening on http://%s\n", cfg.Server.Addr)
			return srv.Run(ctx, cfg.Server.Addr)
		},
	}
	addSessionFlags(cmd, sf)
	cmd.Flags().String("addr", "", "Listen address")
	cmd.Flags().String("format", "", "Archive format")
	cmd.Flags().String("archive-name", "", "Archive base name")
	return cmd
}

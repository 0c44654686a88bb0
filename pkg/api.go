// Package pkg is the file-system facade over emotepack sessions used by
// the command-line tool.
package pkg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/provide-io/emotepack/internal/outdir"
	"github.com/provide-io/emotepack/pkg/emote/archive"
	"github.com/provide-io/emotepack/pkg/emote/export"
	"github.com/provide-io/emotepack/pkg/emote/session"
	"github.com/provide-io/emotepack/pkg/emote/slots"
)

// LoadImageFile reads path into a blob. The media type is detected from
// the content.
func LoadImageFile(path string) (slots.Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return slots.Blob{}, err
	}
	return slots.Blob{
		Name:      filepath.Base(path),
		MediaType: mimetype.Detect(data).String(),
		Data:      data,
	}, nil
}

// LoadListFile replaces the session's slot list with the lines of path.
func LoadListFile(sess *session.Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read slot list: %w", err)
	}
	return sess.LoadList(string(data))
}

// BindReport lists what BindDirectory did per file.
type BindReport struct {
	Bound   []string // slot names
	Ignored []string // file names that are not images
	Skipped []string // file names without a matching slot
}

// BindDirectory binds every file in dir whose name without extension
// matches a slot. Files whose sniffed media type is not an image are
// ignored and never claim a slot. Files are loaded and decoded by up to
// workers goroutines. When two images map to one slot, the one sorted
// last wins.
func BindDirectory(ctx context.Context, sess *session.Session, dir string, workers int, logger hclog.Logger) (*BindReport, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if workers < 1 {
		workers = 1
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool)
	for _, name := range sess.Registry().Names() {
		known[name] = true
	}

	// Latest image per slot, so concurrent binds never race on one slot.
	bySlot := make(map[string]string)
	report := &BindReport{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !known[stem] {
			report.Skipped = append(report.Skipped, e.Name())
			continue
		}

		mtype, err := mimetype.DetectFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if !(slots.Blob{MediaType: mtype.String()}).IsImage() {
			logger.Debug("🚫 Not an image", "file", e.Name(), "media_type", mtype.String())
			report.Ignored = append(report.Ignored, e.Name())
			continue
		}
		bySlot[stem] = e.Name()
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for slot, file := range bySlot {
		g.Go(func() error {
			blob, err := LoadImageFile(filepath.Join(dir, file))
			if err != nil {
				return err
			}

			p, err := sess.Bind(gctx, slot, blob)
			if err != nil {
				return err
			}
			if err := p.Wait(gctx); err != nil {
				return fmt.Errorf("decoding %s: %w", file, err)
			}

			logger.Debug("🖼️ Bound", "slot", slot, "file", file)
			mu.Lock()
			report.Bound = append(report.Bound, slot)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	sort.Strings(report.Bound)
	logger.Info("📥 Directory bound", "dir", dir, "bound", len(report.Bound), "ignored", len(report.Ignored), "skipped", len(report.Skipped))
	return report, nil
}

// Pack writes the session's archive into outDir.
func Pack(ctx context.Context, sess *session.Session, outDir string, perm uint16, logger hclog.Logger) (*export.Report, error) {
	return sess.ExportArchive(ctx, export.NewDirDownloader(outDir, perm, logger))
}

// Split writes each bound slot into outDir as its own file, followed by
// the export manifest. With clean set, files from an earlier split are
// removed first.
func Split(ctx context.Context, sess *session.Session, outDir string, perm uint16, clean bool, logger hclog.Logger) (*export.Report, error) {
	existing, err := outdir.Prepare(outDir)
	if err != nil {
		return nil, err
	}
	if existing && clean {
		if err := outdir.Clean(outDir); err != nil {
			return nil, err
		}
	}

	report, err := sess.ExportIndividual(ctx, export.NewDirDownloader(outDir, perm, logger))
	if err != nil {
		return report, err
	}

	if err := outdir.WriteManifest(outDir, outdir.NewManifest(sess.Config(), report)); err != nil {
		return report, fmt.Errorf("failed to write manifest: %w", err)
	}
	return report, nil
}

// Inspect lists the entries of an archive file, picking the format from
// the file name.
func Inspect(path string) (archive.Archiver, []archive.Entry, error) {
	a, err := archiveFor(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	entries, err := a.List(data)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s as %s: %w", path, a.Format(), err)
	}
	return a, entries, nil
}

// archiveFor matches the longest registered format suffix of path.
func archiveFor(path string) (archive.Archiver, error) {
	base := strings.ToLower(filepath.Base(path))
	best := ""
	for _, format := range archive.Formats() {
		if strings.HasSuffix(base, "."+format) && len(format) > len(best) {
			best = format
		}
	}
	if best == "" {
		return archive.ForFormat(strings.TrimPrefix(filepath.Ext(base), "."))
	}
	return archive.ForFormat(best)
}

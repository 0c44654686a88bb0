// Package export writes the bound images of a registry out as one
// archive or as individual files.
package export

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/emotepack/pkg/emote/archive"
	emoteerrors "github.com/provide-io/emotepack/pkg/emote/errors"
	"github.com/provide-io/emotepack/pkg/emote/naming"
	"github.com/provide-io/emotepack/pkg/emote/slots"
)

// DefaultArchiveName is the base name of the archive download.
const DefaultArchiveName = "emotions"

// Source lists the bindings to export in display order.
type Source interface {
	Bound() []slots.Binding
}

// File is one exported image.
type File struct {
	Slot     string `json:"slot"`
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Checksum string `json:"checksum"`
}

// Skip records a bound slot that could not be exported.
type Skip struct {
	Slot   string `json:"slot"`
	Reason string `json:"reason"`
}

// Report summarizes one export.
type Report struct {
	Files   []File `json:"files"`
	Skipped []Skip `json:"skipped,omitempty"`

	// Archive is the download name; empty for individual exports.
	Archive string `json:"archive,omitempty"`
	Size    int    `json:"size,omitempty"`
}

// Exporter hands exported files to a Downloader.
type Exporter struct {
	dl     Downloader
	logger hclog.Logger
}

// New creates an Exporter.
func New(dl Downloader, logger hclog.Logger) *Exporter {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Exporter{dl: dl, logger: logger.Named("export")}
}

// Archive packs every bound slot into one archive and downloads it once
// under archiveName (the format suffix is added when missing). With no
// bound slot nothing is downloaded and ErrNothingToExport is returned.
func (e *Exporter) Archive(ctx context.Context, src Source, cfg naming.Config, a archive.Archiver, archiveName string) (*Report, error) {
	bound := src.Bound()
	if len(bound) == 0 {
		e.logger.Warn("⚠️ Nothing to export")
		return nil, emoteerrors.ErrNothingToExport
	}
	if archiveName == "" {
		archiveName = DefaultArchiveName
	}

	report := &Report{Archive: archive.FileName(archiveName, a)}
	w := a.Create()

	for _, b := range bound {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := Resolve(b)
		if err != nil {
			report.skip(e.logger, b.Slot, err)
			continue
		}

		name := naming.ComputeFileName(b.Slot, cfg)
		if err := w.AddEntry(name, data); err != nil {
			report.skip(e.logger, b.Slot, err)
			continue
		}
		report.add(b.Slot, name, data)
		e.logger.Trace("📄 Entry added", "slot", b.Slot, "name", name, "size", len(data))
	}

	if len(report.Files) == 0 {
		e.logger.Warn("⚠️ No bound slot could be resolved", "skipped", len(report.Skipped))
		return report, emoteerrors.ErrNothingToExport
	}

	out, err := w.Finalize()
	if err != nil {
		e.logger.Error("❌ Archive finalize failed", "format", a.Format(), "error", err)
		return report, fmt.Errorf("%w: %v", emoteerrors.ErrArchiveFinalize, err)
	}
	report.Size = len(out)

	if err := e.dl.Download(ctx, out, report.Archive); err != nil {
		return report, fmt.Errorf("failed to download %s: %w", report.Archive, err)
	}

	e.logger.Info("📦 Archive exported", "name", report.Archive, "entries", len(report.Files), "skipped", len(report.Skipped), "size", report.Size)
	return report, nil
}

// Individual downloads each bound slot as its own file. Slots that fail
// to resolve or download are logged and skipped.
func (e *Exporter) Individual(ctx context.Context, src Source, cfg naming.Config) (*Report, error) {
	bound := src.Bound()
	if len(bound) == 0 {
		e.logger.Warn("⚠️ Nothing to export")
		return nil, emoteerrors.ErrNothingToExport
	}

	report := &Report{}
	for _, b := range bound {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		data, err := Resolve(b)
		if err != nil {
			report.skip(e.logger, b.Slot, err)
			continue
		}

		name := naming.ComputeFileName(b.Slot, cfg)
		if err := e.dl.Download(ctx, data, name); err != nil {
			report.skip(e.logger, b.Slot, err)
			continue
		}
		report.add(b.Slot, name, data)
	}

	e.logger.Info("🖼️ Individual export finished", "files", len(report.Files), "skipped", len(report.Skipped))
	return report, nil
}

func (r *Report) add(slot, name string, data []byte) {
	r.Files = append(r.Files, File{
		Slot:     slot,
		Name:     name,
		Size:     len(data),
		Checksum: slots.CalculateChecksum(data, slots.ChecksumSHA256),
	})
}

func (r *Report) skip(logger hclog.Logger, slot string, err error) {
	logger.Warn("⏭️ Skipping slot", "slot", slot, "error", err)
	r.Skipped = append(r.Skipped, Skip{Slot: slot, Reason: err.Error()})
}

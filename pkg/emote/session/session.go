// Package session ties a slot registry to the live naming settings and
// the export actions of one user.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/emotepack/pkg/emote/archive"
	"github.com/provide-io/emotepack/pkg/emote/export"
	"github.com/provide-io/emotepack/pkg/emote/naming"
	"github.com/provide-io/emotepack/pkg/emote/slots"
)

// Options configures a Session.
type Options struct {
	Slots         slots.Options
	Naming        naming.Config
	ArchiveFormat string
	ArchiveName   string
	Notifier      Notifier
	Logger        hclog.Logger
}

// Cell is one rendered slot: its position, name, computed file name and
// bound image, if any.
type Cell struct {
	Index    int            `json:"index"`
	Slot     string         `json:"slot"`
	FileName string         `json:"file_name"`
	Bound    bool           `json:"bound"`
	Preview  *slots.Preview `json:"preview,omitempty"`
}

// Session owns a registry plus the naming and archive settings read at
// export time. It is safe for concurrent use.
type Session struct {
	reg *slots.Registry

	mu          sync.RWMutex
	cfg         naming.Config
	archiver    archive.Archiver
	archiveName string

	notifier Notifier
	logger   hclog.Logger
}

// New creates a session holding the default emotions.
func New(opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Slots.Logger == nil {
		opts.Slots.Logger = opts.Logger
	}
	if opts.Naming.Mode == "" {
		opts.Naming.Mode = naming.ModeWithPrefix
	}
	if opts.ArchiveName == "" {
		opts.ArchiveName = export.DefaultArchiveName
	}

	a, err := archive.ForFormat(opts.ArchiveFormat)
	if err != nil {
		return nil, err
	}

	return &Session{
		reg:         slots.NewRegistry(opts.Slots),
		cfg:         opts.Naming.Normalize(),
		archiver:    a,
		archiveName: opts.ArchiveName,
		notifier:    opts.Notifier,
		logger:      opts.Logger.Named("session"),
	}, nil
}

// Registry returns the session's slot registry.
func (s *Session) Registry() *slots.Registry {
	return s.reg
}

// Config returns the current naming settings.
func (s *Session) Config() naming.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Archiver returns the archiver used by ExportArchive.
func (s *Session) Archiver() archive.Archiver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.archiver
}

// ArchiveFileName returns the download name of the next archive export.
func (s *Session) ArchiveFileName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return archive.FileName(s.archiveName, s.archiver)
}

// LoadList replaces the slot list from line-delimited text. An empty
// list restores the defaults and raises a warning notice; the warning is
// also returned.
func (s *Session) LoadList(text string) error {
	err := s.reg.ReplaceFromText(text)
	if err != nil {
		s.notify(err)
	}
	return err
}

// AddName appends one slot. Duplicates raise a notice and are returned as
// ErrDuplicateSlot.
func (s *Session) AddName(name string) (bool, error) {
	added, err := s.reg.Append(name)
	if err != nil {
		s.notify(err)
	}
	return added, err
}

// Bind attaches an image to a slot. Non-images are ignored silently.
func (s *Session) Bind(ctx context.Context, slot string, blob slots.Blob) (*slots.Pending, error) {
	p, err := s.reg.Bind(ctx, slot, blob)
	if err != nil {
		s.notify(err)
	}
	return p, err
}

// SetLabel changes the character label.
func (s *Session) SetLabel(label string) {
	s.mu.Lock()
	s.cfg.Label = strings.TrimSpace(label)
	s.mu.Unlock()
	s.logger.Debug("🏷️ Label changed", "label", label)
}

// SetMode changes the naming mode.
func (s *Session) SetMode(mode string) error {
	m, err := naming.ParseMode(mode)
	if err != nil {
		s.notify(err)
		return err
	}
	s.mu.Lock()
	s.cfg.Mode = m
	s.mu.Unlock()
	s.logger.Debug("🔀 Naming mode changed", "mode", string(m))
	return nil
}

// SetExtension changes the extension used in generated file names.
func (s *Session) SetExtension(ext string) {
	s.mu.Lock()
	s.cfg.Extension = naming.Config{Extension: ext}.EffectiveExtension()
	s.mu.Unlock()
}

// SetArchiveFormat selects the archive format by name or alias.
func (s *Session) SetArchiveFormat(format string) error {
	a, err := archive.ForFormat(format)
	if err != nil {
		s.notify(err)
		return err
	}
	s.mu.Lock()
	s.archiver = a
	s.mu.Unlock()
	return nil
}

// Reset restores the default emotions, drops every image and clears the
// label.
func (s *Session) Reset() {
	s.mu.Lock()
	s.cfg.Label = ""
	s.mu.Unlock()
	s.reg.Reset()
}

// Render derives the visual slot list from the current state.
func (s *Session) Render() []Cell {
	cfg := s.Config()
	names := s.reg.Names()

	cells := make([]Cell, len(names))
	for i, name := range names {
		cells[i] = Cell{
			Index:    i,
			Slot:     name,
			FileName: naming.ComputeFileName(name, cfg),
		}
		if b, ok := s.reg.Binding(name); ok {
			cells[i].Bound = true
			cells[i].Preview = b.Preview
		}
	}
	return cells
}

// ExportArchive packs every bound slot into one archive and hands it to dl.
func (s *Session) ExportArchive(ctx context.Context, dl export.Downloader) (*export.Report, error) {
	s.mu.RLock()
	cfg, a, name := s.cfg, s.archiver, s.archiveName
	s.mu.RUnlock()

	report, err := export.New(dl, s.logger).Archive(ctx, s.reg, cfg, a, name)
	if err != nil {
		s.notify(err)
		return report, err
	}
	s.notifier.Notify(Notice{
		Level:   LevelInfo,
		Message: fmt.Sprintf("%s exported with %d images", report.Archive, len(report.Files)),
	})
	return report, nil
}

// ExportIndividual hands each bound slot to dl as its own file.
func (s *Session) ExportIndividual(ctx context.Context, dl export.Downloader) (*export.Report, error) {
	cfg := s.Config()

	report, err := export.New(dl, s.logger).Individual(ctx, s.reg, cfg)
	if err != nil {
		s.notify(err)
		return report, err
	}
	s.notifier.Notify(Notice{
		Level:   LevelInfo,
		Message: fmt.Sprintf("%d images exported", len(report.Files)),
	})
	return report, nil
}

func (s *Session) notify(err error) {
	n := noticeFor(err)
	s.logger.Debug("📣 Notice", "level", string(n.Level), "message", n.Message)
	s.notifier.Notify(n)
}

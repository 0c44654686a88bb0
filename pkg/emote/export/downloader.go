package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/emotepack/pkg/utils/permissions"
)

// Downloader delivers one finished file to the user.
type Downloader interface {
	Download(ctx context.Context, data []byte, name string) error
}

// DownloaderFunc adapts a function to the Downloader interface.
type DownloaderFunc func(ctx context.Context, data []byte, name string) error

// Download calls f.
func (f DownloaderFunc) Download(ctx context.Context, data []byte, name string) error {
	return f(ctx, data, name)
}

// DirDownloader writes each download into a directory.
type DirDownloader struct {
	Dir      string
	FileMode os.FileMode
	DirMode  os.FileMode
	Logger   hclog.Logger
}

// NewDirDownloader creates a DirDownloader. A zero perm uses the default
// file permissions.
func NewDirDownloader(dir string, perm uint16, logger hclog.Logger) *DirDownloader {
	if perm == 0 {
		perm = permissions.DefaultFilePerms
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &DirDownloader{
		Dir:      dir,
		FileMode: permissions.FileMode(perm),
		DirMode:  permissions.FileMode(permissions.DefaultDirPerms),
		Logger:   logger.Named("download"),
	}
}

// Download writes data to Dir/name, creating parent directories. Names
// that would leave Dir are rejected.
func (d *DirDownloader) Download(ctx context.Context, data []byte, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !filepath.IsLocal(name) {
		return fmt.Errorf("refusing to write %q outside %s", name, d.Dir)
	}

	path := filepath.Join(d.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), d.DirMode); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, d.FileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	d.Logger.Debug("💾 File written", "path", path, "size", len(data))
	return nil
}

// MemoryDownloader keeps downloads in memory, keyed by name.
type MemoryDownloader struct {
	mu    sync.Mutex
	order []string
	files map[string][]byte
}

// NewMemoryDownloader creates an empty MemoryDownloader.
func NewMemoryDownloader() *MemoryDownloader {
	return &MemoryDownloader{files: make(map[string][]byte)}
}

// Download stores a copy of data under name.
func (m *MemoryDownloader) Download(ctx context.Context, data []byte, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		m.order = append(m.order, name)
	}
	m.files[name] = buf
	return nil
}

// Names returns the downloaded names in the order first seen.
func (m *MemoryDownloader) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Get returns the bytes downloaded under name.
func (m *MemoryDownloader) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	return data, ok
}

// Len returns the number of distinct downloads.
func (m *MemoryDownloader) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Package archive builds the single-file export of an emotion pack.
//
// An Archiver names a format ("zip", "tar.gz", ...) and hands out Writers;
// a Writer collects named entries in order and produces the archive bytes
// once, on Finalize.
package archive

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/provide-io/emotepack/pkg/emote/codec"
	emoteerrors "github.com/provide-io/emotepack/pkg/emote/errors"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = "zip"

// Writer receives archive entries and produces the final byte stream.
type Writer interface {
	// AddEntry appends a file entry. Entries keep insertion order.
	AddEntry(name string, data []byte) error

	// Finalize closes the archive and returns its bytes. A Writer cannot
	// be reused afterwards.
	Finalize() ([]byte, error)
}

// Archiver creates Writers for one archive format.
type Archiver interface {
	// Format returns the canonical format name, which doubles as the file suffix.
	Format() string

	// Create starts a new, empty archive.
	Create() Writer

	// List reads back the entries of an archive produced by this format.
	List(data []byte) ([]Entry, error)
}

// Entry is one file read back from an archive.
type Entry struct {
	Name string
	Data []byte
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Archiver)
	aliases    = map[string]string{
		"tgz":  "tar.gz",
		"tbz2": "tar.bz2",
		"tzst": "tar.zst",
	}
)

// Register makes an archiver available by its format name.
func Register(a Archiver) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[a.Format()] = a
}

// ForFormat returns the archiver for a format name or alias. Tar formats
// also accept the codec name ("tar.zstd"). An empty name selects
// DefaultFormat.
func ForFormat(format string) (Archiver, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	format = strings.TrimPrefix(format, ".")
	if format == "" {
		format = DefaultFormat
	}
	if canonical, ok := aliases[format]; ok {
		format = canonical
	}

	// "tar.<codec name>" resolves to the codec's canonical extension.
	if rest, ok := strings.CutPrefix(format, "tar."); ok {
		if op, err := codec.Lookup(rest); err == nil {
			format = "tar." + op.Extension()
		}
	}

	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", emoteerrors.ErrUnknownFormat, format, strings.Join(formatsLocked(), ", "))
	}
	return a, nil
}

// Formats lists the registered format names in sorted order.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return formatsLocked()
}

func formatsLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileName returns the archive file name for base, adding the format
// suffix unless base already ends with it.
func FileName(base string, a Archiver) string {
	suffix := "." + a.Format()
	if strings.HasSuffix(strings.ToLower(base), suffix) {
		return base
	}
	return base + suffix
}

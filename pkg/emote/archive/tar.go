package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/provide-io/emotepack/pkg/emote/codec"
)

func init() {
	Register(&TarArchiver{})
	for _, name := range codec.Names() {
		op, err := codec.Lookup(name)
		if err != nil {
			panic(err)
		}
		Register(&TarArchiver{Compression: op})
	}
}

// maxEntrySize caps a single entry read back by List.
const maxEntrySize = 1 << 30

// TarArchiver writes POSIX tar archives, optionally wrapped in a compression operation.
type TarArchiver struct {
	Compression codec.Operation
}

func (a *TarArchiver) Format() string {
	if a.Compression == nil {
		return "tar"
	}
	return "tar." + a.Compression.Extension()
}

func (a *TarArchiver) Create() Writer {
	tw := &tarWriter{compression: a.Compression, modified: time.Now()}
	tw.tw = tar.NewWriter(&tw.buf)
	return tw
}

func (a *TarArchiver) List(data []byte) ([]Entry, error) {
	var src io.Reader = bytes.NewReader(data)
	if a.Compression != nil {
		rc, err := a.Compression.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("opening %s stream: %w", a.Compression.Name(), err)
		}
		defer rc.Close()
		src = rc
	}

	tr := tar.NewReader(src)
	var entries []Entry
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar header: %w", err)
		}
		if header.Size < 0 || header.Size > maxEntrySize {
			return nil, fmt.Errorf("invalid entry size: %d", header.Size)
		}
		body := make([]byte, header.Size)
		if _, err := io.ReadFull(tr, body); err != nil {
			return nil, fmt.Errorf("reading tar entry %s: %w", header.Name, err)
		}
		entries = append(entries, Entry{Name: header.Name, Data: body})
	}
	return entries, nil
}

type tarWriter struct {
	buf         bytes.Buffer
	tw          *tar.Writer
	compression codec.Operation
	modified    time.Time
	closed      bool
}

func (w *tarWriter) AddEntry(name string, data []byte) error {
	if w.closed {
		return fmt.Errorf("tar archive already finalized")
	}

	header := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: w.modified,
		Format:  tar.FormatPAX,
	}
	if err := w.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("writing tar header %s: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("writing tar entry %s: %w", name, err)
	}
	return nil
}

func (w *tarWriter) Finalize() ([]byte, error) {
	if w.closed {
		return nil, fmt.Errorf("tar archive already finalized")
	}
	w.closed = true

	if err := w.tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar writer: %w", err)
	}
	if w.compression == nil {
		return w.buf.Bytes(), nil
	}

	packed, err := codec.Apply(w.compression, w.buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compressing tar: %w", err)
	}
	return packed, nil
}

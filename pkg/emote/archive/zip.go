package archive

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"
)

func init() {
	Register(&ZipArchiver{})
}

// ZipArchiver writes deflate-compressed zip archives.
type ZipArchiver struct{}

func (a *ZipArchiver) Format() string {
	return "zip"
}

func (a *ZipArchiver) Create() Writer {
	zw := &zipWriter{modified: time.Now()}
	zw.zw = zip.NewWriter(&zw.buf)
	return zw
}

func (a *ZipArchiver) List(data []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening zip entry %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading zip entry %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{Name: f.Name, Data: body})
	}
	return entries, nil
}

type zipWriter struct {
	buf      bytes.Buffer
	zw       *zip.Writer
	modified time.Time
	closed   bool
}

func (w *zipWriter) AddEntry(name string, data []byte) error {
	if w.closed {
		return fmt.Errorf("zip archive already finalized")
	}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: w.modified,
	})
	if err != nil {
		return fmt.Errorf("creating zip entry %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("writing zip entry %s: %w", name, err)
	}
	return nil
}

func (w *zipWriter) Finalize() ([]byte, error) {
	if w.closed {
		return nil, fmt.Errorf("zip archive already finalized")
	}
	w.closed = true

	if err := w.zw.Close(); err != nil {
		return nil, fmt.Errorf("closing zip writer: %w", err)
	}
	return w.buf.Bytes(), nil
}

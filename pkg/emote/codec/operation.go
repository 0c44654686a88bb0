// Package codec provides the stream compressors used by tar-based archive formats.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Operation identifiers. Values follow the PSPF operation table.
const (
	OP_NONE  = 0x00
	OP_GZIP  = 0x10
	OP_BZIP2 = 0x13
	OP_ZSTD  = 0x1B
	OP_LZ4   = 0x1C
)

// Operation is a reversible stream compression.
type Operation interface {
	// ID returns the operation identifier (e.g., OP_GZIP)
	ID() uint8

	// Name returns the lower-case name used in format strings ("gzip")
	Name() string

	// Extension returns the file suffix without a dot ("gz")
	Extension() string

	// NewWriter wraps w; closing the writer flushes the compressed trailer
	NewWriter(w io.Writer) (io.WriteCloser, error)

	// NewReader wraps r with a decompressor
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// BaseOperation carries the identity shared by every operation.
type BaseOperation struct {
	OpID   uint8
	OpName string
	OpExt  string
}

func (o *BaseOperation) ID() uint8 {
	return o.OpID
}

func (o *BaseOperation) Name() string {
	return o.OpName
}

func (o *BaseOperation) Extension() string {
	return o.OpExt
}

var (
	registryMu sync.RWMutex
	registry   = make(map[uint8]Operation)
)

// Register registers an operation implementation.
func Register(op Operation) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[op.ID()] = op
}

// Get retrieves an operation by ID.
func Get(id uint8) (Operation, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	op, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown operation: 0x%02x", id)
	}
	return op, nil
}

// Lookup finds an operation by name or file extension ("gzip", "gz").
func Lookup(name string) (Operation, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, op := range registry {
		if op.Name() == name || op.Extension() == name {
			return op, nil
		}
	}
	return nil, fmt.Errorf("unknown operation: %q", name)
}

// Names lists the registered operation names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for _, op := range registry {
		names = append(names, op.Name())
	}
	sort.Strings(names)
	return names
}

// Apply compresses input in memory.
func Apply(op Operation, input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := ApplyStream(op, bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ApplyStream compresses input into output.
func ApplyStream(op Operation, input io.Reader, output io.Writer) error {
	w, err := op.NewWriter(output)
	if err != nil {
		return fmt.Errorf("creating %s writer: %w", op.Name(), err)
	}
	if _, err := io.Copy(w, input); err != nil {
		w.Close()
		return fmt.Errorf("compressing %s stream: %w", op.Name(), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing %s writer: %w", op.Name(), err)
	}
	return nil
}

// Reverse decompresses input in memory.
func Reverse(op Operation, input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := ReverseStream(op, bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReverseStream decompresses input into output.
func ReverseStream(op Operation, input io.Reader, output io.Writer) error {
	r, err := op.NewReader(input)
	if err != nil {
		return fmt.Errorf("creating %s reader: %w", op.Name(), err)
	}
	defer r.Close()

	if _, err := io.Copy(output, r); err != nil {
		return fmt.Errorf("decompressing %s stream: %w", op.Name(), err)
	}
	return nil
}

package codec

import (
	"compress/gzip"
	"io"
)

func init() {
	Register(NewGzipOperation())
}

// GzipOperation implements GZIP compression
type GzipOperation struct {
	BaseOperation
}

// NewGzipOperation creates a new GZIP operation
func NewGzipOperation() *GzipOperation {
	return &GzipOperation{
		BaseOperation: BaseOperation{OpID: OP_GZIP, OpName: "gzip", OpExt: "gz"},
	}
}

func (o *GzipOperation) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.BestCompression)
}

func (o *GzipOperation) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

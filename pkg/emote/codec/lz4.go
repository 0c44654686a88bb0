package codec

import (
	"io"

	"github.com/pierrec/lz4"
)

func init() {
	Register(NewLZ4Operation())
}

// LZ4Operation implements LZ4 frame compression
type LZ4Operation struct {
	BaseOperation
}

// NewLZ4Operation creates a new LZ4 operation
func NewLZ4Operation() *LZ4Operation {
	return &LZ4Operation{
		BaseOperation: BaseOperation{OpID: OP_LZ4, OpName: "lz4", OpExt: "lz4"},
	}
}

func (o *LZ4Operation) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}

func (o *LZ4Operation) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

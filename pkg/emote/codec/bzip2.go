package codec

import (
	"io"

	"github.com/dsnet/compress/bzip2"
)

func init() {
	Register(NewBzip2Operation())
}

// Bzip2Operation implements BZIP2 compression
type Bzip2Operation struct {
	BaseOperation
}

// NewBzip2Operation creates a new BZIP2 operation
func NewBzip2Operation() *Bzip2Operation {
	return &Bzip2Operation{
		BaseOperation: BaseOperation{OpID: OP_BZIP2, OpName: "bzip2", OpExt: "bz2"},
	}
}

func (o *Bzip2Operation) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: 9})
}

func (o *Bzip2Operation) NewReader(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, &bzip2.ReaderConfig{})
}

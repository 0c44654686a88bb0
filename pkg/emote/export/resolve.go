package export

import (
	"fmt"

	emoteerrors "github.com/provide-io/emotepack/pkg/emote/errors"
	"github.com/provide-io/emotepack/pkg/emote/slots"
)

// Resolve returns the bytes to export for a binding: the raw blob when
// present, otherwise the payload of the preview's data URL.
func Resolve(b slots.Binding) ([]byte, error) {
	if len(b.Blob.Data) > 0 {
		return b.Blob.Data, nil
	}
	if b.Preview == nil || b.Preview.DataURL == "" {
		return nil, fmt.Errorf("%w: slot %q has no image data", emoteerrors.ErrResolveFailed, b.Slot)
	}

	_, data, err := slots.DecodeDataURL(b.Preview.DataURL)
	if err != nil {
		return nil, fmt.Errorf("%w: slot %q: %v", emoteerrors.ErrResolveFailed, b.Slot, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: slot %q has an empty data URL", emoteerrors.ErrResolveFailed, b.Slot)
	}
	return data, nil
}

package slots

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Blob is an opaque file handed to the registry: a name, a declared media
// type and its bytes.
type Blob struct {
	Name      string
	MediaType string
	Data      []byte
}

// IsImage reports whether the declared media type starts with "image/".
// Content is not inspected.
func (b Blob) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(b.MediaType)), "image/")
}

// EncodeDataURL renders data as a base64 data URL.
func EncodeDataURL(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL parses a data URL back into its media type and bytes.
// Both base64 and percent-encoded payloads are accepted.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL has no payload separator")
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta = m
		isBase64 = true
	}
	mediaType := meta
	if mediaType == "" {
		mediaType = "text/plain;charset=US-ASCII"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("decoding base64 payload: %w", err)
		}
		return mediaType, data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding percent-encoded payload: %w", err)
	}
	return mediaType, []byte(unescaped), nil
}

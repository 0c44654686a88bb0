// Package naming derives export file names for emotion slots.
//
// Labels and slot names are used verbatim: no escaping or filesystem
// sanitization is applied.
package naming

import (
	"fmt"
	"strings"

	emoteerrors "github.com/provide-io/emotepack/pkg/emote/errors"
)

// Mode selects the file name template.
type Mode string

const (
	// ModeWithPrefix renders "user-<label>_<slot>.<ext>".
	ModeWithPrefix Mode = "withPrefix"
	// ModePlain renders "<label>-<slot>.<ext>".
	ModePlain Mode = "plain"
)

const (
	// PlaceholderLabel stands in for an empty label.
	PlaceholderLabel = "____"
	// DefaultExtension is applied when no extension is configured.
	DefaultExtension = "png"
	// UserPrefix is the fixed token of ModeWithPrefix.
	UserPrefix = "user-"
)

// Config is the live naming state read at export time.
type Config struct {
	Mode      Mode   `json:"mode"`
	Label     string `json:"label"`
	Extension string `json:"extension"`
}

// DefaultConfig returns the naming state of a fresh session.
func DefaultConfig() Config {
	return Config{Mode: ModeWithPrefix, Extension: DefaultExtension}
}

// ParseMode accepts the canonical mode names and the short forms used by
// the CLI and HTTP API.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "withprefix", "prefix", "user":
		return ModeWithPrefix, nil
	case "plain", "name":
		return ModePlain, nil
	default:
		return "", fmt.Errorf("%w: %q (use withPrefix or plain)", emoteerrors.ErrInvalidMode, s)
	}
}

// EffectiveLabel returns the trimmed label, or the placeholder when it is empty.
func (c Config) EffectiveLabel() string {
	if label := strings.TrimSpace(c.Label); label != "" {
		return label
	}
	return PlaceholderLabel
}

// EffectiveExtension returns the extension without a leading dot,
// defaulting to "png". The extension is cosmetic; no re-encoding happens.
func (c Config) EffectiveExtension() string {
	ext := strings.TrimPrefix(strings.TrimSpace(c.Extension), ".")
	if ext == "" {
		return DefaultExtension
	}
	return ext
}

// Normalize returns a copy with label trimmed, extension cleaned and an
// unknown mode mapped to ModeWithPrefix.
func (c Config) Normalize() Config {
	mode, err := ParseMode(string(c.Mode))
	if err != nil {
		mode = ModeWithPrefix
	}
	return Config{
		Mode:      mode,
		Label:     strings.TrimSpace(c.Label),
		Extension: c.EffectiveExtension(),
	}
}

// ComputeFileName derives the export file name for slot.
func ComputeFileName(slot string, cfg Config) string {
	label := cfg.EffectiveLabel()
	ext := cfg.EffectiveExtension()
	if cfg.Mode == ModePlain {
		return label + "-" + slot + "." + ext
	}
	return UserPrefix + label + "_" + slot + "." + ext
}

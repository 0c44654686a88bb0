// Package errors holds the sentinel errors shared by the emote packages.
package errors

import "errors"

var (
	// Slot list errors 📋
	ErrEmptySlotList = errors.New("⚠️ slot list is empty, default emotions restored")
	ErrDuplicateSlot = errors.New("❌ slot already exists")
	ErrUnknownSlot   = errors.New("❌ unknown slot")

	// Export errors 📦
	ErrNothingToExport = errors.New("⚠️ nothing to export: no slot has an image")
	ErrArchiveFinalize = errors.New("❌ archive creation failed")
	ErrResolveFailed   = errors.New("❌ image data could not be resolved")

	// Configuration errors ⚙️
	ErrUnknownFormat = errors.New("❌ unknown archive format")
	ErrInvalidMode   = errors.New("❌ invalid naming mode")
)

// IsWarning reports whether err is a recovered condition the caller should
// surface to the user without treating the operation as failed.
func IsWarning(err error) bool {
	return errors.Is(err, ErrEmptySlotList) || errors.Is(err, ErrNothingToExport)
}

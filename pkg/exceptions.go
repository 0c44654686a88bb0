package pkg

import "errors"

var (
	// Output errors 📁
	ErrVerificationFailed = errors.New("❌ output verification failed")
	ErrNoManifest         = errors.New("❌ no export manifest found")

	// Input errors 📥
	ErrNotDirectory = errors.New("❌ not a directory")
)

package pkg

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/emotepack/internal/outdir"
)

// VerifyOutputWithLogger checks a split output directory against its
// manifest with a provided logger.
func VerifyOutputWithLogger(dir string, logger hclog.Logger) (*outdir.Result, error) {
	logger.Info("Verifying export output", "dir", dir)

	res, err := outdir.Verify(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Error("Manifest missing", "path", outdir.ManifestPath(dir))
			return nil, fmt.Errorf("%w in %s", ErrNoManifest, dir)
		}
		logger.Error("Manifest unreadable", "error", err)
		return nil, err
	}

	for _, name := range res.Valid {
		logger.Info("✓ Checksum valid", "file", name)
	}
	for _, name := range res.Missing {
		logger.Error("✗ File missing", "file", name)
	}
	for _, name := range res.Modified {
		logger.Error("✗ Checksum mismatch", "file", name)
	}

	if !res.OK() {
		logger.Error("✗ Output verification failed", "error_count", len(res.Missing)+len(res.Modified))
		return res, ErrVerificationFailed
	}

	logger.Info("✓ Output verification passed", "files", len(res.Valid))
	return res, nil
}

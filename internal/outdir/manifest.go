package outdir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/provide-io/emotepack/pkg/emote/export"
	"github.com/provide-io/emotepack/pkg/emote/naming"
	"github.com/provide-io/emotepack/pkg/emote/slots"
)

// ManifestName is the file written next to exported images.
const ManifestName = ".emotepack.json"

// Manifest records what an export wrote into a directory.
type Manifest struct {
	Timestamp time.Time     `json:"timestamp"`
	Label     string        `json:"label"`
	Mode      naming.Mode   `json:"mode"`
	Extension string        `json:"extension"`
	Archive   string        `json:"archive,omitempty"`
	Files     []export.File `json:"files"`
}

// NewManifest builds the manifest of an export report.
func NewManifest(cfg naming.Config, report *export.Report) *Manifest {
	cfg = cfg.Normalize()
	m := &Manifest{
		Timestamp: time.Now().UTC(),
		Label:     cfg.Label,
		Mode:      cfg.Mode,
		Extension: cfg.Extension,
		Archive:   report.Archive,
	}
	if report.Archive == "" {
		m.Files = append(m.Files, report.Files...)
	}
	return m
}

// ManifestPath returns the manifest location inside dir.
func ManifestPath(dir string) string {
	return filepath.Join(dir, ManifestName)
}

// WriteManifest writes m into dir.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ManifestPath(dir), data, 0o644)
}

// ReadManifest reads the manifest of dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(dir))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", ManifestPath(dir), err)
	}
	return &m, nil
}

// Result lists the outcome of Verify per file name.
type Result struct {
	Valid    []string `json:"valid"`
	Missing  []string `json:"missing,omitempty"`
	Modified []string `json:"modified,omitempty"`
}

// OK reports whether every listed file is present and unchanged.
func (r *Result) OK() bool {
	return len(r.Missing) == 0 && len(r.Modified) == 0
}

// Verify checks every file listed in dir's manifest against its checksum.
func Verify(dir string) (*Result, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, f := range m.Files {
		data, err := os.ReadFile(filepath.Join(dir, f.Name))
		if err != nil {
			if os.IsNotExist(err) {
				res.Missing = append(res.Missing, f.Name)
				continue
			}
			return nil, err
		}

		ok, err := slots.VerifyChecksum(data, f.Checksum)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if ok {
			res.Valid = append(res.Valid, f.Name)
		} else {
			res.Modified = append(res.Modified, f.Name)
		}
	}
	return res, nil
}

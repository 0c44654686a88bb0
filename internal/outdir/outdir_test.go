package outdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provide-io/emotepack/pkg/emote/export"
	"github.com/provide-io/emotepack/pkg/emote/naming"
	"github.com/provide-io/emotepack/pkg/emote/slots"
)

type bindings []slots.Binding

func (b bindings) Bound() []slots.Binding { return b }

func exportTo(t *testing.T, dir string) *export.Report {
	t.Helper()
	src := bindings{
		{Slot: "smile", Blob: slots.Blob{Data: []byte("smile-bytes")}},
		{Slot: "sad", Blob: slots.Blob{Data: []byte("sad-bytes")}},
	}
	cfg := naming.Config{Mode: naming.ModePlain, Label: "Rin"}

	report, err := export.New(export.NewDirDownloader(dir, 0, nil), nil).Individual(context.Background(), src, cfg)
	require.NoError(t, err)
	require.NoError(t, WriteManifest(dir, NewManifest(cfg, report)))
	return report
}

func TestPrepare(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	existing, err := Prepare(dir)
	require.NoError(t, err)
	require.False(t, existing)

	exportTo(t, dir)

	existing, err = Prepare(dir)
	require.NoError(t, err)
	require.True(t, existing)
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	exportTo(t, dir)

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, "Rin", m.Label)
	require.Equal(t, naming.ModePlain, m.Mode)
	require.Equal(t, "png", m.Extension)
	require.Len(t, m.Files, 2)
	require.Equal(t, "Rin-smile.png", m.Files[0].Name)
	require.Equal(t, slots.CalculateChecksum([]byte("smile-bytes"), slots.ChecksumSHA256), m.Files[0].Checksum)
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	exportTo(t, dir)

	res, err := Verify(dir)
	require.NoError(t, err)
	require.True(t, res.OK())
	require.Equal(t, []string{"Rin-smile.png", "Rin-sad.png"}, res.Valid)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Rin-smile.png"), []byte("edited"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "Rin-sad.png")))

	res, err = Verify(dir)
	require.NoError(t, err)
	require.False(t, res.OK())
	require.Equal(t, []string{"Rin-smile.png"}, res.Modified)
	require.Equal(t, []string{"Rin-sad.png"}, res.Missing)
}

func TestVerifyWithoutManifest(t *testing.T) {
	_, err := Verify(t.TempDir())
	require.True(t, os.IsNotExist(err))
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	exportTo(t, dir)
	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("keep"), 0o644))

	require.NoError(t, Clean(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "notes.txt", entries[0].Name())

	require.NoError(t, Clean(dir))
}

func TestCleanIgnoresNamesOutsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	outside := filepath.Join(root, "keep.png")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	m := &Manifest{Files: []export.File{{Slot: "smile", Name: "../keep.png"}}}
	require.NoError(t, WriteManifest(dir, m))

	require.NoError(t, Clean(dir))
	_, err := os.Stat(outside)
	require.NoError(t, err)
	_, err = os.Stat(ManifestPath(dir))
	require.True(t, os.IsNotExist(err))
}

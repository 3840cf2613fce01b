package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/streamkit/internal/format"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	quiet = true
	t.Cleanup(func() { quiet = false })

	dir := t.TempDir()
	payloadPath := filepath.Join(dir, "payload.bin")
	containerPath := filepath.Join(dir, "asset.asset")
	outPath := filepath.Join(dir, "out.bin")

	payload := make([]byte, 32<<10)
	for i := range payload {
		payload[i] = byte(i % 37)
	}
	require.NoError(t, os.WriteFile(payloadPath, payload, 0o644))

	err := runPack([]string{payloadPath, containerPath}, 42, "world_chunk", "lz", "terrain block")
	require.NoError(t, err)

	// The container parses and carries the metadata.
	raw, err := os.ReadFile(containerPath)
	require.NoError(t, err)
	h, err := format.ParseHeader(raw)
	require.NoError(t, err)
	assert.EqualValues(t, 42, h.AssetID)
	assert.Equal(t, "terrain block", h.NameString())
	assert.Less(t, len(raw), format.HeaderSize+len(payload), "repetitive payload must shrink")

	require.NoError(t, runUnpack([]string{containerPath, outPath}, 0))
	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// info accepts the container.
	require.NoError(t, runAssetInfo(containerPath))
}

func TestPackRejectsBadFlags(t *testing.T) {
	quiet = true
	t.Cleanup(func() { quiet = false })

	dir := t.TempDir()
	payloadPath := filepath.Join(dir, "p.bin")
	require.NoError(t, os.WriteFile(payloadPath, []byte{1, 2, 3}, 0o644))
	out := filepath.Join(dir, "o.asset")

	assert.Error(t, runPack([]string{payloadPath, out}, 1, "nonsense", "lz", ""))
	assert.Error(t, runPack([]string{payloadPath, out}, 1, "mesh", "nonsense", ""))
	assert.Error(t, runPack([]string{filepath.Join(dir, "missing"), out}, 1, "mesh", "lz", ""))
}

func TestUnpackRejectsCorrupt(t *testing.T) {
	quiet = true
	t.Cleanup(func() { quiet = false })

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.asset")
	require.NoError(t, os.WriteFile(bad, make([]byte, format.HeaderSize), 0o644))

	assert.Error(t, runUnpack([]string{bad, filepath.Join(dir, "out.bin")}, 0))
	assert.Error(t, runAssetInfo(bad))
}

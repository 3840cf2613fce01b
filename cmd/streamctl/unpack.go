package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/streamkit/internal/buf"
	"github.com/joshuapare/streamkit/internal/codec"
	"github.com/joshuapare/streamkit/internal/format"
)

func init() {
	rootCmd.AddCommand(newUnpackCmd())
}

func newUnpackCmd() *cobra.Command {
	var lod uint32

	cmd := &cobra.Command{
		Use:   "unpack <container> <output>",
		Short: "Extract and decompress one LOD payload",
		Long: `The unpack command extracts a LOD payload from an asset container,
decompressing it if needed, and writes the raw bytes to the output file.

Example:
  streamctl unpack 000000000000002a.asset terrain.bin --lod 0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnpack(args, lod)
		},
	}
	cmd.Flags().Uint32Var(&lod, "lod", 0, "LOD level to extract")
	return cmd
}

func runUnpack(args []string, lod uint32) error {
	containerPath, outPath := args[0], args[1]

	raw, err := os.ReadFile(containerPath)
	if err != nil {
		return fmt.Errorf("failed to read container: %w", err)
	}
	h, err := format.ParseHeader(raw)
	if err != nil {
		return fmt.Errorf("invalid container: %w", err)
	}

	clamped := h.ClampLOD(lod)
	if clamped != lod {
		printVerbose("LOD %d not present, using %d\n", lod, clamped)
	}
	li := h.LODs[clamped]
	if li.DataSize == 0 {
		return fmt.Errorf("lod %d has no payload", clamped)
	}

	diskSize := li.CompressedSize
	if diskSize == 0 {
		diskSize = li.DataSize
	}
	start := format.HeaderSize + int(li.DataOffset)
	if !buf.Has(raw, start, int(diskSize)) {
		return fmt.Errorf("lod %d payload extends past end of file", clamped)
	}

	payload := make([]byte, li.DataSize)
	n, err := codec.Decompress(raw[start:start+int(diskSize)], payload, li.Compression)
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	if err := os.WriteFile(outPath, payload[:n], 0o644); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	printInfo("Unpacked LOD %d of %#x -> %s (%d bytes)\n",
		clamped, uint64(h.AssetID), outPath, n)
	return nil
}

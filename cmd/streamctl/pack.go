package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/streamkit/internal/codec"
	"github.com/joshuapare/streamkit/internal/format"
	"github.com/joshuapare/streamkit/pkg/types"
	"github.com/joshuapare/streamkit/stream"
)

func init() {
	rootCmd.AddCommand(newPackCmd())
}

func newPackCmd() *cobra.Command {
	var (
		assetID     uint64
		assetType   string
		compression string
		name        string
	)

	cmd := &cobra.Command{
		Use:   "pack <payload> <output>",
		Short: "Pack a raw payload into an asset container",
		Long: `The pack command wraps a raw payload file into a single-LOD asset
container, optionally compressing it, and seals the header checksum.

Example:
  streamctl pack terrain.bin 000000000000002a.asset --id 42 --type world_chunk --compression lz`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(args, assetID, assetType, compression, name)
		},
	}
	cmd.Flags().Uint64Var(&assetID, "id", 0, "Asset ID (derived from --name when omitted)")
	cmd.Flags().StringVar(&assetType, "type", "mesh", "Asset type")
	cmd.Flags().StringVar(&compression, "compression", "none", "Payload compression")
	cmd.Flags().StringVar(&name, "name", "", "Asset name (max 63 bytes)")
	return cmd
}

func runPack(args []string, assetID uint64, assetType, compression, name string) error {
	payloadPath, outPath := args[0], args[1]

	if assetID == 0 {
		if name == "" {
			return fmt.Errorf("either --id or --name is required")
		}
		assetID = uint64(stream.AssetIDFromName(name))
		printVerbose("Derived asset id %#x from name %q\n", assetID, name)
	}

	typ, err := parseAssetType(assetType)
	if err != nil {
		return err
	}
	comp, err := parseCompression(compression)
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(payloadPath)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	if len(payload) == 0 {
		return fmt.Errorf("payload %s is empty", payloadPath)
	}

	printVerbose("Packing %s (%d bytes) as asset %#x\n", payloadPath, len(payload), assetID)

	disk := payload
	compressedSize := uint32(0)
	if comp != types.CompressionNone {
		dst := make([]byte, len(payload)+len(payload)/2+64)
		n, err := codec.Compress(payload, dst, comp)
		if err != nil {
			return fmt.Errorf("failed to compress payload: %w", err)
		}
		if n < len(payload) {
			disk = dst[:n]
			compressedSize = uint32(n)
		} else {
			// Compression did not help; store raw.
			comp = types.CompressionNone
			printVerbose("Compression gained nothing, storing raw\n")
		}
	}

	h := format.Header{
		AssetID:          types.AssetID(assetID),
		Type:             typ,
		Compression:      comp,
		UncompressedSize: uint64(len(payload)),
		CompressedSize:   uint64(len(disk)),
		LODCount:         1,
	}
	h.LODs[0] = types.LODInfo{
		DataSize:       uint32(len(payload)),
		CompressedSize: compressedSize,
		Compression:    comp,
	}
	h.SetName(name)

	out := make([]byte, format.HeaderSize+len(disk))
	if err := format.PutHeader(out, &h); err != nil {
		return fmt.Errorf("failed to build header: %w", err)
	}
	copy(out[format.HeaderSize:], disk)

	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write container: %w", err)
	}

	printInfo("Packed %s -> %s (%d -> %d bytes, %s)\n",
		payloadPath, outPath, len(payload), len(disk), comp)
	return nil
}

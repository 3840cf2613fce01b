package main

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/joshuapare/streamkit/pkg/types"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "streamctl",
	Short: "Inspect and build streamable asset containers",
	Long: `streamctl packs raw payloads into streamable asset containers,
inspects container headers, and extracts LOD payloads. Containers are the
on-disk format consumed by the streaming runtime.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as indented JSON
func printJSON(v interface{}) error {
	out, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

// parseCompression maps a flag value to a compression tag.
func parseCompression(name string) (types.Compression, error) {
	switch name {
	case "none":
		return types.CompressionNone, nil
	case "lz":
		return types.CompressionLZ, nil
	case "rle":
		return types.CompressionZstd, nil
	case "zstd":
		return types.CompressionZstdReal, nil
	case "bc7":
		return types.CompressionBC7, nil
	case "astc":
		return types.CompressionASTC, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (none, lz, rle, zstd, bc7, astc)", name)
	}
}

// parseAssetType maps a flag value to an asset type.
func parseAssetType(name string) (types.AssetType, error) {
	switch name {
	case "texture":
		return types.TypeTexture, nil
	case "mesh":
		return types.TypeMesh, nil
	case "audio":
		return types.TypeAudio, nil
	case "animation":
		return types.TypeAnimation, nil
	case "world_chunk":
		return types.TypeWorldChunk, nil
	default:
		return 0, fmt.Errorf("unknown asset type %q (texture, mesh, audio, animation, world_chunk)", name)
	}
}

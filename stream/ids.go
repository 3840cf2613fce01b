package stream

import (
	"github.com/zeebo/xxh3"

	"github.com/joshuapare/streamkit/pkg/types"
)

// AssetIDFromName derives a stable asset id from a human-readable name, for
// tooling and content pipelines that address assets by path.
func AssetIDFromName(name string) types.AssetID {
	return types.AssetID(xxh3.HashString(name))
}

package stream

import (
	"github.com/bytedance/sonic"

	"github.com/joshuapare/streamkit/pkg/types"
	"github.com/joshuapare/streamkit/stream/registry"
	"github.com/joshuapare/streamkit/stream/vtex"
)

// stateDump is the JSON shape produced by DumpState.
type stateDump struct {
	Frame    uint64            `json:"frame"`
	Stats    types.Stats       `json:"stats"`
	Memory   types.MemoryStats `json:"memory"`
	Assets   []registry.Info   `json:"assets"`
	Textures []textureDump     `json:"virtual_textures"`
}

type textureDump struct {
	ID       types.AssetID `json:"id"`
	Width    uint32        `json:"width"`
	Height   uint32        `json:"height"`
	PagesX   uint32        `json:"pages_x"`
	PagesY   uint32        `json:"pages_y"`
	MipCount uint32        `json:"mip_count"`
}

// DumpState serializes a debugging snapshot: frame, telemetry, pool
// occupancy, resident assets in LRU order, and virtual textures.
func (s *System) DumpState() ([]byte, error) {
	d := stateDump{
		Frame:  s.frame.Load(),
		Stats:  s.Stats(),
		Memory: s.MemoryStats(),
		Assets: s.reg.Snapshot(),
	}

	s.tmu.Lock()
	s.textures.All(func(_ types.AssetID, t *vtex.Texture) bool {
		d.Textures = append(d.Textures, textureDump{
			ID:       t.ID,
			Width:    t.Width,
			Height:   t.Height,
			PagesX:   t.PagesX,
			PagesY:   t.PagesY,
			MipCount: t.MipCount,
		})
		return true
	})
	s.tmu.Unlock()

	return sonic.MarshalIndent(d, "", "  ")
}

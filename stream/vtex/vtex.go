package vtex

import (
	"fmt"

	"github.com/joshuapare/streamkit/pkg/types"
)

const (
	// PageSize is the page edge length in texels.
	PageSize = 4096

	// IndirectionSize caps the indirection table edge in page cells.
	IndirectionSize = 2048

	// entryBytes is the indirection entry layout: cache index (LE16),
	// mip level, valid flag.
	entryBytes = 4
)

// Page identifies one virtual-texture page.
type Page struct {
	Mip  uint32
	X, Y uint32
}

// Texture is the page bookkeeping for one virtual texture.
type Texture struct {
	ID     types.AssetID
	Width  uint32
	Height uint32
	PagesX uint32
	PagesY uint32

	// MipCount is the number of halvings until the texture fits a single
	// page edge; mip levels run 0..MipCount inclusive.
	MipCount uint32

	indirection []byte // PagesX*PagesY entries, dense rows
}

// NewTexture validates the dimensions and builds the indirection table.
func NewTexture(id types.AssetID, width, height uint32) (*Texture, error) {
	if width == 0 || height == 0 {
		return nil, &types.Error{
			Kind: types.ErrKindState,
			Msg:  fmt.Sprintf("vtex: zero texture dimension %dx%d", width, height),
		}
	}
	pagesX := ceilDiv(width, PageSize)
	pagesY := ceilDiv(height, PageSize)
	if pagesX > IndirectionSize || pagesY > IndirectionSize {
		return nil, &types.Error{
			Kind: types.ErrKindState,
			Msg:  fmt.Sprintf("vtex: %dx%d exceeds indirection capacity", width, height),
		}
	}

	mips := uint32(0)
	for d := max32(width, height); d > PageSize; d >>= 1 {
		mips++
	}

	return &Texture{
		ID:          id,
		Width:       width,
		Height:      height,
		PagesX:      pagesX,
		PagesY:      pagesY,
		MipCount:    mips,
		indirection: make([]byte, int(pagesX)*int(pagesY)*entryBytes),
	}, nil
}

// PageAssetID packs the page address into a streamable asset id:
// texture id in the high bits, then mip, then y and x page coordinates.
func (t *Texture) PageAssetID(p Page) (types.AssetID, error) {
	if err := t.validate(p); err != nil {
		return 0, err
	}
	id := uint64(t.ID)<<40 | uint64(p.Mip)<<32 | uint64(p.Y)<<16 | uint64(p.X)
	return types.AssetID(id), nil
}

// MipPages returns the page grid dimensions at the given mip level.
func (t *Texture) MipPages(mip uint32) (x, y uint32) {
	w := t.Width >> mip
	h := t.Height >> mip
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return ceilDiv(w, PageSize), ceilDiv(h, PageSize)
}

// UpdateIndirection records the cache slot holding a resident page, or
// invalidates it on eviction. The entry is written to every mip-0 cell the
// page covers.
func (t *Texture) UpdateIndirection(p Page, cacheIndex uint16, valid bool) error {
	if err := t.validate(p); err != nil {
		return err
	}

	flag := byte(0)
	if valid {
		flag = 255
	}

	// A page at mip m covers a 2^m by 2^m block of mip-0 cells.
	span := uint32(1) << p.Mip
	x0, y0 := p.X*span, p.Y*span
	for y := y0; y < y0+span && y < t.PagesY; y++ {
		for x := x0; x < x0+span && x < t.PagesX; x++ {
			off := (int(y)*int(t.PagesX) + int(x)) * entryBytes
			t.indirection[off] = byte(cacheIndex)
			t.indirection[off+1] = byte(cacheIndex >> 8)
			t.indirection[off+2] = byte(p.Mip)
			t.indirection[off+3] = flag
		}
	}
	return nil
}

// Entry reads the indirection entry for a mip-0 page cell.
func (t *Texture) Entry(x, y uint32) (cacheIndex uint16, mip uint8, valid bool) {
	if x >= t.PagesX || y >= t.PagesY {
		return 0, 0, false
	}
	off := (int(y)*int(t.PagesX) + int(x)) * entryBytes
	cacheIndex = uint16(t.indirection[off]) | uint16(t.indirection[off+1])<<8
	return cacheIndex, t.indirection[off+2], t.indirection[off+3] == 255
}

// Indirection exposes the raw table for upload to the GPU side.
func (t *Texture) Indirection() []byte { return t.indirection }

func (t *Texture) validate(p Page) error {
	if p.Mip > t.MipCount {
		return &types.Error{
			Kind: types.ErrKindState,
			Msg:  fmt.Sprintf("vtex: mip %d out of range (max %d)", p.Mip, t.MipCount),
		}
	}
	px, py := t.MipPages(p.Mip)
	if p.X >= px || p.Y >= py {
		return &types.Error{
			Kind: types.ErrKindState,
			Msg:  fmt.Sprintf("vtex: page (%d,%d) out of range (%dx%d at mip %d)", p.X, p.Y, px, py, p.Mip),
		}
	}
	return nil
}

func ceilDiv(a, b uint32) uint32 { return (a + b - 1) / b }

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

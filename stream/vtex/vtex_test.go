package vtex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/streamkit/pkg/types"
)

func TestNewTexture_PageMath(t *testing.T) {
	tex, err := NewTexture(0x7, 16384, 16384)
	require.NoError(t, err)

	assert.Equal(t, uint32(4), tex.PagesX)
	assert.Equal(t, uint32(4), tex.PagesY)
	assert.Equal(t, uint32(2), tex.MipCount)

	// Non-square, non-multiple dimensions round up.
	tex, err = NewTexture(0x8, 5000, 4096)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tex.PagesX)
	assert.Equal(t, uint32(1), tex.PagesY)
	assert.Equal(t, uint32(1), tex.MipCount)

	// Fits one page: no mip chain needed.
	tex, err = NewTexture(0x9, 1024, 1024)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), tex.PagesX)
	assert.Zero(t, tex.MipCount)

	_, err = NewTexture(0xA, 0, 4096)
	assert.Error(t, err)
}

func TestTexture_MipPages(t *testing.T) {
	tex, err := NewTexture(0x7, 16384, 8192)
	require.NoError(t, err)

	x, y := tex.MipPages(0)
	assert.Equal(t, [2]uint32{4, 2}, [2]uint32{x, y})
	x, y = tex.MipPages(1)
	assert.Equal(t, [2]uint32{2, 1}, [2]uint32{x, y})
	x, y = tex.MipPages(2)
	assert.Equal(t, [2]uint32{1, 1}, [2]uint32{x, y})
}

func TestTexture_PageAssetID(t *testing.T) {
	tex, err := NewTexture(0x7, 16384, 16384)
	require.NoError(t, err)

	id, err := tex.PageAssetID(Page{Mip: 1, X: 1, Y: 1})
	require.NoError(t, err)
	assert.Equal(t, types.AssetID(0x7<<40|1<<32|1<<16|1), id)

	// Distinct coordinates yield distinct ids, mip included.
	id2, err := tex.PageAssetID(Page{Mip: 0, X: 1, Y: 1})
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)

	_, err = tex.PageAssetID(Page{Mip: 0, X: 4, Y: 0})
	assert.Error(t, err, "x out of range")
	_, err = tex.PageAssetID(Page{Mip: 3, X: 0, Y: 0})
	assert.Error(t, err, "mip out of range")
}

func TestTexture_UpdateIndirection(t *testing.T) {
	tex, err := NewTexture(0x7, 16384, 16384)
	require.NoError(t, err)

	require.NoError(t, tex.UpdateIndirection(Page{Mip: 0, X: 2, Y: 3}, 0x1234, true))

	idx, mip, valid := tex.Entry(2, 3)
	assert.Equal(t, uint16(0x1234), idx)
	assert.Equal(t, uint8(0), mip)
	assert.True(t, valid)

	_, _, valid = tex.Entry(1, 3)
	assert.False(t, valid, "neighbor untouched")

	require.NoError(t, tex.UpdateIndirection(Page{Mip: 0, X: 2, Y: 3}, 0, false))
	_, _, valid = tex.Entry(2, 3)
	assert.False(t, valid)
}

// TestTexture_CoarseMipFootprint: a mip-1 page fills its 2x2 block of mip-0
// cells so any cell resolves to the resident coarse page.
func TestTexture_CoarseMipFootprint(t *testing.T) {
	tex, err := NewTexture(0x7, 16384, 16384)
	require.NoError(t, err)

	require.NoError(t, tex.UpdateIndirection(Page{Mip: 1, X: 1, Y: 0}, 7, true))

	for _, cell := range [][2]uint32{{2, 0}, {3, 0}, {2, 1}, {3, 1}} {
		idx, mip, valid := tex.Entry(cell[0], cell[1])
		assert.True(t, valid, "cell %v", cell)
		assert.Equal(t, uint16(7), idx)
		assert.Equal(t, uint8(1), mip)
	}
	_, _, valid := tex.Entry(0, 0)
	assert.False(t, valid)

	// A finer page overrides its own cell only.
	require.NoError(t, tex.UpdateIndirection(Page{Mip: 0, X: 2, Y: 0}, 9, true))
	idx, mip, _ := tex.Entry(2, 0)
	assert.Equal(t, uint16(9), idx)
	assert.Equal(t, uint8(0), mip)
	idx, _, _ = tex.Entry(3, 0)
	assert.Equal(t, uint16(7), idx, "sibling cell still points at the coarse page")
}

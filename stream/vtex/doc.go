// Package vtex implements virtual-texture page bookkeeping.
//
// A virtual texture is addressed in fixed-size square pages. Each page is
// streamed as its own asset: the page's asset id packs the texture id, mip
// level, and page coordinates, so the regular request pipeline and resident
// registry handle page residency with no special cases.
//
// Every texture carries an indirection table with one 4-byte entry per mip-0
// page cell. A resident page at a coarser mip covers a square footprint of
// mip-0 cells; UpdateIndirection fills the whole footprint so a sampler can
// always resolve a cell to the best resident page.
package vtex

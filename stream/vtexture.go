package stream

import (
	"fmt"

	"github.com/joshuapare/streamkit/pkg/types"
	"github.com/joshuapare/streamkit/stream/vtex"
)

// CreateVirtualTexture registers a virtual texture so its pages can stream
// through the regular pipeline.
func (s *System) CreateVirtualTexture(id types.AssetID, width, height uint32) (*vtex.Texture, error) {
	t, err := vtex.NewTexture(id, width, height)
	if err != nil {
		return nil, err
	}
	s.tmu.Lock()
	defer s.tmu.Unlock()
	if _, dup := s.textures.Get(id); dup {
		return nil, &types.Error{
			Kind: types.ErrKindState,
			Msg:  fmt.Sprintf("stream: virtual texture %#x already exists", uint64(id)),
		}
	}
	s.textures.Put(id, t)
	return t, nil
}

// VirtualTexture looks up a registered virtual texture.
func (s *System) VirtualTexture(id types.AssetID) (*vtex.Texture, bool) {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	return s.textures.Get(id)
}

// RequestPage queues a load of one virtual-texture page.
func (s *System) RequestPage(texID types.AssetID, page vtex.Page) (Handle, error) {
	t, ok := s.VirtualTexture(texID)
	if !ok {
		return Handle{}, &types.Error{
			Kind: types.ErrKindNotFound,
			Msg:  fmt.Sprintf("stream: unknown virtual texture %#x", uint64(texID)),
		}
	}
	pageID, err := t.PageAssetID(page)
	if err != nil {
		return Handle{}, err
	}
	return s.RequestAsset(pageID, 0, types.PriorityHigh)
}

// PageData returns the resident bytes of one virtual-texture page.
func (s *System) PageData(texID types.AssetID, page vtex.Page) ([]byte, bool) {
	t, ok := s.VirtualTexture(texID)
	if !ok {
		return nil, false
	}
	pageID, err := t.PageAssetID(page)
	if err != nil {
		return nil, false
	}
	return s.AssetData(pageID, 0)
}

// UpdateIndirection records which cache slot holds a resident page, or
// invalidates the entry on eviction.
func (s *System) UpdateIndirection(texID types.AssetID, page vtex.Page, cacheIndex uint16, valid bool) error {
	t, ok := s.VirtualTexture(texID)
	if !ok {
		return &types.Error{
			Kind: types.ErrKindNotFound,
			Msg:  fmt.Sprintf("stream: unknown virtual texture %#x", uint64(texID)),
		}
	}
	return t.UpdateIndirection(page, cacheIndex, valid)
}

package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetIDFromName(t *testing.T) {
	a := AssetIDFromName("textures/terrain/cliff_01")
	b := AssetIDFromName("textures/terrain/cliff_02")

	assert.NotZero(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, AssetIDFromName("textures/terrain/cliff_01"), "ids are stable")
}

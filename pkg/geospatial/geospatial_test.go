package geospatial

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBound(t *testing.T) {
	b, err := NewBound(20, 22, 84, 86)
	require.NoError(t, err)
	assert.True(t, b.Contains(Point(21, 85)))
	assert.False(t, b.Contains(Point(23, 85)))

	_, err = NewBound(22, 20, 84, 86)
	assert.ErrorIs(t, err, ErrInvalidBound)

	_, err = NewBound(-91, 20, 84, 86)
	assert.ErrorIs(t, err, ErrInvalidBound)
}

func TestPointFeature(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(PointFeature(20.84, 85.10, map[string]interface{}{"level": "Red"}))

	raw, err := json.Marshal(fc)
	require.NoError(t, err)

	decoded, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, decoded.Features, 1)
	assert.Equal(t, orb.Point{85.10, 20.84}, decoded.Features[0].Geometry)
	assert.Equal(t, "Red", decoded.Features[0].Properties["level"])
}

func TestCentroid(t *testing.T) {
	_, ok := Centroid(nil)
	assert.False(t, ok)

	c, ok := Centroid([]orb.Point{{84, 20}, {86, 22}})
	require.True(t, ok)
	assert.InDelta(t, 85.0, c[0], 1e-9)
	assert.InDelta(t, 21.0, c[1], 1e-9)
}

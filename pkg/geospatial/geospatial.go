package geospatial

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ErrInvalidBound is returned for boxes outside WGS84 or with min > max
var ErrInvalidBound = errors.New("invalid bounding box")

// NewBound builds a lat/lng bounding box, validating ranges and ordering
func NewBound(minLat, maxLat, minLng, maxLng float64) (orb.Bound, error) {
	switch {
	case minLat < -90 || maxLat > 90 || minLng < -180 || maxLng > 180:
		return orb.Bound{}, fmt.Errorf("%w: coordinates out of range", ErrInvalidBound)
	case minLat > maxLat || minLng > maxLng:
		return orb.Bound{}, fmt.Errorf("%w: minimum exceeds maximum", ErrInvalidBound)
	}
	return orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{maxLng, maxLat},
	}, nil
}

// Point returns an orb point; orb orders coordinates lng, lat
func Point(lat, lng float64) orb.Point {
	return orb.Point{lng, lat}
}

// PointFeature wraps a point with properties for a FeatureCollection
func PointFeature(lat, lng float64, properties map[string]interface{}) *geojson.Feature {
	f := geojson.NewFeature(Point(lat, lng))
	for k, v := range properties {
		f.Properties[k] = v
	}
	return f
}

// Centroid returns the planar centroid of a set of points and false when
// there are none
func Centroid(points []orb.Point) (orb.Point, bool) {
	if len(points) == 0 {
		return orb.Point{}, false
	}
	c, _ := planar.CentroidArea(orb.MultiPoint(points))
	return c, true
}

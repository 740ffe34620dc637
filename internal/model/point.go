// Package model contains shared domain value types for TripAtlas.
package model

// China mainland bounding box used for coordinate validation.
// Points outside this box are rejected before any provider call.
const (
	ChinaMinLat = 3.86
	ChinaMaxLat = 53.55
	ChinaMinLng = 73.66
	ChinaMaxLng = 135.05
)

// Point is a WGS-84 coordinate pair (经度/纬度).
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// InChina reports whether the point lies within the China bounding box.
func (p Point) InChina() bool {
	return p.Lat >= ChinaMinLat && p.Lat <= ChinaMaxLat &&
		p.Lng >= ChinaMinLng && p.Lng <= ChinaMaxLng
}

// Centroid returns the arithmetic mean of a non-empty point set.
// The zero Point is returned for an empty slice.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sumLng, sumLat float64
	for _, p := range points {
		sumLng += p.Lng
		sumLat += p.Lat
	}
	n := float64(len(points))
	return Point{Lng: sumLng / n, Lat: sumLat / n}
}

// BoundingBox returns min/max latitude and longitude over a point set.
// ok is false for an empty slice.
func BoundingBox(points []Point) (minLat, maxLat, minLng, maxLng float64, ok bool) {
	if len(points) == 0 {
		return 0, 0, 0, 0, false
	}
	minLat, maxLat = points[0].Lat, points[0].Lat
	minLng, maxLng = points[0].Lng, points[0].Lng
	for _, p := range points[1:] {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lng < minLng {
			minLng = p.Lng
		}
		if p.Lng > maxLng {
			maxLng = p.Lng
		}
	}
	return minLat, maxLat, minLng, maxLng, true
}

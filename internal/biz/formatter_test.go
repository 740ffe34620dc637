package biz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripAtlas/internal/model"
)

func testColors() MarkerColors {
	return MarkerColors{
		Start:    "0x00FF00",
		End:      "0xFF0000",
		Waypoint: "0x1890FF",
		Supplier: "0xFF8C00",
	}
}

func testPathStyle() PathStyle {
	return PathStyle{Color: "0x1890FF", Weight: 6, Transparency: 1.0, MaxPoints: 50}
}

func TestMarkerFormatEmpty(t *testing.T) {
	f := NewMarkerFormatter(testColors())
	assert.Empty(t, f.Format(nil))
}

func TestMarkerFormatSingle(t *testing.T) {
	f := NewMarkerFormatter(testColors())
	got := f.Format([]model.Point{{Lng: 116.397428, Lat: 39.90923}})
	assert.Equal(t, "mid,0x00FF00,S:116.397428,39.909230", got)
}

func TestMarkerFormatRoles(t *testing.T) {
	f := NewMarkerFormatter(testColors())
	points := []model.Point{
		{Lng: 116.30, Lat: 39.90},
		{Lng: 116.40, Lat: 39.95},
		{Lng: 116.50, Lat: 40.00},
	}
	got := f.Format(points)
	tokens := strings.Split(got, "|")
	require.Len(t, tokens, 3)
	assert.True(t, strings.HasPrefix(tokens[0], "mid,0x00FF00,S:"))
	assert.True(t, strings.HasPrefix(tokens[1], "mid,0x1890FF,:"))
	assert.True(t, strings.HasPrefix(tokens[2], "mid,0xFF0000,E:"))
}

func TestMarkerFormatSupplier(t *testing.T) {
	f := NewMarkerFormatter(testColors())
	got := f.FormatSupplier(model.Point{Lng: 120.15, Lat: 30.28})
	assert.Equal(t, "mid,0xFF8C00,$:120.150000,30.280000", got)
}

func TestPathFormatTooShort(t *testing.T) {
	f := NewPathFormatter(testPathStyle())
	assert.Empty(t, f.Format(nil))
	assert.Empty(t, f.Format([]model.Point{{Lng: 116.4, Lat: 39.9}}))
}

func TestPathFormatStyle(t *testing.T) {
	f := NewPathFormatter(testPathStyle())
	got := f.Format([]model.Point{
		{Lng: 121.47, Lat: 31.23},
		{Lng: 121.48, Lat: 31.24},
	})
	assert.Equal(t, "6,0x1890FF,1:121.470000,31.230000;121.480000,31.240000", got)
}

func TestPathFormatSegments(t *testing.T) {
	f := NewPathFormatter(testPathStyle())
	segments := []PathSegment{
		{
			Points: []model.Point{{Lng: 121.47, Lat: 31.23}, {Lng: 121.48, Lat: 31.24}},
		},
		{
			Points: []model.Point{{Lng: 121.48, Lat: 31.24}, {Lng: 121.49, Lat: 31.25}},
			Color:  "0xFF0000",
			Weight: 3,
		},
		{
			// too short, skipped
			Points: []model.Point{{Lng: 121.49, Lat: 31.25}},
		},
	}
	got := f.FormatSegments(segments)
	parts := strings.Split(got, "|")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[0], "6,0x1890FF,1:"))
	assert.True(t, strings.HasPrefix(parts[1], "3,0xFF0000,1:"))
}

func TestPathSamplingBounds(t *testing.T) {
	f := NewPathFormatter(testPathStyle())

	points := make([]model.Point, 100)
	for i := range points {
		points[i] = model.Point{Lng: 116.0 + float64(i)*0.001, Lat: 39.0 + float64(i)*0.001}
	}

	got := f.Format(points)
	_, coords, found := strings.Cut(got, ":")
	require.True(t, found)

	pairs := strings.Split(coords, ";")
	assert.LessOrEqual(t, len(pairs), 51)

	first := fmt.Sprintf("%.6f,%.6f", points[0].Lng, points[0].Lat)
	last := fmt.Sprintf("%.6f,%.6f", points[99].Lng, points[99].Lat)
	assert.Equal(t, first, pairs[0])
	assert.Equal(t, last, pairs[len(pairs)-1])
}

func TestPathSamplingShortInputUntouched(t *testing.T) {
	pts := []model.Point{
		{Lng: 1, Lat: 1}, {Lng: 2, Lat: 2}, {Lng: 3, Lat: 3},
	}
	assert.Equal(t, pts, samplePoints(pts, 50))
	assert.Equal(t, pts, samplePoints(pts, 0))
}

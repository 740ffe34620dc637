package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"TripAtlas/internal/model"
)

func TestZoomNoPoints(t *testing.T) {
	assert.Equal(t, 12, CalculateOptimalZoom(nil, SizeDetail))
	assert.Equal(t, 12, CalculateOptimalZoom([]model.Point{}, SizeSupplier))
}

func TestZoomSinglePoint(t *testing.T) {
	p := []model.Point{{Lng: 116.4, Lat: 39.9}}
	assert.Equal(t, 15, CalculateOptimalZoom(p, SizeDetail))
	assert.Equal(t, 13, CalculateOptimalZoom(p, SizeThumbnail))
	assert.Equal(t, 16, CalculateOptimalZoom(p, SizeShare))
	assert.Equal(t, 15, CalculateOptimalZoom(p, SizeSupplier))
}

func TestZoomSpanThresholds(t *testing.T) {
	// Each pair spans delta degrees in latitude, margin included in expectation.
	cases := []struct {
		name  string
		delta float64
		want  int
	}{
		{"continental", 20.0, 3}, // span 24 > 10
		{"provincial", 2.0, 8},   // span 2.4 > 1
		{"metro", 0.2, 12},       // span 0.24 > 0.1
		{"district", 0.02, 15},   // span 0.024 > 0.01
		{"street", 0.001, 17},    // span 0.0012
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			points := []model.Point{
				{Lng: 110.0, Lat: 30.0},
				{Lng: 110.0, Lat: 30.0 + tc.delta},
			}
			assert.Equal(t, tc.want, CalculateOptimalZoom(points, SizeDetail))
		})
	}
}

func TestZoomSizeAdjustment(t *testing.T) {
	// Two points ~1.5km apart: delta 0.01, span 0.012 after margin.
	points := []model.Point{
		{Lng: 121.47, Lat: 31.23},
		{Lng: 121.47, Lat: 31.24},
	}
	assert.Equal(t, 15, CalculateOptimalZoom(points, SizeDetail))
	assert.Equal(t, 14, CalculateOptimalZoom(points, SizeThumbnail))
	assert.Equal(t, 16, CalculateOptimalZoom(points, SizeShare))
	assert.Equal(t, 15, CalculateOptimalZoom(points, SizeSupplier))
}

func TestZoomClamped(t *testing.T) {
	// Tiny span with SHARE (+1) would be 18, inside bounds.
	points := []model.Point{
		{Lng: 121.470000, Lat: 31.230000},
		{Lng: 121.470001, Lat: 31.230001},
	}
	got := CalculateOptimalZoom(points, SizeShare)
	assert.GreaterOrEqual(t, got, MinZoom)
	assert.LessOrEqual(t, got, MaxZoom)
	assert.Equal(t, 18, got)

	// Continental span with THUMBNAIL (-1) clamps to the floor.
	wide := []model.Point{
		{Lng: 80.0, Lat: 10.0},
		{Lng: 130.0, Lat: 50.0},
	}
	assert.Equal(t, 3, CalculateOptimalZoom(wide, SizeThumbnail))
}

func TestZoomOrderIndependent(t *testing.T) {
	a := []model.Point{
		{Lng: 116.3, Lat: 39.9},
		{Lng: 116.5, Lat: 40.0},
		{Lng: 116.4, Lat: 39.8},
	}
	b := []model.Point{a[2], a[0], a[1]}
	assert.Equal(t, CalculateOptimalZoom(a, SizeDetail), CalculateOptimalZoom(b, SizeDetail))
}

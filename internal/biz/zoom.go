package biz

import "TripAtlas/internal/model"

// spanMargin widens the bounding box span before mapping it to a zoom so
// edge points keep a visual margin from the image border.
const spanMargin = 1.2

// defaultZoom is the city-level zoom used when no points are supplied.
const defaultZoom = 12

// CalculateOptimalZoom computes the zoom level that fits all points for the
// given size class. It is pure and order-independent.
//
// 0 points 返回城市级默认值；1 point 使用各尺寸的单点缩放表；
// 多点按边界框跨度加 20% 余量后查表，再按尺寸微调。
func CalculateOptimalZoom(points []model.Point, size SizeClass) int {
	meta := size.Meta()

	switch len(points) {
	case 0:
		return defaultZoom
	case 1:
		return clampZoom(meta.SingleZoom)
	}

	minLat, maxLat, minLng, maxLng, ok := model.BoundingBox(points)
	if !ok {
		return defaultZoom
	}

	latSpan := maxLat - minLat
	lngSpan := maxLng - minLng
	span := latSpan
	if lngSpan > span {
		span = lngSpan
	}
	span *= spanMargin

	zoom := spanToZoom(span) + meta.ZoomAdjust
	return clampZoom(zoom)
}

// spanToZoom maps a degree span to a base zoom. The threshold table is a
// behavioral contract shared with existing cached entries.
func spanToZoom(span float64) int {
	switch {
	case span > 10.0:
		return 3
	case span > 1.0:
		return 8
	case span > 0.1:
		return 12
	case span > 0.01:
		return 15
	default:
		return 17
	}
}

func clampZoom(zoom int) int {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

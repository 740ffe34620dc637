package biz

import (
	"fmt"
	"strings"

	"TripAtlas/internal/model"
)

// MarkerColors configures per-role marker colors (provider 0xRRGGBB form).
type MarkerColors struct {
	Start    string
	End      string
	Waypoint string
	Supplier string
}

// PathStyle configures the default rendered path appearance.
type PathStyle struct {
	Color        string
	Weight       int
	Transparency float64
	MaxPoints    int
}

// MarkerFormatter builds provider marker expressions from ordered points.
type MarkerFormatter struct {
	colors MarkerColors
}

// NewMarkerFormatter creates a marker formatter with the given role colors.
func NewMarkerFormatter(colors MarkerColors) *MarkerFormatter {
	return &MarkerFormatter{colors: colors}
}

// Format classifies the first point as start ("S"), the last as end ("E")
// and everything between as an unlabeled waypoint, emitting one token per
// point joined by "|". A single point is start only.
func (f *MarkerFormatter) Format(points []model.Point) string {
	if len(points) == 0 {
		return ""
	}

	tokens := make([]string, 0, len(points))
	for i, p := range points {
		var color, label string
		switch {
		case i == 0:
			color, label = f.colors.Start, "S"
		case i == len(points)-1:
			color, label = f.colors.End, "E"
		default:
			color, label = f.colors.Waypoint, ""
		}
		tokens = append(tokens, markerToken(color, label, p))
	}
	return strings.Join(tokens, "|")
}

// FormatSupplier emits a single supplier marker with the dedicated "$" label.
func (f *MarkerFormatter) FormatSupplier(p model.Point) string {
	return markerToken(f.colors.Supplier, "$", p)
}

func markerToken(color, label string, p model.Point) string {
	return fmt.Sprintf("mid,%s,%s:%.6f,%.6f", color, label, p.Lng, p.Lat)
}

// PathFormatter builds provider path expressions from ordered points.
type PathFormatter struct {
	style PathStyle
}

// NewPathFormatter creates a path formatter with the given default style.
func NewPathFormatter(style PathStyle) *PathFormatter {
	return &PathFormatter{style: style}
}

// PathSegment is one independently styled stretch of a multi-segment path.
// Zero-valued style fields fall back to the formatter defaults.
type PathSegment struct {
	Points       []model.Point
	Color        string
	Weight       int
	Transparency float64
}

// Format renders a single path with the default style. Paths need at least
// two points; shorter inputs produce an empty string.
func (f *PathFormatter) Format(points []model.Point) string {
	return f.FormatSegments([]PathSegment{{Points: points}})
}

// FormatSegments renders each segment independently and joins them with "|".
// Segments with fewer than two points are skipped.
func (f *PathFormatter) FormatSegments(segments []PathSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if len(seg.Points) < 2 {
			continue
		}
		parts = append(parts, f.formatSegment(seg))
	}
	return strings.Join(parts, "|")
}

func (f *PathFormatter) formatSegment(seg PathSegment) string {
	color := seg.Color
	if color == "" {
		color = f.style.Color
	}
	weight := seg.Weight
	if weight <= 0 {
		weight = f.style.Weight
	}
	transparency := seg.Transparency
	if transparency <= 0 {
		transparency = f.style.Transparency
	}

	points := samplePoints(seg.Points, f.style.MaxPoints)
	coords := make([]string, 0, len(points))
	for _, p := range points {
		coords = append(coords, fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat))
	}
	return fmt.Sprintf("%d,%s,%g:%s", weight, color, transparency, strings.Join(coords, ";"))
}

// samplePoints reduces long paths by uniform-stride sampling. The first and
// last input points are always kept, so the output holds at most max+1
// points. 廉价近似，不做真正的折线抽稀。
func samplePoints(points []model.Point, max int) []model.Point {
	if max <= 0 || len(points) <= max {
		return points
	}

	stride := (len(points) + max - 1) / max
	sampled := make([]model.Point, 0, max+1)
	for i := 0; i < len(points); i += stride {
		sampled = append(sampled, points[i])
	}
	last := points[len(points)-1]
	if sampled[len(sampled)-1] != last {
		sampled = append(sampled, last)
	}
	return sampled
}

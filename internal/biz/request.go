package biz

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"

	"TripAtlas/internal/model"
)

// SizeClass names a fixed output preset for a rendered map.
type SizeClass string

const (
	// SizeDetail 行程详情页大图
	SizeDetail SizeClass = "DETAIL"
	// SizeThumbnail 列表缩略图，也是降级时的目标尺寸
	SizeThumbnail SizeClass = "THUMBNAIL"
	// SizeShare 分享卡片
	SizeShare SizeClass = "SHARE"
	// SizeSupplier 供应商详情页
	SizeSupplier SizeClass = "SUPPLIER"
)

// sizeMeta fixes pixel dimensions, the human scene name used in cache keys
// and placeholder URLs, and the zoom defaults per preset.
type sizeMeta struct {
	Width      int
	Height     int
	Scene      string
	SingleZoom int // zoom for exactly one point
	ZoomAdjust int // delta applied after span-based zoom
}

var sizeTable = map[SizeClass]sizeMeta{
	SizeDetail:    {Width: 750, Height: 500, Scene: "detail", SingleZoom: 15, ZoomAdjust: 0},
	SizeThumbnail: {Width: 240, Height: 180, Scene: "thumb", SingleZoom: 13, ZoomAdjust: -1},
	SizeShare:     {Width: 600, Height: 400, Scene: "share", SingleZoom: 16, ZoomAdjust: 1},
	SizeSupplier:  {Width: 400, Height: 300, Scene: "supplier", SingleZoom: 15, ZoomAdjust: 0},
}

// ParseSizeClass converts a request string (case-insensitive) to a SizeClass.
func ParseSizeClass(s string) (SizeClass, bool) {
	sc := SizeClass(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := sizeTable[sc]
	return sc, ok
}

// Valid reports whether the size class is one of the known presets.
func (s SizeClass) Valid() bool {
	_, ok := sizeTable[s]
	return ok
}

// Meta returns the preset metadata. Callers must have validated the class.
func (s SizeClass) Meta() sizeMeta {
	return sizeTable[s]
}

// Scene returns the human scene name, or "unknown" for an invalid class.
func (s SizeClass) Scene() string {
	if m, ok := sizeTable[s]; ok {
		return m.Scene
	}
	return "unknown"
}

const (
	// MinZoom / MaxZoom bound every rendered request.
	MinZoom = 3
	MaxZoom = 18

	// DefaultStyle 默认地图样式
	DefaultStyle = "normal"
	// DefaultFormat 正常渲染输出格式
	DefaultFormat = "png"
	// DegradedFormat 降级渲染输出格式
	DegradedFormat = "jpg"
)

// MapRequest is an immutable description of one static map render. Build it
// once per resolution and never mutate it; its cache key is its identity.
type MapRequest struct {
	Size    SizeClass    `json:"size"`
	Zoom    int          `json:"zoom"`
	Center  model.Point  `json:"center"`
	Markers string       `json:"markers,omitempty"`
	Paths   string       `json:"paths,omitempty"`
	Style   string       `json:"style"`
	Format  string       `json:"format"`
}

// Validate checks the request against the render constraints. It returns
// kratos BadRequest errors so the transport layer can map them directly.
func (r MapRequest) Validate() error {
	if !r.Size.Valid() {
		return errors.BadRequest("SIZE_CLASS_REQUIRED", fmt.Sprintf("unknown size class: %q", r.Size))
	}
	if r.Zoom < MinZoom || r.Zoom > MaxZoom {
		return errors.BadRequest("ZOOM_OUT_OF_RANGE", fmt.Sprintf("zoom %d outside [%d, %d]", r.Zoom, MinZoom, MaxZoom))
	}
	if !r.Center.InChina() {
		return errors.BadRequest("CENTER_OUT_OF_BOUNDS",
			fmt.Sprintf("center (%.6f, %.6f) outside supported region", r.Center.Lng, r.Center.Lat))
	}
	return nil
}

// CacheKey derives the canonical cache key: the md5 hex digest of a
// delimiter-joined string of every field that affects the rendered image.
// Field order and coordinate precision are a compatibility contract with
// entries already persisted; do not change them casually.
func (r MapRequest) CacheKey() string {
	canonical := fmt.Sprintf("%s|%d|%.6f,%.6f|%s|%s|%s|%s",
		r.Size.Scene(), r.Zoom, r.Center.Lng, r.Center.Lat,
		r.Markers, r.Paths, r.Style, r.Format)
	sum := md5.Sum([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// JSON serializes the request for the durable tier's diagnostic snapshot.
func (r MapRequest) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Simplified rebuilds the request for the degraded render attempt:
// thumbnail size, zoom lowered by 2 (floor 3), first/last markers only,
// no paths, jpg output. The cache identity changes with it.
func (r MapRequest) Simplified() MapRequest {
	zoom := r.Zoom - 2
	if zoom < MinZoom {
		zoom = MinZoom
	}
	return MapRequest{
		Size:    SizeThumbnail,
		Zoom:    zoom,
		Center:  r.Center,
		Markers: firstLastMarkers(r.Markers),
		Paths:   "",
		Style:   r.Style,
		Format:  DegradedFormat,
	}
}

// firstLastMarkers keeps only the first and last tokens of a formatted
// marker string. Tokens are joined by "|" in the provider wire format.
func firstLastMarkers(markers string) string {
	if markers == "" {
		return ""
	}
	tokens := strings.Split(markers, "|")
	if len(tokens) <= 2 {
		return markers
	}
	return tokens[0] + "|" + tokens[len(tokens)-1]
}

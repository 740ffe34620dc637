// Package service implements the HTTP-facing service layer.
// It translates transport DTOs into biz calls and back.
package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"TripAtlas/internal/biz"
	"TripAtlas/internal/model"
	xlog "TripAtlas/pkg/log"
)

// MapService exposes the map resolution pipeline over HTTP.
type MapService struct {
	uc     *biz.MapUsecase
	logger *xlog.LogHelper
}

// NewMapService creates the map service.
func NewMapService(uc *biz.MapUsecase, logger log.Logger) *MapService {
	return &MapService{
		uc:     uc,
		logger: xlog.NewLogHelper(logger),
	}
}

// PointDTO is a coordinate pair in request payloads.
type PointDTO struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// ResolveRequest asks for a static map over an ordered point list.
type ResolveRequest struct {
	Points []PointDTO `json:"points"`
	Size   string     `json:"size"`
	Style  string     `json:"style,omitempty"`
}

// SegmentDTO is one styled stretch of a multi-segment path request.
type SegmentDTO struct {
	Points       []PointDTO `json:"points"`
	Color        string     `json:"color,omitempty"`
	Weight       int        `json:"weight,omitempty"`
	Transparency float64    `json:"transparency,omitempty"`
}

// ResolveSegmentsRequest asks for a static map over styled path segments.
type ResolveSegmentsRequest struct {
	Segments []SegmentDTO `json:"segments"`
	Size     string       `json:"size"`
	Style    string       `json:"style,omitempty"`
}

// ResolveSupplierRequest asks for a supplier location map.
type ResolveSupplierRequest struct {
	Location PointDTO `json:"location"`
	Style    string   `json:"style,omitempty"`
}

// ResolveReply carries the resolved image URL.
type ResolveReply struct {
	URL      string `json:"url"`
	CacheKey string `json:"cache_key"`
	Level    string `json:"level"`
}

// WarmUpRequest selects what to warm: an explicit request batch, or the
// hottest durable entries when the batch is empty.
type WarmUpRequest struct {
	Limit    int              `json:"limit,omitempty"`
	Requests []ResolveRequest `json:"requests,omitempty"`
}

// WarmUpReply reports how many entries a warm-up run restored.
type WarmUpReply struct {
	Warmed int `json:"warmed"`
}

// StatusReply is the ops view of the pipeline.
type StatusReply struct {
	BreakerState string `json:"breaker_state"`
}

// Resolve renders a map for an ordered point list.
func (s *MapService) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveReply, error) {
	size, ok := biz.ParseSizeClass(req.Size)
	if !ok {
		return nil, errors.BadRequest("SIZE_CLASS_REQUIRED", "size must be one of DETAIL, THUMBNAIL, SHARE, SUPPLIER")
	}

	resolution, err := s.uc.Resolve(ctx, toPoints(req.Points), size, req.Style)
	if err != nil {
		return nil, err
	}
	return toReply(resolution), nil
}

// ResolveSegments renders a map over styled path segments.
func (s *MapService) ResolveSegments(ctx context.Context, req *ResolveSegmentsRequest) (*ResolveReply, error) {
	size, ok := biz.ParseSizeClass(req.Size)
	if !ok {
		return nil, errors.BadRequest("SIZE_CLASS_REQUIRED", "size must be one of DETAIL, THUMBNAIL, SHARE, SUPPLIER")
	}

	segments := make([]biz.PathSegment, 0, len(req.Segments))
	for _, seg := range req.Segments {
		segments = append(segments, biz.PathSegment{
			Points:       toPoints(seg.Points),
			Color:        seg.Color,
			Weight:       seg.Weight,
			Transparency: seg.Transparency,
		})
	}

	resolution, err := s.uc.ResolveSegments(ctx, segments, size, req.Style)
	if err != nil {
		return nil, err
	}
	return toReply(resolution), nil
}

// ResolveSupplier renders a single supplier location map.
func (s *MapService) ResolveSupplier(ctx context.Context, req *ResolveSupplierRequest) (*ResolveReply, error) {
	resolution, err := s.uc.ResolveSupplier(ctx, model.Point{Lng: req.Location.Lng, Lat: req.Location.Lat}, req.Style)
	if err != nil {
		return nil, err
	}
	return toReply(resolution), nil
}

// WarmUp pre-populates the fast tiers. An explicit request batch is resolved
// through the full pipeline; without one, the hottest durable entries are
// reloaded.
func (s *MapService) WarmUp(ctx context.Context, req *WarmUpRequest) (*WarmUpReply, error) {
	if len(req.Requests) > 0 {
		targets := make([]biz.WarmTarget, 0, len(req.Requests))
		for _, r := range req.Requests {
			size, ok := biz.ParseSizeClass(r.Size)
			if !ok {
				return nil, errors.BadRequest("SIZE_CLASS_REQUIRED", "size must be one of DETAIL, THUMBNAIL, SHARE, SUPPLIER")
			}
			targets = append(targets, biz.WarmTarget{Points: toPoints(r.Points), Size: size, Style: r.Style})
		}
		// batch errors are caller-side validation failures from buildRequest
		warmed, err := s.uc.WarmUpTargets(ctx, targets)
		if err != nil {
			return nil, err
		}
		return &WarmUpReply{Warmed: warmed}, nil
	}

	warmed, err := s.uc.WarmUp(ctx, req.Limit)
	if err != nil {
		return nil, errors.InternalServer("WARMUP_FAILED", err.Error())
	}
	return &WarmUpReply{Warmed: warmed}, nil
}

// Status reports the pipeline state for ops.
func (s *MapService) Status(_ context.Context) (*StatusReply, error) {
	return &StatusReply{BreakerState: s.uc.BreakerState()}, nil
}

// ClearLocalCache drops the in-process cache tier.
func (s *MapService) ClearLocalCache(_ context.Context) error {
	s.uc.ClearLocalCache()
	s.logger.Cache("local cache tier cleared by ops request")
	return nil
}

func toPoints(dtos []PointDTO) []model.Point {
	points := make([]model.Point, 0, len(dtos))
	for _, p := range dtos {
		points = append(points, model.Point{Lng: p.Lng, Lat: p.Lat})
	}
	return points
}

func toReply(r *biz.MapResolution) *ResolveReply {
	return &ResolveReply{
		URL:      r.URL,
		CacheKey: r.CacheKey,
		Level:    string(r.Level),
	}
}

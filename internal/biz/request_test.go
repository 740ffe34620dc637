package biz

import (
	"regexp"
	"testing"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripAtlas/internal/model"
)

func validRequest() MapRequest {
	return MapRequest{
		Size:    SizeDetail,
		Zoom:    15,
		Center:  model.Point{Lng: 121.473701, Lat: 31.230416},
		Markers: "mid,0x00FF00,S:121.470000,31.230000",
		Paths:   "6,0x1890FF,1:121.470000,31.230000;121.480000,31.240000",
		Style:   "normal",
		Format:  "png",
	}
}

func TestCacheKeyStable(t *testing.T) {
	a := validRequest()
	b := validRequest()

	key := a.CacheKey()
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), key)
	assert.Equal(t, key, b.CacheKey())
}

func TestCacheKeyChangesWithEveryField(t *testing.T) {
	base := validRequest()
	baseKey := base.CacheKey()

	mutations := map[string]MapRequest{}

	m := base
	m.Size = SizeThumbnail
	mutations["size"] = m

	m = base
	m.Zoom = 14
	mutations["zoom"] = m

	m = base
	m.Center = model.Point{Lng: 121.473702, Lat: 31.230416}
	mutations["center"] = m

	m = base
	m.Markers = ""
	mutations["markers"] = m

	m = base
	m.Paths = ""
	mutations["paths"] = m

	m = base
	m.Style = "dark"
	mutations["style"] = m

	m = base
	m.Format = "jpg"
	mutations["format"] = m

	for field, mutated := range mutations {
		assert.NotEqual(t, baseKey, mutated.CacheKey(), "changing %s must change the key", field)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validRequest().Validate())

	r := validRequest()
	r.Size = SizeClass("POSTER")
	err := r.Validate()
	require.Error(t, err)
	assert.Equal(t, "SIZE_CLASS_REQUIRED", kerrors.FromError(err).Reason)

	r = validRequest()
	r.Zoom = 2
	err = r.Validate()
	require.Error(t, err)
	assert.Equal(t, "ZOOM_OUT_OF_RANGE", kerrors.FromError(err).Reason)

	r = validRequest()
	r.Zoom = 19
	assert.Error(t, r.Validate())

	r = validRequest()
	r.Center = model.Point{Lng: 2.35, Lat: 48.85} // Paris
	err = r.Validate()
	require.Error(t, err)
	assert.Equal(t, "CENTER_OUT_OF_BOUNDS", kerrors.FromError(err).Reason)
}

func TestSimplified(t *testing.T) {
	r := validRequest()
	r.Zoom = 15
	r.Markers = "a|b|c|d"

	s := r.Simplified()
	assert.Equal(t, SizeThumbnail, s.Size)
	assert.Equal(t, 13, s.Zoom)
	assert.Equal(t, "a|d", s.Markers)
	assert.Empty(t, s.Paths)
	assert.Equal(t, "jpg", s.Format)
	assert.Equal(t, r.Center, s.Center)

	// zoom floor
	r.Zoom = 4
	assert.Equal(t, 3, r.Simplified().Zoom)

	// two markers survive untouched
	r.Markers = "a|b"
	assert.Equal(t, "a|b", r.Simplified().Markers)
}

func TestParseSizeClass(t *testing.T) {
	sc, ok := ParseSizeClass("detail")
	assert.True(t, ok)
	assert.Equal(t, SizeDetail, sc)

	sc, ok = ParseSizeClass(" SHARE ")
	assert.True(t, ok)
	assert.Equal(t, SizeShare, sc)

	_, ok = ParseSizeClass("poster")
	assert.False(t, ok)
}

func TestSceneNames(t *testing.T) {
	assert.Equal(t, "detail", SizeDetail.Scene())
	assert.Equal(t, "thumb", SizeThumbnail.Scene())
	assert.Equal(t, "share", SizeShare.Scene())
	assert.Equal(t, "supplier", SizeSupplier.Scene())
	assert.Equal(t, "unknown", SizeClass("POSTER").Scene())
}

package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobrunner/geocat/internal/domain"
)

func newPublishFixture(t *testing.T) (*fixture, *domain.Store, *mockSource) {
	t.Helper()
	x := newFixture(t)
	x.style(domain.StylePoint)
	x.style(domain.StyleLine)
	ws := x.workspace("osm", false)

	st := x.f.NewDataStore()
	st.Name = "extract"
	st.Workspace = domain.RefTo(ws)
	st.ConnectionParameters["dbtype"] = "geopkg"
	st.ConnectionParameters["database"] = "/data/extract.gpkg"
	require.NoError(t, x.cat.Add(x.ctx, st))

	roads := x.f.NewFeatureType()
	roads.Name = "roads"
	roads.GeometryType = "MultiLineString"
	poi := x.f.NewFeatureType()
	poi.Name = "poi"
	poi.GeometryType = "Point"

	return x, st, &mockSource{dbtype: "geopkg", resources: []*domain.Resource{roads, poi}}
}

func TestPublisher_PublishStore(t *testing.T) {
	x, st, src := newPublishFixture(t)
	p := NewPublisher(x.cat, testLogger(), src)

	result, err := p.PublishStore(x.ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "extract", result.Store)
	assert.Equal(t, []string{"osm:roads", "osm:poi"}, result.Published)
	assert.Empty(t, result.Skipped)

	roads := x.cat.LayerByName(x.ctx, "osm:roads")
	require.NotNil(t, roads)
	style, ok := roads.Object().DefaultStyle.Get()
	require.True(t, ok)
	assert.Equal(t, domain.StyleLine, style.Name)

	poi := x.cat.LayerByName(x.ctx, "osm:poi")
	require.NotNil(t, poi)
	style, ok = poi.Object().DefaultStyle.Get()
	require.True(t, ok)
	assert.Equal(t, domain.StylePoint, style.Name)

	assert.Len(t, x.cat.ResourcesByStore(x.ctx, st.ID), 2)
}

func TestPublisher_SkipsPublishedNames(t *testing.T) {
	x, st, src := newPublishFixture(t)
	p := NewPublisher(x.cat, testLogger(), src)

	_, err := p.PublishStore(x.ctx, st.ID)
	require.NoError(t, err)

	result, err := p.PublishStore(x.ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Published)
	assert.Equal(t, []string{"roads", "poi"}, result.Skipped)
	assert.Equal(t, 2, x.cat.Count(x.ctx, domain.KindLayer, nil))
}

func TestPublisher_Errors(t *testing.T) {
	x, st, src := newPublishFixture(t)

	_, err := NewPublisher(x.cat, testLogger()).PublishStore(x.ctx, st.ID)
	assert.ErrorIs(t, err, domain.ErrUnsupportedConnection)

	_, err = NewPublisher(x.cat, testLogger(), src).PublishStore(x.ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)

	boom := errors.New("file is not a database")
	broken := &mockSource{dbtype: "geopkg", err: boom}
	_, err = NewPublisher(x.cat, testLogger(), broken).PublishStore(x.ctx, st.ID)
	assert.ErrorIs(t, err, boom)
}

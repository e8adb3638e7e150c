package snapshot

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobrunner/geocat/internal/adapters/memory"
	"github.com/jobrunner/geocat/internal/adapters/storage"
	"github.com/jobrunner/geocat/internal/application"
	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

const toppSnapshot = `
defaults:
  workspace: topp
  dataStores:
    topp: states
workspaces:
  - id: ws-topp
    name: topp
  - id: ws-sf
    name: sf
    isolated: true
namespaces:
  - id: ns-topp
    prefix: topp
    uri: http://www.openplans.org/topp
  - prefix: sf
    uri: http://www.openplans.org/sf
    isolated: true
stores:
  - id: st-shapes
    name: shapes
    workspace: ws-topp
  - id: st-states
    name: states
    workspace: {name: topp}
    connectionParameters:
      dbtype: geopkg
      database: /data/states.gpkg
resources:
  - id: ft-roads
    name: roads
    title: Roads
    store: st-states
    namespace: ns-topp
    srs: EPSG:4326
    geometryType: MultiLineString
    nativeBoundingBox: {minx: -10, miny: -5, maxx: 10, maxy: 5, crs: EPSG:4326}
    keywords:
      - value: roads
        language: en
layers:
  - id: layer-roads
    resource: ft-roads
    defaultStyle: {name: line}
    advertised: false
layerGroups:
  - id: lg-base
    name: base
    workspace: ws-topp
    layers:
      - {id: layer-roads, kind: layer}
    styles:
      - null
`

const styleSnapshot = `
styles:
  - id: style-line
    name: line
    filename: line.sld
    format: sld
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newCatalog() *application.Catalog {
	return application.NewCatalog(memory.NewStore(), &output.NoOpMetrics{}, testLogger())
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func load(t *testing.T, dir, pattern string) *application.Catalog {
	t.Helper()
	c := newCatalog()
	loader := NewLoader(storage.NewLocalStorage(dir), pattern, nil, testLogger())
	require.NoError(t, c.Reload(context.Background(), loader.Load))
	return c
}

func TestLoader_ResolvesAcrossDocuments(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"10-topp.yaml":     toppSnapshot,
		"styles/line.yml":  styleSnapshot,
		"notes/README.txt": "ignored",
		"broken.yaml.bak":  "::",
	})
	c := load(t, dir, "")
	ctx := context.Background()

	assert.Empty(t, c.Unresolved(ctx))

	states := c.StoreByName(ctx, "topp", "states")
	require.NotNil(t, states)
	ws, ok := states.Object().Workspace.Get()
	require.True(t, ok)
	assert.Equal(t, "ws-topp", ws.ID)
	assert.Equal(t, "geopkg", states.Object().ConnectionParameters["dbtype"])
	assert.True(t, states.Object().Enabled, "enabled defaults to true")

	roads := c.LayerByName(ctx, "topp:roads")
	require.NotNil(t, roads)
	style, ok := roads.Object().DefaultStyle.Get()
	require.True(t, ok)
	assert.Equal(t, "style-line", style.ID)
	assert.False(t, roads.Object().Advertised)

	res := c.Resource(ctx, "ft-roads")
	require.NotNil(t, res)
	assert.Equal(t, "topp:roads", res.Object().QualifiedName())
	require.NotNil(t, res.Object().NativeBoundingBox)
	assert.Equal(t, 10.0, res.Object().NativeBoundingBox.MaxX)
	assert.Equal(t, []domain.Keyword{{Value: "roads", Language: "en"}}, res.Object().Keywords)

	base := c.LayerGroupByName(ctx, "topp", "base")
	require.NotNil(t, base)
	require.Len(t, base.Object().Layers, 1)
	assert.Equal(t, "layer-roads", base.Object().Layers[0].ID())
	assert.True(t, base.Object().Layers[0].IsResolved())

	sf := c.NamespaceByPrefix(ctx, "sf")
	require.NotNil(t, sf)
	assert.NotEmpty(t, sf.ID(), "missing ids are assigned on load")
}

func TestLoader_Defaults(t *testing.T) {
	dir := writeFiles(t, map[string]string{"catalog.yaml": toppSnapshot + styleSnapshot[1:]})
	c := load(t, dir, "")
	ctx := context.Background()

	ws := c.DefaultWorkspace(ctx)
	require.NotNil(t, ws)
	assert.Equal(t, "topp", ws.Object().Name)

	ns := c.DefaultNamespace(ctx)
	require.NotNil(t, ns)
	assert.Equal(t, "topp", ns.Object().Prefix)

	st := c.DefaultDataStore(ctx, "ws-topp")
	require.NotNil(t, st)
	assert.Equal(t, "states", st.Object().Name)
}

func TestLoader_Pattern(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"catalog.yaml": styleSnapshot,
		"draft.yaml":   "workspaces:\n  - name: draft\n",
	})
	c := load(t, dir, "catalog*")

	assert.Equal(t, 1, c.Count(context.Background(), domain.KindStyle, nil))
	assert.Equal(t, 0, c.Count(context.Background(), domain.KindWorkspace, nil))
}

func TestLoader_PendingReferencesSurvive(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"catalog.yaml": "layers:\n  - id: orphan\n    resource: ft-missing\n",
	})
	c := load(t, dir, "")

	unresolved := c.Unresolved(context.Background())
	require.Len(t, unresolved, 1)
	assert.Equal(t, "orphan", domain.IDOf(unresolved[0]))
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{
			name: "malformed yaml",
			dir: func(t *testing.T) string {
				return writeFiles(t, map[string]string{"catalog.yaml": "workspaces: [\n"})
			},
		},
		{
			name: "unknown field",
			dir: func(t *testing.T) string {
				return writeFiles(t, map[string]string{"catalog.yaml": "workspaces:\n  - name: a\n    colour: red\n"})
			},
		},
		{
			name: "missing directory",
			dir: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCatalog()
			loader := NewLoader(storage.NewLocalStorage(tt.dir(t)), "", nil, testLogger())
			err := c.Reload(context.Background(), loader.Load)
			var storageErr *domain.StorageError
			assert.ErrorAs(t, err, &storageErr)
			assert.False(t, c.Loaded())
		})
	}
}

func TestExport_RoundTrip(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.yaml": toppSnapshot, "b.yaml": styleSnapshot})
	first := load(t, dir, "")
	ctx := context.Background()

	doc, err := Export(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "topp", doc.Defaults.Workspace)
	assert.Equal(t, "states", doc.Defaults.DataStores["topp"])

	var buf strings.Builder
	require.NoError(t, doc.Encode(&buf))

	out := t.TempDir()
	require.NoError(t, storage.NewLocalStorage(out).Put(ctx, "export.yaml", strings.NewReader(buf.String())))
	second := load(t, out, "")

	assert.Equal(t, first.Counts(ctx), second.Counts(ctx))
	assert.Empty(t, second.Unresolved(ctx))

	roads := second.LayerByName(ctx, "topp:roads")
	require.NotNil(t, roads)
	assert.Equal(t, "layer-roads", roads.ID())
	assert.False(t, roads.Object().Advertised)
	style, ok := roads.Object().DefaultStyle.Get()
	require.True(t, ok)
	assert.Equal(t, "line", style.Name)

	base := second.LayerGroupByName(ctx, "topp", "base")
	require.NotNil(t, base)
	assert.Equal(t, domain.KindLayer, base.Object().Layers[0].Kind())

	assert.Equal(t, "topp", second.DefaultWorkspace(ctx).Object().Name)
	assert.Equal(t, "states", second.DefaultDataStore(ctx, "ws-topp").Object().Name)
}

func TestRef_YAML(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
maps:
  - name: world
    layers:
      - layer-1
      - {name: "topp:roads"}
      - null
`))
	require.NoError(t, err)
	require.Len(t, doc.Maps, 1)
	assert.Equal(t, []Ref{{ID: "layer-1"}, {Name: "topp:roads"}, {}}, doc.Maps[0].Layers)

	var buf strings.Builder
	require.NoError(t, doc.Encode(&buf))
	assert.Contains(t, buf.String(), "- layer-1\n")
	assert.Contains(t, buf.String(), "topp:roads")
	assert.Contains(t, buf.String(), "- null\n")
}

func TestDecode_Empty(t *testing.T) {
	doc, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, doc.Len())
}

package geopackage

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jobrunner/geocat/internal/adapters/memory"
	"github.com/jobrunner/geocat/internal/application"
	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

var sampleSchema = []string{
	`CREATE TABLE gpkg_spatial_ref_sys (
		srs_name TEXT NOT NULL, srs_id INTEGER PRIMARY KEY, organization TEXT NOT NULL,
		organization_coordsys_id INTEGER NOT NULL, definition TEXT NOT NULL, description TEXT)`,
	`CREATE TABLE gpkg_contents (
		table_name TEXT PRIMARY KEY, data_type TEXT NOT NULL, identifier TEXT, description TEXT DEFAULT '',
		last_change DATETIME, min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE, srs_id INTEGER)`,
	`CREATE TABLE gpkg_geometry_columns (
		table_name TEXT NOT NULL, column_name TEXT NOT NULL, geometry_type_name TEXT NOT NULL,
		srs_id INTEGER NOT NULL, z TINYINT NOT NULL, m TINYINT NOT NULL)`,
	`INSERT INTO gpkg_spatial_ref_sys VALUES
		('WGS 84', 4326, 'EPSG', 4326, 'GEOGCS[...]', NULL),
		('WGS 84 / Pseudo-Mercator', 3857, 'epsg', 3857, 'PROJCS[...]', NULL),
		('Undefined cartesian SRS', -1, 'NONE', -1, 'undefined', NULL)`,
	`CREATE TABLE poi (fid INTEGER PRIMARY KEY, geom BLOB, name TEXT)`,
	`CREATE TABLE roads (fid INTEGER PRIMARY KEY, geom BLOB)`,
	`CREATE TABLE "grid ""cells""" (fid INTEGER PRIMARY KEY, geom BLOB)`,
	`CREATE TABLE census (id INTEGER PRIMARY KEY, population INTEGER)`,
	`INSERT INTO poi (name) VALUES ('museum'), ('station'), ('harbour')`,
	`INSERT INTO roads (fid) VALUES (1), (2)`,
	`INSERT INTO gpkg_contents VALUES
		('poi', 'features', 'Points of interest', 'Tourist POIs', NULL, 8.1, 50.0, 8.9, 50.3, 4326),
		('roads', 'features', NULL, NULL, NULL, 900000, 6500000, 990000, 6600000, 3857),
		('grid "cells"', 'features', 'Grid', '', NULL, NULL, NULL, NULL, NULL, -1),
		('census', 'attributes', 'Census', '', NULL, NULL, NULL, NULL, NULL, NULL)`,
	`INSERT INTO gpkg_geometry_columns VALUES
		('poi', 'geom', 'POINT', 4326, 0, 0),
		('roads', 'geom', 'MULTILINESTRING', 3857, 0, 0),
		('grid "cells"', 'geom', 'POLYGON', -1, 0, 0)`,
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createDB(t *testing.T, stmts []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.gpkg")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("executing %q: %v", stmt, err)
		}
	}
	return path
}

func geopkgStore(path string) *domain.Store {
	return &domain.Store{
		Type:                 domain.StoreTypeData,
		Name:                 "sample",
		ConnectionParameters: map[string]string{"dbtype": DBType, "database": path},
	}
}

func TestSourceSupports(t *testing.T) {
	tests := []struct {
		name  string
		store *domain.Store
		want  bool
	}{
		{name: "geopackage", store: geopkgStore("/data/a.gpkg"), want: true},
		{
			name:  "dbtype is case insensitive",
			store: &domain.Store{ConnectionParameters: map[string]string{"dbtype": "GeoPkg", "database": "a.gpkg"}},
			want:  true,
		},
		{
			name:  "missing database",
			store: &domain.Store{ConnectionParameters: map[string]string{"dbtype": DBType}},
		},
		{
			name:  "postgis",
			store: &domain.Store{ConnectionParameters: map[string]string{"dbtype": "postgis", "database": "gis"}},
		},
		{
			name:  "coverage store",
			store: &domain.Store{Type: domain.StoreTypeCoverage, ConnectionParameters: map[string]string{"dbtype": DBType, "database": "a.gpkg"}},
		},
		{name: "nil store"},
	}

	s := NewSource(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Supports(tt.store); got != tt.want {
				t.Errorf("Supports() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSourceDiscover(t *testing.T) {
	path := createDB(t, sampleSchema)
	s := NewSource(testLogger())
	defer func() { _ = s.Close() }()

	resources, err := s.Discover(context.Background(), geopkgStore(path))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(resources) != 3 {
		t.Fatalf("len(resources) = %d, want 3", len(resources))
	}

	byName := make(map[string]*domain.Resource)
	for _, r := range resources {
		byName[r.Name] = r
	}

	poi := byName["poi"]
	if poi == nil {
		t.Fatal("poi not discovered")
	}
	if poi.Title != "Points of interest" || poi.Abstract != "Tourist POIs" {
		t.Errorf("poi title/abstract = %q/%q", poi.Title, poi.Abstract)
	}
	if poi.SRS != "EPSG:4326" {
		t.Errorf("poi SRS = %q, want EPSG:4326", poi.SRS)
	}
	if poi.GeometryType != "POINT" {
		t.Errorf("poi geometry = %q, want POINT", poi.GeometryType)
	}
	if poi.NativeBoundingBox == nil || poi.NativeBoundingBox.MaxY != 50.3 {
		t.Errorf("poi native bbox = %+v", poi.NativeBoundingBox)
	}
	if poi.LatLonBoundingBox == nil || poi.LatLonBoundingBox.MinX != 8.1 {
		t.Errorf("poi lat/lon bbox = %+v", poi.LatLonBoundingBox)
	}
	if poi.Metadata["feature_count"] != "3" {
		t.Errorf("poi feature_count = %q, want 3", poi.Metadata["feature_count"])
	}
	if poi.Kind() != domain.KindFeatureType || !poi.Enabled || !poi.Advertised {
		t.Errorf("poi kind/enabled/advertised = %s/%v/%v", poi.Kind(), poi.Enabled, poi.Advertised)
	}

	roads := byName["roads"]
	if roads == nil {
		t.Fatal("roads not discovered")
	}
	if roads.SRS != "EPSG:3857" {
		t.Errorf("roads SRS = %q, want EPSG:3857", roads.SRS)
	}
	if roads.Title != "roads" {
		t.Errorf("roads title = %q, want the table name", roads.Title)
	}
	if roads.LatLonBoundingBox != nil {
		t.Error("projected bounds must not be copied to lat/lon bounds")
	}

	grid := byName[`grid "cells"`]
	if grid == nil {
		t.Fatal("quoted table not discovered")
	}
	if grid.SRS != "" || grid.NativeBoundingBox != nil {
		t.Errorf("grid SRS/bbox = %q/%+v, want undefined", grid.SRS, grid.NativeBoundingBox)
	}
	if grid.Metadata["feature_count"] != "0" {
		t.Errorf("grid feature_count = %q, want 0", grid.Metadata["feature_count"])
	}
}

func TestSourceDiscoverErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.gpkg") },
		},
		{
			name:    "plain sqlite",
			path:    func(t *testing.T) string { return createDB(t, []string{"CREATE TABLE t (id INTEGER)"}) },
			wantErr: ErrNotGeoPackage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSource(testLogger())
			defer func() { _ = s.Close() }()

			_, err := s.Discover(context.Background(), geopkgStore(tt.path(t)))
			var storageErr *domain.StorageError
			if !errors.As(err, &storageErr) {
				t.Fatalf("Discover() error = %v, want StorageError", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Discover() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSourceIsReadOnly(t *testing.T) {
	path := createDB(t, sampleSchema)
	s := NewSource(testLogger())
	defer func() { _ = s.Close() }()

	db, err := s.open(context.Background(), path)
	if err != nil {
		t.Fatalf("open() error = %v", err)
	}
	if _, err := db.Exec("DELETE FROM poi"); err == nil {
		t.Error("write through the source connection should fail")
	}
}

func TestPublishGeoPackageStore(t *testing.T) {
	ctx := context.Background()
	catalog := application.NewCatalog(memory.NewStore(), &output.NoOpMetrics{}, testLogger())
	f := application.Factory{}

	for _, name := range []string{domain.StylePoint, domain.StyleLine, domain.StylePolygon, domain.StyleGeneric} {
		st := f.NewStyle()
		st.Name = name
		st.Filename = name + ".sld"
		if err := catalog.Add(ctx, st); err != nil {
			t.Fatalf("adding style %s: %v", name, err)
		}
	}
	ws := f.NewWorkspace()
	ws.Name = "osm"
	ns := f.NewNamespace()
	ns.Prefix = "osm"
	ns.URI = "http://osm.example.org"
	store := geopkgStore(createDB(t, sampleSchema))
	store.ID = ""
	store.Enabled = true
	store.Workspace = domain.RefTo(ws)
	for _, info := range []domain.Info{ws, ns, store} {
		if err := catalog.Add(ctx, info); err != nil {
			t.Fatalf("adding %s: %v", info.Kind(), err)
		}
	}

	src := NewSource(testLogger())
	defer func() { _ = src.Close() }()
	result, err := application.NewPublisher(catalog, testLogger(), src).PublishStore(ctx, store.ID)
	if err != nil {
		t.Fatalf("PublishStore() error = %v", err)
	}
	if len(result.Published) != 3 {
		t.Fatalf("published = %v, want 3 layers", result.Published)
	}

	layer := catalog.LayerByName(ctx, "osm:roads")
	if layer == nil {
		t.Fatal("layer osm:roads missing")
	}
	style, ok := layer.Object().DefaultStyle.Get()
	if !ok || style.Name != domain.StyleLine {
		t.Errorf("roads default style = %v, want line", style)
	}
}

// Package geopackage discovers the feature types of GeoPackage data stores.
package geopackage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

// DBType is the connection parameter value of GeoPackage data stores.
const DBType = "geopkg"

const driverName = "sqlite3_geocat_readonly"

// Connections of the read-only driver refuse writes even when the file
// itself is writable.
func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			_, err := conn.Exec("PRAGMA query_only = ON", []driver.Value{})
			return err
		},
	})
}

// ErrNotGeoPackage is returned for SQLite files without GeoPackage metadata tables.
var ErrNotGeoPackage = errors.New("not a GeoPackage")

var _ output.FeatureTypeSource = (*Source)(nil)

// Source reads feature type definitions from GeoPackage files. Connections
// are opened on first use and kept until Close.
type Source struct {
	mu     sync.Mutex
	dbs    map[string]*sql.DB
	logger *slog.Logger
}

// NewSource creates a GeoPackage source.
func NewSource(logger *slog.Logger) *Source {
	return &Source{dbs: make(map[string]*sql.DB), logger: logger}
}

// Supports reports whether st is a GeoPackage data store with a database path.
func (s *Source) Supports(st *domain.Store) bool {
	if st == nil || st.Kind() != domain.KindDataStore {
		return false
	}
	return strings.EqualFold(st.ConnectionParameters["dbtype"], DBType) &&
		st.ConnectionParameters["database"] != ""
}

// Discover lists the feature tables of the store's GeoPackage as feature types.
func (s *Source) Discover(ctx context.Context, st *domain.Store) ([]*domain.Resource, error) {
	path := st.ConnectionParameters["database"]
	db, err := s.open(ctx, path)
	if err != nil {
		return nil, &domain.StorageError{Operation: "open", Key: path, Err: err}
	}
	resources, err := readFeatureTypes(ctx, db)
	if err != nil {
		return nil, &domain.StorageError{Operation: "read", Key: path, Err: err}
	}
	s.logger.Debug("geopackage scanned", "path", path, "feature_types", len(resources))
	return resources, nil
}

func (s *Source) open(ctx context.Context, path string) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if db, ok := s.dbs[path]; ok {
		return db, nil
	}

	db, err := sql.Open(driverName, fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := checkGeoPackage(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.dbs[path] = db
	return db, nil
}

// Close closes every open GeoPackage.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for path, db := range s.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", path, err))
		}
		delete(s.dbs, path)
	}
	return errors.Join(errs...)
}

func checkGeoPackage(ctx context.Context, db *sql.DB) error {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('gpkg_contents', 'gpkg_geometry_columns')
	`).Scan(&n)
	if err != nil {
		return err
	}
	if n != 2 {
		return ErrNotGeoPackage
	}
	return nil
}

const featureTypesQuery = `
	SELECT
		c.table_name,
		COALESCE(c.identifier, ''),
		COALESCE(c.description, ''),
		g.geometry_type_name,
		g.srs_id,
		COALESCE(s.organization, ''),
		COALESCE(s.organization_coordsys_id, 0),
		c.min_x, c.min_y, c.max_x, c.max_y
	FROM gpkg_contents c
	JOIN gpkg_geometry_columns g ON c.table_name = g.table_name
	LEFT JOIN gpkg_spatial_ref_sys s ON s.srs_id = g.srs_id
	WHERE c.data_type = 'features'
	ORDER BY c.table_name
`

func readFeatureTypes(ctx context.Context, db *sql.DB) ([]*domain.Resource, error) {
	rows, err := db.QueryContext(ctx, featureTypesQuery)
	if err != nil {
		return nil, fmt.Errorf("reading feature tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Resource
	for rows.Next() {
		var (
			table, identifier, description, geomType, org string
			srsID, orgCode                                int
			minX, minY, maxX, maxY                        sql.NullFloat64
		)
		if err := rows.Scan(&table, &identifier, &description, &geomType, &srsID,
			&org, &orgCode, &minX, &minY, &maxX, &maxY); err != nil {
			return nil, fmt.Errorf("scanning feature table: %w", err)
		}

		res := &domain.Resource{
			Type:         domain.ResourceTypeFeature,
			Name:         table,
			NativeName:   table,
			Title:        identifier,
			Abstract:     description,
			SRS:          srsName(srsID, org, orgCode),
			GeometryType: geomType,
			Enabled:      true,
			Advertised:   true,
			Metadata:     domain.Metadata{},
		}
		if res.Title == "" {
			res.Title = table
		}
		if minX.Valid && minY.Valid && maxX.Valid && maxY.Valid {
			res.NativeBoundingBox = &domain.Envelope{
				MinX: minX.Float64, MinY: minY.Float64,
				MaxX: maxX.Float64, MaxY: maxY.Float64,
				CRS: res.SRS,
			}
			if srsID == 4326 {
				latLon := *res.NativeBoundingBox
				res.LatLonBoundingBox = &latLon
			}
		}

		var count int64
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&count); err == nil {
			res.Metadata["feature_count"] = strconv.FormatInt(count, 10)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// srsName returns the authority code of an SRS. GeoPackage reserves the ids
// 0 and -1 for undefined geographic and cartesian systems.
func srsName(srsID int, org string, code int) string {
	if org != "" && code > 0 {
		return strings.ToUpper(org) + ":" + strconv.Itoa(code)
	}
	if srsID > 0 {
		return domain.FormatSRS(srsID)
	}
	return ""
}

// quoteIdent quotes an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

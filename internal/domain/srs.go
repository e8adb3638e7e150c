package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Projection represents a coordinate reference system.
type Projection struct {
	SRID int    // EPSG Code
	Name string // Human-readable name
}

// Common SRID constants.
const (
	SRIDWGS84        = 4326  // WGS 84
	SRIDWebMercator  = 3857  // Web Mercator
	SRIDETRS89UTM32N = 25832 // ETRS89 / UTM zone 32N
	SRIDETRS89UTM33N = 25833 // ETRS89 / UTM zone 33N
	SRIDDHDN3GK2     = 31466 // DHDN / Gauß-Krüger zone 2
	SRIDDHDN3GK3     = 31467 // DHDN / Gauß-Krüger zone 3
)

// CommonProjections contains frequently used projections.
var CommonProjections = map[int]Projection{
	SRIDWGS84:        {SRID: SRIDWGS84, Name: "WGS 84"},
	SRIDWebMercator:  {SRID: SRIDWebMercator, Name: "Web Mercator"},
	SRIDETRS89UTM32N: {SRID: SRIDETRS89UTM32N, Name: "ETRS89 / UTM zone 32N"},
	SRIDETRS89UTM33N: {SRID: SRIDETRS89UTM33N, Name: "ETRS89 / UTM zone 33N"},
	SRIDDHDN3GK2:     {SRID: SRIDDHDN3GK2, Name: "DHDN / Gauß-Krüger zone 2"},
	SRIDDHDN3GK3:     {SRID: SRIDDHDN3GK3, Name: "DHDN / Gauß-Krüger zone 3"},
}

// IsKnownSRID returns true if the SRID is in the common projections list.
func IsKnownSRID(srid int) bool {
	_, ok := CommonProjections[srid]
	return ok
}

// FormatSRS returns the "EPSG:<code>" identifier of an SRID.
func FormatSRS(srid int) string {
	return "EPSG:" + strconv.Itoa(srid)
}

// ParseSRS parses an "EPSG:<code>" identifier. The authority is case-insensitive.
func ParseSRS(srs string) (int, error) {
	auth, code, ok := strings.Cut(srs, ":")
	if !ok || !strings.EqualFold(auth, "EPSG") {
		return 0, fmt.Errorf("%q: expected EPSG:<code>", srs)
	}
	srid, err := strconv.Atoi(code)
	if err != nil || srid <= 0 {
		return 0, fmt.Errorf("%q: invalid EPSG code", srs)
	}
	return srid, nil
}

// ValidateLatLon checks that a geographic bounding box stays within
// longitude [-180, 180] and latitude [-90, 90].
func ValidateLatLon(kind Kind, e *Envelope) error {
	if e.IsEmpty() {
		return nil
	}
	if e.MinX < -180 || e.MaxX > 180 {
		return &ValidationError{
			Kind:       kind,
			Field:      "latLonBoundingBox",
			Value:      [2]float64{e.MinX, e.MaxX},
			Constraint: "[-180, 180]",
			Message:    "longitude must be between -180 and 180",
		}
	}
	if e.MinY < -90 || e.MaxY > 90 {
		return &ValidationError{
			Kind:       kind,
			Field:      "latLonBoundingBox",
			Value:      [2]float64{e.MinY, e.MaxY},
			Constraint: "[-90, 90]",
			Message:    "latitude must be between -90 and 90",
		}
	}
	return nil
}

// GeometryType represents the type of a geometry.
type GeometryType string

// Geometry type constants.
const (
	GeomPoint              GeometryType = "POINT"
	GeomLineString         GeometryType = "LINESTRING"
	GeomPolygon            GeometryType = "POLYGON"
	GeomMultiPoint         GeometryType = "MULTIPOINT"
	GeomMultiLineString    GeometryType = "MULTILINESTRING"
	GeomMultiPolygon       GeometryType = "MULTIPOLYGON"
	GeomGeometryCollection GeometryType = "GEOMETRYCOLLECTION"
)

// StyleForGeometry returns the default style name for a geometry type.
func StyleForGeometry(geometryType string) string {
	switch GeometryType(strings.ToUpper(geometryType)) {
	case GeomPoint, GeomMultiPoint:
		return StylePoint
	case GeomLineString, GeomMultiLineString:
		return StyleLine
	case GeomPolygon, GeomMultiPolygon:
		return StylePolygon
	default:
		return StyleGeneric
	}
}

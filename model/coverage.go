package model

// CoverageKind discriminates spatial coverage geometries.
type CoverageKind string

const (
	CoveragePoint   CoverageKind = "point"
	CoverageBox     CoverageKind = "box"
	CoveragePolygon CoverageKind = "polygon"
)

// GeoPoint is a latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoBounds is a lat/lon bounding box.
type GeoBounds struct {
	LatMin float64 `json:"latMin"`
	LatMax float64 `json:"latMax"`
	LonMin float64 `json:"lonMin"`
	LonMax float64 `json:"lonMax"`
}

// SpatialTemporalCoverageEntry describes where and when the data applies.
// Exactly one of Point, Bounds, or Polygon is populated according to Kind.
// The temporal bounds are shared by all kinds and optional.
type SpatialTemporalCoverageEntry struct {
	ID   string       `json:"id"`
	Kind CoverageKind `json:"type"`

	Point   *GeoPoint  `json:"point,omitempty"`
	Bounds  *GeoBounds `json:"bounds,omitempty"`
	Polygon []GeoPoint `json:"polygon,omitempty"`

	StartDate string `json:"startDate,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	Timezone  string `json:"timezone,omitempty"`

	Description string `json:"description,omitempty"`
}

// Valid reports whether the geometry is complete for its kind. A polygon
// needs at least three points.
func (c SpatialTemporalCoverageEntry) Valid() bool {
	switch c.Kind {
	case CoveragePoint:
		return c.Point != nil
	case CoverageBox:
		return c.Bounds != nil
	case CoveragePolygon:
		return len(c.Polygon) >= 3
	default:
		return false
	}
}

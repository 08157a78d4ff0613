package wire

// Geometry is the native representation for the geography and geometry
// kind families: a GeoJSON-shaped value with a type tag and nested
// coordinate arrays.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

func NewPoint(longitude, latitude float64) *Geometry {
	return &Geometry{
		Type:        "Point",
		Coordinates: [2]float64{longitude, latitude},
	}
}

func NewLineString(coordinates [][2]float64) *Geometry {
	return &Geometry{
		Type:        "LineString",
		Coordinates: coordinates,
	}
}

func NewPolygon(rings [][][2]float64) *Geometry {
	return &Geometry{
		Type:        "Polygon",
		Coordinates: rings,
	}
}

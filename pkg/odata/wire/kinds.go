package wire

// Kind is one of the fixed set of primitive type tags understood by the
// serialization format, independent of any native value representation.
type Kind string

const (
	KindString         Kind = "Edm.String"
	KindBoolean        Kind = "Edm.Boolean"
	KindByte           Kind = "Edm.Byte"
	KindSByte          Kind = "Edm.SByte"
	KindInt16          Kind = "Edm.Int16"
	KindInt32          Kind = "Edm.Int32"
	KindInt64          Kind = "Edm.Int64"
	KindSingle         Kind = "Edm.Single"
	KindDouble         Kind = "Edm.Double"
	KindDecimal        Kind = "Edm.Decimal"
	KindGuid           Kind = "Edm.Guid"
	KindBinary         Kind = "Edm.Binary"
	KindStream         Kind = "Edm.Stream"
	KindDateTimeOffset Kind = "Edm.DateTimeOffset"
	KindDuration       Kind = "Edm.Duration"
	KindDate           Kind = "Edm.Date"
	KindTimeOfDay      Kind = "Edm.TimeOfDay"

	KindGeography           Kind = "Edm.Geography"
	KindGeographyPoint      Kind = "Edm.GeographyPoint"
	KindGeographyLineString Kind = "Edm.GeographyLineString"
	KindGeographyPolygon    Kind = "Edm.GeographyPolygon"
	KindGeometry            Kind = "Edm.Geometry"
	KindGeometryPoint       Kind = "Edm.GeometryPoint"
	KindGeometryLineString  Kind = "Edm.GeometryLineString"
	KindGeometryPolygon     Kind = "Edm.GeometryPolygon"
)

func (k Kind) String() string {
	return string(k)
}

// KindFromTypeName maps a declared property type name to its kind. Both
// the "Edm." qualified form and the bare name are accepted.
func KindFromTypeName(name string) (Kind, bool) {
	if len(name) > 4 && name[:4] == "Edm." {
		k := Kind(name)
		_, known := kindNames[k]
		return k, known
	}

	k := Kind("Edm." + name)
	_, known := kindNames[k]
	return k, known
}

var kindNames = map[Kind]struct{}{
	KindString: {}, KindBoolean: {}, KindByte: {}, KindSByte: {},
	KindInt16: {}, KindInt32: {}, KindInt64: {}, KindSingle: {},
	KindDouble: {}, KindDecimal: {}, KindGuid: {}, KindBinary: {},
	KindStream: {}, KindDateTimeOffset: {}, KindDuration: {},
	KindDate: {}, KindTimeOfDay: {},
	KindGeography: {}, KindGeographyPoint: {}, KindGeographyLineString: {},
	KindGeographyPolygon: {}, KindGeometry: {}, KindGeometryPoint: {},
	KindGeometryLineString: {}, KindGeometryPolygon: {},
}

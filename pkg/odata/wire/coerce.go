package wire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nordiq/odatakit/pkg/odata/errors"
)

// The coercion table is an ordered list of (predicate, kind, converter)
// entries. Order matters twice over: Resolve returns the kind of the first
// entry whose predicate accepts the value, and Convert tries the converters
// declaring the requested kind in declaration order, so a kind with several
// native representations falls back through them deterministically.
type tableEntry struct {
	matches func(any) bool
	kind    Kind
	convert func(any) (any, error)
}

var errNoConversion = fmt.Errorf("no conversion")

var table = []tableEntry{
	{matchType[string], KindString, toString},
	{matchType[bool], KindBoolean, toBool},
	{matchType[uint8], KindByte, intConverter(0, math.MaxUint8, func(i int64) any { return uint8(i) })},
	{matchType[int8], KindSByte, intConverter(math.MinInt8, math.MaxInt8, func(i int64) any { return int8(i) })},
	{matchType[int16], KindInt16, intConverter(math.MinInt16, math.MaxInt16, func(i int64) any { return int16(i) })},
	{matchType[int32], KindInt32, intConverter(math.MinInt32, math.MaxInt32, func(i int64) any { return int32(i) })},
	// unsigned 16 bit values widen to Int32
	{matchType[uint16], KindInt32, intConverter(0, math.MaxUint16, func(i int64) any { return int32(i) })},
	{matchType[int64], KindInt64, intConverter(math.MinInt64, math.MaxInt64, func(i int64) any { return i })},
	{matchType[int], KindInt64, intConverter(math.MinInt64, math.MaxInt64, func(i int64) any { return i })},
	// unsigned 32 and 64 bit values widen to Int64 (the latter range checked)
	{matchType[uint32], KindInt64, intConverter(0, math.MaxUint32, func(i int64) any { return i })},
	{matchType[uint64], KindInt64, uint64ToInt64},
	{matchType[float32], KindSingle, toFloat32},
	{matchType[float64], KindDouble, toFloat64},
	{matchType[json.Number], KindDecimal, toDecimalNumber},
	{matchDecimalString, KindDecimal, toDecimalNumber},
	{matchType[uuid.UUID], KindGuid, toGuid},
	{matchType[[]byte], KindBinary, toBinary},
	{matchReader, KindStream, passThrough},
	{matchType[time.Time], KindDateTimeOffset, toDateTimeOffset},
	{matchType[time.Duration], KindDuration, toDuration},
	// time.Time resolves to DateTimeOffset above; these entries only
	// participate in explicit conversions to Date and TimeOfDay
	{matchType[time.Time], KindDate, toDate},
	{matchType[time.Time], KindTimeOfDay, toTimeOfDay},
	{matchGeo("Point"), KindGeographyPoint, toGeo},
	{matchGeo("LineString"), KindGeographyLineString, toGeo},
	{matchGeo("Polygon"), KindGeographyPolygon, toGeo},
	{matchType[*Geometry], KindGeography, toGeo},
	{matchType[*Geometry], KindGeometry, toGeo},
	{matchType[*Geometry], KindGeometryPoint, toGeo},
	{matchType[*Geometry], KindGeometryLineString, toGeo},
	{matchType[*Geometry], KindGeometryPolygon, toGeo},
}

// Resolve returns the wire kind for a native value, or false if no table
// entry accepts it.
func Resolve(v any) (Kind, bool) {
	for _, e := range table {
		if e.matches(v) {
			return e.kind, true
		}
	}

	return "", false
}

// Convert attempts to convert a value to a native representation of the
// given wire kind, trying candidate representations in table order. A nil
// value passes through untouched.
func Convert(v any, k Kind) (any, error) {
	if v == nil {
		return nil, nil
	}

	for _, e := range table {
		if e.kind != k {
			continue
		}

		converted, err := e.convert(v)
		if err == nil {
			return converted, nil
		}
	}

	return nil, errors.NewFormatError(v, k.String())
}

func matchType[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

func matchReader(v any) bool {
	_, ok := v.(io.Reader)
	return ok
}

func matchDecimalString(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, ok = new(big.Rat).SetString(s)
	return ok
}

func matchGeo(geoType string) func(any) bool {
	return func(v any) bool {
		g, ok := v.(*Geometry)
		return ok && g.Type == geoType
	}
}

func passThrough(v any) (any, error) {
	return v, nil
}

func toString(v any) (any, error) {
	switch value := v.(type) {
	case string:
		return value, nil
	case []byte:
		return string(value), nil
	case fmt.Stringer:
		return value.String(), nil
	}
	return nil, errNoConversion
}

func toBool(v any) (any, error) {
	switch value := v.(type) {
	case bool:
		return value, nil
	case string:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, errNoConversion
		}
		return parsed, nil
	}
	return nil, errNoConversion
}

func asInt64(v any) (int64, error) {
	switch value := v.(type) {
	case int:
		return int64(value), nil
	case int8:
		return int64(value), nil
	case int16:
		return int64(value), nil
	case int32:
		return int64(value), nil
	case int64:
		return value, nil
	case uint8:
		return int64(value), nil
	case uint16:
		return int64(value), nil
	case uint32:
		return int64(value), nil
	case uint64:
		if value > math.MaxInt64 {
			return 0, errNoConversion
		}
		return int64(value), nil
	case float64:
		if value != math.Trunc(value) {
			return 0, errNoConversion
		}
		return int64(value), nil
	case json.Number:
		i, err := value.Int64()
		if err != nil {
			return 0, errNoConversion
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, errNoConversion
		}
		return i, nil
	}
	return 0, errNoConversion
}

func intConverter(min, max int64, narrow func(int64) any) func(any) (any, error) {
	return func(v any) (any, error) {
		i, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		if i < min || i > max {
			return nil, errNoConversion
		}
		return narrow(i), nil
	}
}

func uint64ToInt64(v any) (any, error) {
	value, ok := v.(uint64)
	if !ok {
		return nil, errNoConversion
	}
	if value > math.MaxInt64 {
		return nil, errNoConversion
	}
	return int64(value), nil
}

func toFloat32(v any) (any, error) {
	switch value := v.(type) {
	case float32:
		return value, nil
	case float64:
		if math.Abs(value) > math.MaxFloat32 {
			return nil, errNoConversion
		}
		return float32(value), nil
	case string:
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, errNoConversion
		}
		return float32(f), nil
	}

	if i, err := asInt64(v); err == nil {
		return float32(i), nil
	}
	return nil, errNoConversion
}

func toFloat64(v any) (any, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errNoConversion
		}
		return f, nil
	}

	if i, err := asInt64(v); err == nil {
		return float64(i), nil
	}
	return nil, errNoConversion
}

func toDecimalNumber(v any) (any, error) {
	switch value := v.(type) {
	case json.Number:
		return value, nil
	case string:
		if _, ok := new(big.Rat).SetString(value); !ok {
			return nil, errNoConversion
		}
		return json.Number(value), nil
	case float64:
		return json.Number(strconv.FormatFloat(value, 'f', -1, 64)), nil
	case float32:
		return json.Number(strconv.FormatFloat(float64(value), 'f', -1, 32)), nil
	}

	if i, err := asInt64(v); err == nil {
		return json.Number(strconv.FormatInt(i, 10)), nil
	}
	return nil, errNoConversion
}

func toGuid(v any) (any, error) {
	switch value := v.(type) {
	case uuid.UUID:
		return value, nil
	case string:
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, errNoConversion
		}
		return id, nil
	}
	return nil, errNoConversion
}

func toBinary(v any) (any, error) {
	switch value := v.(type) {
	case []byte:
		return value, nil
	case string:
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, errNoConversion
		}
		return decoded, nil
	}
	return nil, errNoConversion
}

func toDateTimeOffset(v any) (any, error) {
	switch value := v.(type) {
	case time.Time:
		return value, nil
	case string:
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, errNoConversion
		}
		return t, nil
	}
	return nil, errNoConversion
}

func toDate(v any) (any, error) {
	switch value := v.(type) {
	case time.Time:
		return value.Format("2006-01-02"), nil
	case string:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return nil, errNoConversion
		}
		return value, nil
	}
	return nil, errNoConversion
}

func toTimeOfDay(v any) (any, error) {
	switch value := v.(type) {
	case time.Time:
		return value.Format("15:04:05"), nil
	case string:
		if _, err := time.Parse("15:04:05", value); err != nil {
			return nil, errNoConversion
		}
		return value, nil
	}
	return nil, errNoConversion
}

func toDuration(v any) (any, error) {
	switch value := v.(type) {
	case time.Duration:
		return value, nil
	case string:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, errNoConversion
		}
		return d, nil
	}

	return nil, errNoConversion
}

func toGeo(v any) (any, error) {
	if g, ok := v.(*Geometry); ok {
		return g, nil
	}
	return nil, errNoConversion
}

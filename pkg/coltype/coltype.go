// Package coltype classifies dialect-specific column type names into the
// normalized column type tags of the driver-adapter protocol.
package coltype

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/dbbridge/pkg/database"
)

// Tag is a normalized column type. Values match the driver-adapter
// protocol's numeric column type enumeration.
type Tag int

// Column type tags.
const (
	Int32    Tag = 0
	Int64    Tag = 1
	Float    Tag = 2
	Double   Tag = 3
	Numeric  Tag = 4
	Boolean  Tag = 5
	Text     Tag = 7
	Date     Tag = 8
	Time     Tag = 9
	DateTime Tag = 10
	JSON     Tag = 11
	Bytes    Tag = 13
)

var tagNames = map[Tag]string{
	Int32:    "Int32",
	Int64:    "Int64",
	Float:    "Float",
	Double:   "Double",
	Numeric:  "Numeric",
	Boolean:  "Boolean",
	Text:     "Text",
	Date:     "Date",
	Time:     "Time",
	DateTime: "DateTime",
	JSON:     "Json",
	Bytes:    "Bytes",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Tag(" + strconv.Itoa(int(t)) + ")"
}

// shared is the lookup table used by every supported dialect.
var shared = map[string]Tag{
	"DECIMAL": Numeric,

	"FLOAT": Float,

	"DOUBLE":           Double,
	"DOUBLE PRECISION": Double,
	"NUMERIC":          Double,
	"REAL":             Double,

	"TINYINT":   Int32,
	"SMALLINT":  Int32,
	"MEDIUMINT": Int32,
	"INT":       Int32,
	"INTEGER":   Int32,
	"SERIAL":    Int32,
	"INT2":      Int32,

	"BIGINT":           Int64,
	"UNSIGNED BIG INT": Int64,
	"INT8":             Int64,

	"DATETIME":  DateTime,
	"TIMESTAMP": DateTime,
	"TIME":      Time,
	"DATE":      Date,

	"TEXT":              Text,
	"CLOB":              Text,
	"CHARACTER":         Text,
	"VARCHAR":           Text,
	"VARYING CHARACTER": Text,
	"NCHAR":             Text,
	"NATIVE CHARACTER":  Text,
	"NVARCHAR":          Text,

	"BLOB":    Bytes,
	"BOOLEAN": Boolean,
	"JSONB":   JSON,
}

// overrides holds names that only one dialect reports. They never shadow
// an entry of the shared table.
var overrides = map[database.Dialect]map[string]Tag{
	// Names reported by the pgx driver for built-in types.
	database.DialectPostgreSQL: {
		"INT4":        Int32,
		"FLOAT4":      Float,
		"FLOAT8":      Double,
		"BOOL":        Boolean,
		"TIMESTAMPTZ": DateTime,
		"TIMETZ":      Time,
		"BYTEA":       Bytes,
		"JSON":        JSON,
		"BPCHAR":      Text,
		"UUID":        Text,
	},
}

// Classify maps a column type name to a tag. The lookup is case-insensitive
// and ignores a trailing size or precision such as "(255)". Empty or
// unrecognized names, and unsupported dialects, report ok == false.
func Classify(d database.Dialect, name string) (tag Tag, ok bool) {
	if !d.Valid() {
		return 0, false
	}

	key := normalize(name)
	if key == "" {
		return 0, false
	}

	if tag, ok := shared[key]; ok {
		return tag, true
	}
	tag, ok = overrides[d][key]
	return tag, ok
}

// ClassifyOr is Classify with a fallback for unknown names.
func ClassifyOr(d database.Dialect, name string, fallback Tag) Tag {
	if tag, ok := Classify(d, name); ok {
		return tag
	}
	return fallback
}

func normalize(name string) string {
	key := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(key, '('); i >= 0 && strings.HasSuffix(key, ")") {
		key = strings.TrimSpace(key[:i])
	}
	return key
}

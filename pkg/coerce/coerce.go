// Package coerce converts query arguments into values the underlying engine
// can bind, driven by each argument's declared scalar type.
//
// The rules are tuned for engines without native boolean, decimal or
// date/time storage: booleans become 0/1, decimals become float64 (lossy by
// design of the target store), and date/time values are rendered as either
// ISO-8601 text or Unix milliseconds.
package coerce

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ScalarType is the declared logical type of a query argument.
type ScalarType string

// Scalar types of the driver-adapter protocol.
const (
	String   ScalarType = "string"
	Int      ScalarType = "int"
	BigInt   ScalarType = "bigint"
	Float    ScalarType = "float"
	Decimal  ScalarType = "decimal"
	Boolean  ScalarType = "boolean"
	Enum     ScalarType = "enum"
	UUID     ScalarType = "uuid"
	JSON     ScalarType = "json"
	DateTime ScalarType = "datetime"
	Bytes    ScalarType = "bytes"
	Unknown  ScalarType = "unknown"
)

// Arity tells whether an argument is a single value or a list.
type Arity string

// Arities.
const (
	Scalar Arity = "scalar"
	List   Arity = "list"
)

// ArgType describes one positional query argument.
type ArgType struct {
	Scalar ScalarType `json:"scalarType"`
	DBType string     `json:"dbType,omitempty"`
	Arity  Arity      `json:"arity,omitempty"`
}

// TimestampFormat selects how date/time arguments are rendered.
type TimestampFormat string

// Recognized timestamp formats.
const (
	// FormatISO8601 renders UTC ISO-8601 text with a "+00:00" offset.
	FormatISO8601 TimestampFormat = "iso8601"

	// FormatUnixEpochMs renders integer milliseconds since the Unix epoch.
	FormatUnixEpochMs TimestampFormat = "unixepoch-ms"
)

// ParseTimestampFormat validates a configured format. Empty means iso8601.
func ParseTimestampFormat(s string) (TimestampFormat, error) {
	switch f := TimestampFormat(s); f {
	case "":
		return FormatISO8601, nil
	case FormatISO8601, FormatUnixEpochMs:
		return f, nil
	default:
		return "", &UnknownTimestampFormatError{Format: s}
	}
}

// Options tune coercion.
type Options struct {
	// TimestampFormat defaults to FormatISO8601 when empty.
	TimestampFormat TimestampFormat
}

// isoLayout mirrors ECMAScript Date.prototype.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z"

// dateTimeLayouts are tried in order; values without an offset are UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Args coerces args according to the parallel types sequence.
//
// Per argument, first match wins:
//   - nil stays nil
//   - string declared int: leading integer prefix, trailing garbage ignored
//   - string declared float or decimal: leading float prefix
//   - string declared bigint: *big.Int
//   - bool: int64 1 or 0
//   - string declared datetime: parsed, then formatted as a time.Time
//   - time.Time: formatted per opts.TimestampFormat
//   - string declared bytes: base64 decoded
//   - anything else passes through unchanged
//
// Malformed numbers, dates and base64 yield *ArgumentError. An unrecognized
// timestamp format yields *UnknownTimestampFormatError.
func Args(args []any, types []ArgType, opts Options) ([]any, error) {
	if len(args) != len(types) {
		return nil, fmt.Errorf("%w: %d arguments, %d types", ErrArgCountMismatch, len(args), len(types))
	}

	out := make([]any, len(args))
	for i, arg := range args {
		v, err := coerceArg(i, arg, types[i], opts)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func coerceArg(i int, arg any, t ArgType, opts Options) (any, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case time.Time:
		return FormatTime(v, opts.TimestampFormat)
	case string:
		return coerceString(i, v, t.Scalar, opts)
	}
	return arg, nil
}

func coerceString(i int, s string, scalar ScalarType, opts Options) (any, error) {
	fail := func(err error) error {
		return &ArgumentError{Index: i, Type: scalar, Value: s, Err: err}
	}

	switch scalar {
	case Int:
		n, err := parseIntPrefix(s)
		if err != nil {
			return nil, fail(err)
		}
		return n, nil
	case Float, Decimal:
		f, err := parseFloatPrefix(s)
		if err != nil {
			return nil, fail(err)
		}
		return f, nil
	case BigInt:
		n, err := parseBigInt(s)
		if err != nil {
			return nil, fail(err)
		}
		return n, nil
	case DateTime:
		t, err := parseDateTime(s)
		if err != nil {
			return nil, fail(err)
		}
		return FormatTime(t, opts.TimestampFormat)
	case Bytes:
		b, err := decodeBase64(s)
		if err != nil {
			return nil, fail(err)
		}
		return b, nil
	}
	return s, nil
}

// FormatTime renders t in the given format.
func FormatTime(t time.Time, format TimestampFormat) (any, error) {
	switch format {
	case FormatUnixEpochMs:
		return t.UnixMilli(), nil
	case FormatISO8601, "":
		iso := t.UTC().Format(isoLayout)
		return strings.TrimSuffix(iso, "Z") + "+00:00", nil
	default:
		return nil, &UnknownTimestampFormatError{Format: string(format)}
	}
}

// parseIntPrefix reads an optionally signed decimal (or 0x hex) integer
// from the start of s, ignoring leading whitespace and trailing garbage.
func parseIntPrefix(s string) (int64, error) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	base := 10
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') && isDigit(s[2], 16) {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return 0, ErrInvalidNumber
	}

	n, err := strconv.ParseInt(sign+s[:end], base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidNumber, err)
	}
	return n, nil
}

// parseFloatPrefix reads the longest decimal floating point prefix of s.
// Out-of-range values saturate to ±Inf or 0.
func parseFloatPrefix(s string) (float64, error) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		return strconv.ParseFloat(s[:i]+"Inf", 64)
	}

	digits := 0
	for i < len(s) && isDigit(s[i], 10) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i], 10) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, ErrInvalidNumber
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k], 10) {
			k++
		}
		if k > j {
			i = k
		}
	}

	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return f, nil
		}
		return 0, fmt.Errorf("%w: %w", ErrInvalidNumber, err)
	}
	return f, nil
}

// parseBigInt requires the whole (trimmed) string to be an integer. Digits
// are decimal, leading zeros included, unless an unsigned 0x, 0o or 0b
// prefix selects another base. Underscores are rejected. An empty string is
// zero.
func parseBigInt(s string) (*big.Int, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return new(big.Int), nil
	}

	base := 10
	if len(t) > 2 && t[0] == '0' {
		switch t[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			t = t[2:]
			if t[0] == '+' || t[0] == '-' {
				return nil, ErrInvalidNumber
			}
		}
	}

	// A non-zero base makes SetString refuse base prefixes and underscores.
	n, ok := new(big.Int).SetString(t, base)
	if !ok {
		return nil, ErrInvalidNumber
	}
	return n, nil
}

func parseDateTime(s string) (time.Time, error) {
	t := strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, ErrInvalidDateTime
}

// decodeBase64 accepts standard base64 with or without padding.
func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBytes, err)
	}
	return b, nil
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f':
		return true
	case base == 16 && c >= 'A' && c <= 'F':
		return true
	}
	return false
}

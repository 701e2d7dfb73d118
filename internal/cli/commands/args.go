package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dbbridge/pkg/coerce"
	"github.com/leapstack-labs/dbbridge/pkg/driveradapter"
)

// nullType marks an argument bound as SQL NULL.
const nullType = "null"

var scalarTypes = map[string]coerce.ScalarType{
	string(coerce.String):   coerce.String,
	string(coerce.Int):      coerce.Int,
	string(coerce.BigInt):   coerce.BigInt,
	string(coerce.Float):    coerce.Float,
	string(coerce.Decimal):  coerce.Decimal,
	string(coerce.Boolean):  coerce.Boolean,
	string(coerce.Enum):     coerce.Enum,
	string(coerce.UUID):     coerce.UUID,
	string(coerce.JSON):     coerce.JSON,
	string(coerce.DateTime): coerce.DateTime,
	string(coerce.Bytes):    coerce.Bytes,
	string(coerce.Unknown):  coerce.Unknown,
}

// parseArgs turns repeated "type:value" flags into query arguments.
//
// Values stay strings so the adapter's coercion applies, except booleans,
// which are parsed so they bind as 0/1, and null, which binds as NULL.
func parseArgs(specs []string) ([]any, []driveradapter.ArgType, error) {
	args := make([]any, 0, len(specs))
	types := make([]driveradapter.ArgType, 0, len(specs))

	for i, spec := range specs {
		typ, value, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, nil, fmt.Errorf("argument %d: expected type:value, got %q", i+1, spec)
		}
		typ = strings.ToLower(strings.TrimSpace(typ))

		if typ == nullType {
			args = append(args, nil)
			types = append(types, driveradapter.ArgType{Scalar: coerce.Unknown, Arity: coerce.Scalar})
			continue
		}

		scalar, known := scalarTypes[typ]
		if !known {
			return nil, nil, fmt.Errorf("argument %d: unknown type %q", i+1, typ)
		}

		var arg any = value
		if scalar == coerce.Boolean {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, nil, fmt.Errorf("argument %d: invalid boolean %q", i+1, value)
			}
			arg = b
		}

		args = append(args, arg)
		types = append(types, driveradapter.ArgType{Scalar: scalar, Arity: coerce.Scalar})
	}

	return args, types, nil
}

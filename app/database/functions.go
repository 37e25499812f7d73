package database

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"modernc.org/sqlite"
)

// UnicodeLowerFunc lowercases its argument with full Unicode case mapping.
// SQLite's built-in lower() only folds ASCII letters.
const UnicodeLowerFunc = "unicode_lower"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(UnicodeLowerFunc, 1, unicodeLower); err != nil {
		panic(fmt.Sprintf("registering %s: %v", UnicodeLowerFunc, err))
	}
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", UnicodeLowerFunc, v)
	}
}

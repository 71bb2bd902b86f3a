package enums

import (
	"database/sql/driver"
	"fmt"
)

// scanEnum decodes a database value into a closed enum, rejecting anything
// the parser does not recognise.
func scanEnum[T ~string](dst *T, value any, parse func(string) (T, error)) error {
	var raw string
	switch v := value.(type) {
	case nil:
		return fmt.Errorf("enum: null value for %T", *dst)
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("enum: unsupported scan type %T", value)
	}
	parsed, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

// valueEnum is the write-side counterpart of scanEnum.
func valueEnum[T ~string](v T, valid bool) (driver.Value, error) {
	if !valid {
		return nil, fmt.Errorf("enum: invalid value %q for %T", string(v), v)
	}
	return string(v), nil
}

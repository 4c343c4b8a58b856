package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUIDArray maps to a postgres uuid[] column. On sqlite the same array
// literal is stored as text, so both dialects round-trip through Scan.
type UUIDArray []uuid.UUID

// With returns a copy of a with id appended. The receiver is not modified.
func (a UUIDArray) With(id uuid.UUID) UUIDArray {
	out := make(UUIDArray, 0, len(a)+1)
	out = append(out, a...)
	return append(out, id)
}

// Value renders the array literal {id,id}.
func (a UUIDArray) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id.String())
	}
	b.WriteByte('}')
	return b.String(), nil
}

func (a *UUIDArray) Scan(src any) error {
	var literal string
	switch v := src.(type) {
	case nil:
	case string:
		literal = v
	case []byte:
		literal = string(v)
	default:
		return fmt.Errorf("UUIDArray: unsupported Scan type %T", src)
	}

	body := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(literal), "{"), "}")
	elems := strings.FieldsFunc(body, func(r rune) bool { return r == ',' })
	out := make(UUIDArray, 0, len(elems))
	for _, raw := range elems {
		raw = strings.Trim(strings.TrimSpace(raw), `"`)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("UUIDArray: parse %q: %w", raw, err)
		}
		out = append(out, id)
	}
	*a = out
	return nil
}

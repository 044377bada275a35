package sanitize

import (
	"errors"
	"fmt"
	"math"

	"leadengine/internal/domain"
)

// FieldType is the declared semantic type of a form field.
type FieldType string

const (
	TypeText   FieldType = "text"
	TypeEmail  FieldType = "email"
	TypePhone  FieldType = "phone"
	TypeNumber FieldType = "number"
	TypeURL    FieldType = "url"
	// TypeCount is a whole number of rooms, bedrooms and the like.
	TypeCount FieldType = "count"
)

// MaxCount bounds TypeCount values.
const MaxCount = 1000

type Field struct {
	Name string
	Type FieldType
}

// Schema is applied in declaration order so the reported failure is stable.
type Schema []Field

// Append returns a new schema with more fields after s.
func (s Schema) Append(fields ...Field) Schema {
	out := make(Schema, 0, len(s)+len(fields))
	out = append(out, s...)
	return append(out, fields...)
}

// FormData applies schema to a copy of data. The first failing field aborts
// the whole call with its ValidationError; data itself is never modified.
// Keys outside the schema and nil values pass through unchanged.
func FormData(data map[string]any, schema Schema) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}

	for _, f := range schema {
		v, ok := data[f.Name]
		if !ok || v == nil {
			continue
		}
		clean, err := Value(v, f.Type)
		if err != nil {
			return nil, withField(err, f.Name)
		}
		out[f.Name] = clean
	}
	return out, nil
}

// Value sanitizes a single value as t.
func Value(v any, t FieldType) (any, error) {
	switch t {
	case TypeText:
		return Text(stringify(v)), nil
	case TypeEmail:
		return Email(stringify(v))
	case TypePhone:
		return Phone(stringify(v))
	case TypeNumber:
		return Number(v)
	case TypeURL:
		return URL(stringify(v))
	case TypeCount:
		return Count(v)
	default:
		return nil, domain.ValidationError{Msg: fmt.Sprintf("unknown field type %q", t)}
	}
}

// Count accepts a whole number between 0 and MaxCount.
func Count(v any) (float64, error) {
	n, err := Number(v)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) {
		return 0, domain.ValidationError{Msg: "must be a whole number"}
	}
	if n < 0 || n > MaxCount {
		return 0, domain.ValidationError{Msg: fmt.Sprintf("must be between 0 and %d", MaxCount)}
	}
	return n, nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func withField(err error, field string) error {
	var ve domain.ValidationError
	if errors.As(err, &ve) {
		ve.Field = field
		return ve
	}
	return domain.ValidationError{Field: field, Msg: err.Error(), Err: err}
}

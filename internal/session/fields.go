package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field identifies one of the numeric text inputs.
type Field string

const (
	DistanceField Field = "distance"
	TimeField     Field = "time"
	AngleField    Field = "angle"
	DragField     Field = "drag"
)

// Fields lists the inputs in display order.
var Fields = []Field{DistanceField, TimeField, AngleField, DragField}

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

var (
	ErrNotANumber = errors.New("is not a number")
	ErrNotFinite  = errors.New("must be a finite number")
)

// FieldError reports which input failed and why.
type FieldError struct {
	Field Field
	Text  string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %q %v", e.Field, e.Text, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func parseNumber(f Field, text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, &FieldError{Field: f, Text: text, Err: ErrNotANumber}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Field: f, Text: text, Err: ErrNotFinite}
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
)

// integer narrows a WithNumber property to JSON Schema "integer".
func integer() mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["type"] = "integer"
	}
}

// decoder pulls typed fields out of a raw argument map and keeps the
// first schema violation. Raw maps come from JSON, so numbers arrive as
// float64 and arrays as []any.
type decoder struct {
	op  string
	raw map[string]any
	err *ArgumentError
}

func newDecoder(op string, raw map[string]any) *decoder {
	if raw == nil {
		raw = map[string]any{}
	}
	return &decoder{op: op, raw: raw}
}

func (d *decoder) fail(field, format string, a ...any) {
	if d.err == nil {
		d.err = &ArgumentError{Operation: d.op, Field: field, Reason: fmt.Sprintf(format, a...)}
	}
}

// Err returns the first violation, or nil.
func (d *decoder) Err() error {
	if d.err == nil {
		return nil
	}
	return d.err
}

func (d *decoder) lookup(key string) (any, bool) {
	v, ok := d.raw[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// requiredString rejects missing, non-string and blank values.
func (d *decoder) requiredString(key string) string {
	v, ok := d.lookup(key)
	if !ok {
		d.fail(key, "is required")
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(key, "must be a string, got %T", v)
		return ""
	}
	if strings.TrimSpace(s) == "" {
		d.fail(key, "must not be empty")
		return ""
	}
	return s
}

func (d *decoder) optionalString(key string) string {
	v, ok := d.lookup(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(key, "must be a string, got %T", v)
		return ""
	}
	return s
}

// requiredInt accepts whole JSON numbers and Go integer kinds.
func (d *decoder) requiredInt(key string) int {
	v, ok := d.lookup(key)
	if !ok {
		d.fail(key, "is required")
		return 0
	}
	n, err := toInt(v)
	if err != nil {
		d.fail(key, "%v", err)
		return 0
	}
	return n
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("must be an integer, got %v", x)
		}
		// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
		if x < float64(math.MinInt) || x >= float64(math.MaxInt) {
			return 0, fmt.Errorf("must be between %d and %d, got %v", math.MinInt, math.MaxInt, x)
		}
		return int(x), nil
	case float32:
		return toInt(float64(x))
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer in range, got %s", x)
		}
		if n < math.MinInt || n > math.MaxInt {
			return 0, fmt.Errorf("must be between %d and %d, got %s", math.MinInt, math.MaxInt, x)
		}
		return int(n), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToIntE(x)
	default:
		return 0, fmt.Errorf("must be an integer, got %T", v)
	}
}

func (d *decoder) condition(key string, required bool) inventory.Condition {
	var s string
	if required {
		s = d.requiredString(key)
	} else {
		s = d.optionalString(key)
	}
	if s == "" {
		return ""
	}
	c := inventory.Condition(strings.ToLower(strings.TrimSpace(s)))
	if err := inventory.ValidateCondition(c); err != nil {
		d.fail(key, "must be one of: %s", strings.Join(inventory.Conditions(), ", "))
		return ""
	}
	return c
}

// stringList decodes an array of strings. Non-string scalars inside the
// array are coerced to strings.
func (d *decoder) stringList(key string, required bool) []string {
	v, ok := d.lookup(key)
	if !ok {
		if required {
			d.fail(key, "is required")
		}
		return nil
	}
	return d.coerceList(key, v)
}

func (d *decoder) coerceList(field string, v any) []string {
	switch v.(type) {
	case []any, []string:
	default:
		d.fail(field, "must be an array of strings, got %T", v)
		return nil
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		d.fail(field, "must be an array of strings: %v", err)
		return nil
	}
	return out
}

// stringMap decodes a flat object. Values are coerced to strings.
func (d *decoder) stringMap(key string) map[string]string {
	v, ok := d.lookup(key)
	if !ok {
		return nil
	}
	switch v.(type) {
	case map[string]any, map[string]string:
	default:
		d.fail(key, "must be an object, got %T", v)
		return nil
	}
	out, err := cast.ToStringMapStringE(v)
	if err != nil {
		d.fail(key, "must be an object of strings: %v", err)
		return nil
	}
	return out
}

// stepSpecs decodes the steps array of add_project_steps.
func (d *decoder) stepSpecs(key string) []inventory.StepSpec {
	v, ok := d.lookup(key)
	if !ok {
		d.fail(key, "is required")
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		d.fail(key, "must be an array of step objects, got %T", v)
		return nil
	}
	if len(items) == 0 {
		d.fail(key, "must contain at least one step")
		return nil
	}

	specs := make([]inventory.StepSpec, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("%s[%d]", key, i)
		obj, ok := item.(map[string]any)
		if !ok {
			d.fail(field, "must be an object, got %T", item)
			return nil
		}
		sub := newDecoder(d.op, obj)
		spec := inventory.StepSpec{
			Title:         sub.requiredString("title"),
			Description:   sub.requiredString("description"),
			RequiredTools: sub.stringList("required_tools", true),
		}
		if sub.err != nil {
			d.fail(field+"."+sub.err.Field, "%s", sub.err.Reason)
			return nil
		}
		if spec.RequiredTools == nil {
			spec.RequiredTools = []string{}
		}
		specs = append(specs, spec)
	}
	return specs
}

package message

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"

	"github.com/c360/riverkit/errors"
)

// ReadCountKey is the reserved payload field tracking how many times a
// message has been successfully processed by rivers in its path. The name is
// part of the wire contract and must not change.
const ReadCountKey = "system_read_count"

// Payload is the parsed structured content of one inbound message: a JSON
// object keyed by string. A payload is owned exclusively by the river for the
// duration of one HandleMessage call and is then handed by reference to
// listeners, which must not retain it beyond the call.
type Payload map[string]any

// Parse decodes raw message bytes into a Payload. The input must be a JSON
// object; any other well-formed JSON document (null, array, scalar) is
// rejected as invalid data.
func Parse(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	// json.Unmarshal accepts a literal "null" without error, leaving the map nil.
	if p == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidData,
			"Payload", "Parse", "message is not a JSON object")
	}
	return p, nil
}

// IsSyntaxError reports whether err came from malformed JSON text, as
// opposed to well-formed JSON of the wrong shape.
func IsSyntaxError(err error) bool {
	var syntaxErr *json.SyntaxError
	return stderrors.As(err, &syntaxErr)
}

// Value returns the raw value stored under key and whether the key exists at
// all, regardless of emptiness.
func (p Payload) Value(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// Present reports whether key holds a non-empty value. Missing keys, JSON
// null, empty strings, empty arrays and empty objects all count as absent;
// 0 and false count as present.
func (p Payload) Present(key string) bool {
	v, ok := p[key]
	if !ok {
		return false
	}
	return !isEmptyValue(v)
}

// StringValue returns the value under key rendered as a string. Non-string
// scalars are formatted the way encoding/json would print them; integral
// floats drop the trailing ".0" so {"n": 5} renders as "5".
func (p Payload) StringValue(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}

// ReadCount returns the current value of the reserved read-count field.
// Absent or non-integer values normalize to 0.
func (p Payload) ReadCount() int {
	switch v := p[ReadCountKey].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v)
		}
	}
	return 0
}

// StampReadCount increments the reserved read-count field and returns the
// stamped value. A payload that never passed through a river before is
// stamped with 1.
func (p Payload) StampReadCount() int {
	next := p.ReadCount() + 1
	p[ReadCountKey] = next
	return next
}

// isEmptyValue implements the shared emptiness rule for required/forbidden
// key checks.
func isEmptyValue(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

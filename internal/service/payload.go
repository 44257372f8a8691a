package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/datatypes"
)

// Payload is a decoded JSON object whose members are parsed field by field,
// so that one bad member produces a message keyed by its name instead of
// failing the whole body.
type Payload map[string]json.RawMessage

// ParsePayload decodes raw as a JSON object.
func ParsePayload(raw []byte) (Payload, error) {
	p := Payload{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil || p == nil {
		return nil, NewValidationError("non_field_errors", MsgNotAnObject)
	}
	return p, nil
}

func (p Payload) present(field string) (json.RawMessage, bool) {
	raw, ok := p[field]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

// PK parses a primary key given as a JSON number or numeric string.
func (p Payload) PK(field string, required bool, verr *ValidationError) *uint {
	raw, ok := p.present(field)
	if !ok {
		if required {
			verr.Add(field, MsgRequired)
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = json.RawMessage(strings.TrimSpace(s))
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || n == 0 {
		verr.Add(field, fmt.Sprintf("Incorrect type. Expected pk value, received %s.", jsonKind(p[field])))
		return nil
	}
	id := uint(n)
	return &id
}

// Float parses a JSON number or numeric string.
func (p Payload) Float(field string, verr *ValidationError) *float64 {
	raw, ok := p.present(field)
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	verr.Add(field, MsgNotANumber)
	return nil
}

// Bool parses JSON booleans plus the usual textual and 0/1 spellings.
func (p Payload) Bool(field string, verr *ValidationError) *bool {
	raw, ok := p.present(field)
	if !ok {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}
	token := strings.Trim(string(raw), `"`)
	switch strings.ToLower(token) {
	case "true", "1", "yes", "on":
		b = true
		return &b
	case "false", "0", "no", "off":
		b = false
		return &b
	}
	verr.Add(field, MsgNotABoolean)
	return nil
}

// String parses a nullable string.
func (p Payload) String(field string, verr *ValidationError) *string {
	raw, ok := p.present(field)
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		verr.Add(field, MsgNotAString)
		return nil
	}
	return &s
}

// JSON keeps any JSON value verbatim; null and absent both map to nil.
func (p Payload) JSON(field string) *datatypes.JSON {
	raw, ok := p.present(field)
	if !ok {
		return nil
	}
	v := datatypes.JSON(append([]byte(nil), raw...))
	return &v
}

func jsonKind(raw json.RawMessage) string {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return "null"
	}
	switch t[0] {
	case '"':
		return "str"
	case '{':
		return "dict"
	case '[':
		return "list"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "float"
	}
}

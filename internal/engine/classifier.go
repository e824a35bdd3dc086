package engine

import "strings"

// ColumnKind is the closed set of column classes a definitions file may contain.
type ColumnKind uint8

const (
	KindDefinition ColumnKind = iota + 1
	KindProperty
	KindNotes
)

func (k ColumnKind) String() string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindProperty:
		return "property"
	case KindNotes:
		return "notes"
	default:
		return "unknown"
	}
}

// ColumnSpec is the result of classifying one header.
type ColumnSpec struct {
	Header string
	Kind   ColumnKind
	Name   string // lowercased second underscore segment
}

// Checked in order; the first token found anywhere in the header wins.
var kindTokens = [...]struct {
	token string
	kind  ColumnKind
}{
	{"DEFINITION", KindDefinition},
	{"PROPERTY", KindProperty},
	{"NOTES", KindNotes},
}

// ClassifyHeader labels a header such as "DEFINITION_Diet" or "PROPERTY_Minimum mass".
// It runs once per column at load time.
func ClassifyHeader(header string) (ColumnSpec, error) {
	h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))

	var kind ColumnKind
	for _, kt := range kindTokens {
		if strings.Contains(h, kt.token) {
			kind = kt.kind
			break
		}
	}
	if kind == 0 {
		return ColumnSpec{}, columnErr(header, -1, ErrSchema, "header must contain DEFINITION, PROPERTY or NOTES")
	}

	parts := strings.Split(h, "_")
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return ColumnSpec{}, columnErr(header, -1, ErrSchema, "header has no name after the first underscore")
	}

	return ColumnSpec{
		Header: h,
		Kind:   kind,
		Name:   strings.ToLower(strings.TrimSpace(parts[1])),
	}, nil
}

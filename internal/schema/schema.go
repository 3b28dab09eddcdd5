// Package schema declares the importable fields for each entity type.
// The registry is populated at init time, read-only afterwards, and safe
// for unlimited concurrent readers.
package schema

// FieldType is the semantic type of an importable field. It drives
// per-value coercion during import execution.
type FieldType int

const (
	FieldString FieldType = iota
	FieldEmail
	FieldPhone
	FieldDate
	FieldNumber
	FieldSelect
)

// EntityType identifies the kind of record being imported.
type EntityType string

const (
	EntityCandidate EntityType = "candidate"
	EntityJob       EntityType = "job"
)

// Field describes a single importable field of an entity.
type Field struct {
	Name     string    `json:"name"`     // Target field identifier
	Label    string    `json:"label"`    // Display label, also matched during mapping inference
	Required bool      `json:"required"` // Row fails validation when the mapped value is empty
	Type     FieldType `json:"type"`
	Options  []string  `json:"options,omitempty"` // Valid values for FieldSelect
}

// Entity is the full import schema for one entity type.
type Entity struct {
	Type       EntityType
	Label      string
	NaturalKey string // Field used for duplicate detection (empty disables it)
	Fields     []Field
}

// FieldByName returns the field with the given name.
func (e Entity) FieldByName(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFields returns the required fields in declared order.
func (e Entity) RequiredFields() []Field {
	var out []Field
	for _, f := range e.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// TypeName returns a human-readable name for a field type.
func TypeName(ft FieldType) string {
	switch ft {
	case FieldEmail:
		return "email"
	case FieldPhone:
		return "phone"
	case FieldDate:
		return "date"
	case FieldNumber:
		return "number"
	case FieldSelect:
		return "select"
	default:
		return "text"
	}
}

package core

import (
	"fmt"
	"sort"

	"github.com/talentpipe/importer/internal/schema"
)

// Mapping associates source file columns with target schema fields.
// Uniqueness of sourceColumn is guaranteed by construction: Set replaces
// any prior entry for the same column. Two columns mapped to the same
// target field can exist transiently while the operator edits, but fail
// Validate before the mapping is used.
type Mapping map[string]string // sourceColumn -> targetField

// NewMapping returns an empty mapping.
func NewMapping() Mapping {
	return make(Mapping)
}

// Set returns a copy of the mapping with sourceColumn upserted. An empty
// targetField removes the entry. The receiver is never mutated.
func (m Mapping) Set(sourceColumn, targetField string) Mapping {
	out := make(Mapping, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	if targetField == "" {
		delete(out, sourceColumn)
	} else {
		out[sourceColumn] = targetField
	}
	return out
}

// Target returns the target field a source column is mapped to.
func (m Mapping) Target(sourceColumn string) (string, bool) {
	t, ok := m[sourceColumn]
	return t, ok
}

// IsComplete reports whether every required field appears as some entry's
// target. Completeness gates the Mapping -> Review transition and must be
// re-evaluated after every mutation.
func (m Mapping) IsComplete(ent schema.Entity) bool {
	mapped := make(map[string]bool, len(m))
	for _, target := range m {
		mapped[target] = true
	}
	for _, f := range ent.Fields {
		if f.Required && !mapped[f.Name] {
			return false
		}
	}
	return true
}

// MissingRequired returns the names of required fields with no mapping, in
// declared order.
func (m Mapping) MissingRequired(ent schema.Entity) []string {
	mapped := make(map[string]bool, len(m))
	for _, target := range m {
		mapped[target] = true
	}
	var missing []string
	for _, f := range ent.Fields {
		if f.Required && !mapped[f.Name] {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Validate rejects mappings that cannot be executed: a target that is not
// a schema field, or two source columns competing for one target field.
// Duplicate targets are a hard error rather than last-write-wins; silently
// dropping one operator choice loses data with no signal.
func (m Mapping) Validate(ent schema.Entity) error {
	byTarget := make(map[string]string, len(m))

	// Sorted iteration keeps the reported column pair deterministic.
	cols := make([]string, 0, len(m))
	for col := range m {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		target := m[col]
		if _, ok := ent.FieldByName(target); !ok {
			return fmt.Errorf("column %q is mapped to unknown field %q", col, target)
		}
		if prev, dup := byTarget[target]; dup {
			return fmt.Errorf("columns %q and %q are both mapped to %q", prev, col, target)
		}
		byTarget[target] = col
	}
	return nil
}

// reverse returns the targetField -> sourceColumn lookup used when
// applying the mapping to rows. Callers must Validate first; on duplicate
// targets the result would be unspecified.
func (m Mapping) reverse() map[string]string {
	out := make(map[string]string, len(m))
	for col, target := range m {
		out[target] = col
	}
	return out
}

package core

import (
	"fmt"
	"strings"

	"github.com/talentpipe/importer/internal/schema"
)

// EscapeField applies RFC 4180 escaping: a value containing a comma,
// double quote, or newline is wrapped in double quotes with internal
// quotes doubled. The rule is bit-exact; stdlib csv.Writer also quotes
// leading-whitespace fields and cannot be used for emission here.
func EscapeField(s string) string {
	if !strings.ContainsAny(s, "\",\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteCSV renders a header row plus records as CSV text.
func WriteCSV(header []string, rows [][]string) []byte {
	var b strings.Builder

	writeLine := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EscapeField(f))
		}
		b.WriteByte('\n')
	}

	writeLine(header)
	for _, row := range rows {
		writeLine(row)
	}

	return []byte(b.String())
}

// Template produces the downloadable import template for an entity type:
// a header-only file whose columns are the schema labels in declared
// order.
func Template(ent schema.Entity) (filename string, content []byte) {
	labels := make([]string, len(ent.Fields))
	for i, f := range ent.Fields {
		labels[i] = f.Label
	}
	return fmt.Sprintf("%s_import_template.csv", ent.Type), WriteCSV(labels, nil)
}

// ExportCSV renders stored entity records as a CSV export, columns in
// schema order with labels as headers. Absent values render empty.
func ExportCSV(ent schema.Entity, records []Record) (filename string, content []byte) {
	labels := make([]string, len(ent.Fields))
	for i, f := range ent.Fields {
		labels[i] = f.Label
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(ent.Fields))
		for j, f := range ent.Fields {
			row[j] = rec[f.Name]
		}
		rows[i] = row
	}

	return fmt.Sprintf("%s_export.csv", ent.Type), WriteCSV(labels, rows)
}

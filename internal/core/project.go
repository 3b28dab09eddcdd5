package core

import "github.com/talentpipe/importer/internal/schema"

// ProjectedCell is one mapped value in the review view. Missing is set
// when the raw row carried no cell for the mapped source column (ragged
// row); a present-but-empty value is a blank field, not a missing one.
type ProjectedCell struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Missing bool   `json:"missing,omitempty"`
}

// ProjectedRow is one sample row rendered through the mapping, in schema
// field order.
type ProjectedRow struct {
	Row   int             `json:"row"`
	Cells []ProjectedCell `json:"cells"`
}

// Project renders one page of the mapped review view from the preview's
// sample rows. It is a pure function of its inputs: it never re-reads the
// source file, and identical arguments always yield identical results.
// Pagination is stateless; page is 1-based. Unmapped source columns are
// dropped from the projection.
func Project(p *PreviewDataset, m Mapping, ent schema.Entity, page, pageSize int) []ProjectedRow {
	if page < 1 || pageSize < 1 {
		return nil
	}

	start := (page - 1) * pageSize
	if start >= len(p.SampleRows) {
		return nil
	}
	end := start + pageSize
	if end > len(p.SampleRows) {
		end = len(p.SampleRows)
	}

	reverse := m.reverse()

	// Columns are the mapped fields in schema-declared order, which keeps
	// the view stable regardless of source column order.
	var fields []schema.Field
	for _, f := range ent.Fields {
		if _, ok := reverse[f.Name]; ok {
			fields = append(fields, f)
		}
	}

	out := make([]ProjectedRow, 0, end-start)
	for _, row := range p.SampleRows[start:end] {
		pr := ProjectedRow{Row: row.Number, Cells: make([]ProjectedCell, 0, len(fields))}
		for _, f := range fields {
			source := reverse[f.Name]
			cell, ok := row.Cells[source]
			pr.Cells = append(pr.Cells, ProjectedCell{
				Field:   f.Name,
				Label:   f.Label,
				Value:   cell.Value,
				Missing: !ok || !cell.Present,
			})
		}
		out = append(out, pr)
	}

	return out
}

package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/talentpipe/importer/internal/schema"
)

// DefaultSampleRows is how many rows the preview keeps in memory. The full
// row set is only materialized at execution time.
const DefaultSampleRows = 5

// ParsePreview decodes an uploaded delimited file into a PreviewDataset:
// ordered headers, a bounded sample, a total row count, and a best-effort
// suggested mapping. Rows beyond the sample limit are counted but not
// retained. All errors are session-fatal; no data problems are reported
// here.
func ParsePreview(data []byte, ent schema.Entity, sampleLimit int) (*PreviewDataset, error) {
	if sampleLimit <= 0 {
		sampleLimit = DefaultSampleRows
	}

	r := newCSVReader(data)

	headers, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	preview := &PreviewDataset{Headers: headers}

	num := 0
	for {
		raw, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fatalf("parse CSV: %w", err)
		}
		if isEmptyRow(raw) {
			continue
		}
		num++
		if len(preview.SampleRows) < sampleLimit {
			preview.SampleRows = append(preview.SampleRows, makeRow(num, headers, raw))
		}
	}

	if num == 0 {
		return nil, fatalf("no data rows after header")
	}

	preview.TotalRows = num
	preview.Suggested = SuggestMapping(headers, ent)
	return preview, nil
}

// ReadDataset fully materializes the row set for execution. Row ordinals
// are assigned here, at read time.
func ReadDataset(data []byte) (*Dataset, error) {
	r := newCSVReader(data)

	headers, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Headers: headers}
	num := 0
	for {
		raw, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fatalf("parse CSV: %w", err)
		}
		if isEmptyRow(raw) {
			continue
		}
		num++
		ds.Rows = append(ds.Rows, makeRow(num, headers, raw))
	}

	return ds, nil
}

// newCSVReader configures a reader for real-world CSV files: lazy quotes
// and variable field counts. Ragged rows surface later as per-row
// validation failures, not parse errors.
func newCSVReader(data []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(sanitizeUTF8(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}

func readHeader(r *csv.Reader) ([]string, error) {
	raw, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fatalf("empty file: no header row")
	}
	if err != nil {
		return nil, fatalf("read header row: %w", err)
	}

	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = CleanCell(h)
	}
	return headers, nil
}

// makeRow builds a Row from a raw record. Cells exist only for columns the
// row actually carries; a ragged row yields absent cells for the trailing
// headers.
func makeRow(num int, headers, raw []string) Row {
	cells := make(map[string]Cell, len(headers))
	for i, h := range headers {
		if i < len(raw) {
			cells[h] = Cell{Value: CleanCell(raw[i]), Present: true}
		}
	}
	return Row{Number: num, Cells: cells, Width: len(raw)}
}

// CleanCell removes common CSV artifacts from a cell value:
// trims whitespace, strips the Excel formula prefix (="..."), and removes
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid byte sequences with the Unicode
// replacement character so the CSV reader never chokes on mixed encodings.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

// raggedError describes a row whose field count disagrees with the header.
func raggedError(expected, got int) string {
	return fmt.Sprintf("expected %d columns, got %d", expected, got)
}

package core

import (
	"strings"
	"testing"

	"github.com/talentpipe/importer/internal/schema"
)

func TestEscapeField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{`He said "hi", once`, `"He said ""hi"", once"`},
		{"a,b", `"a,b"`},
		{"line\nbreak", "\"line\nbreak\""},
		{"carriage\rreturn", "\"carriage\rreturn\""},
		{`just "quotes"`, `"just ""quotes"""`},
		{" leading space", " leading space"}, // no quoting without a special character
	}
	for _, tt := range tests {
		if got := EscapeField(tt.in); got != tt.want {
			t.Errorf("EscapeField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	got := string(WriteCSV([]string{"a", "b"}, [][]string{{"1", "x,y"}, {"2", `q"q`}}))
	want := "a,b\n1,\"x,y\"\n2,\"q\"\"q\"\n"
	if got != want {
		t.Errorf("WriteCSV() = %q, want %q", got, want)
	}
}

func TestTemplate_HeaderOnly(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	name, content := Template(ent)

	if name != "candidate_import_template.csv" {
		t.Errorf("filename = %q", name)
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("template has %d lines, want header only", len(lines))
	}
	if !strings.HasPrefix(lines[0], "First Name,Last Name,Email") {
		t.Errorf("header = %q", lines[0])
	}
	// Labels containing commas are escaped
	if !strings.Contains(lines[0], `"Skills (comma-separated)"`) {
		t.Errorf("comma-bearing label should be quoted: %q", lines[0])
	}
}

func TestExportCSV(t *testing.T) {
	ent, _ := schema.Get(schema.EntityJob)
	name, content := ExportCSV(ent, []Record{
		{"title": "Engineer", "department": "R&D", "openings": "2"},
	})

	if name != "job_export.csv" {
		t.Errorf("filename = %q", name)
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("export has %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[1], "Engineer,R&D,") {
		t.Errorf("record line = %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], ",2") {
		t.Errorf("openings should be the last column: %q", lines[1])
	}
}

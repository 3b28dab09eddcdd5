package store

import "testing"

func TestTextOrNull(t *testing.T) {
	tests := []struct {
		in    string
		value string
		valid bool
	}{
		{"hello", "hello", true},
		{"  spaced  ", "spaced", true},
		{"", "", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		got := textOrNull(tt.in)
		if got.Valid != tt.valid {
			t.Errorf("textOrNull(%q).Valid = %v, want %v", tt.in, got.Valid, tt.valid)
			continue
		}
		if got.Valid && got.String != tt.value {
			t.Errorf("textOrNull(%q) = %q, want %q", tt.in, got.String, tt.value)
		}
	}
}

func TestNumericOrNull(t *testing.T) {
	valid := []string{"42", "3.14", "$1,234.50", "(99)", "€10"}
	invalid := []string{"", "   ", "abc", "1.2.3"}

	for _, s := range valid {
		if got := numericOrNull(s); !got.Valid {
			t.Errorf("numericOrNull(%q) should be valid", s)
		}
	}
	for _, s := range invalid {
		if got := numericOrNull(s); got.Valid {
			t.Errorf("numericOrNull(%q) should be NULL", s)
		}
	}
}

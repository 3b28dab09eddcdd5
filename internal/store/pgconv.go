package store

// pgconv.go converts validated record strings to PostgreSQL parameter
// types. Values arrive pre-validated; an empty string maps to NULL rather
// than an error.

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// textOrNull converts a string to pgtype.Text, NULL for empty input.
func textOrNull(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// numericOrNull converts a string to pgtype.Numeric, NULL for empty input.
// Currency symbols, thousands separators, and accounting-style negatives
// have already been accepted by validation, so they are stripped here too.
func numericOrNull(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

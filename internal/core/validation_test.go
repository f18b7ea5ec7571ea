// internal/core/validation_test.go
package core

import (
	"strings"
	"testing"
)

func TestIsValidIdentifier(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    bool
		comment string
	}{
		{"valid simple", "my_db", true, ""},
		{"valid with numbers", "db_123", true, ""},
		{"valid uppercase", "MY_DB", true, ""},
		{"valid underscore start", "_db", true, ""},
		{"valid underscore end", "db_", true, ""},
		{"valid short", "a", true, ""},
		{"valid long (63 chars)", strings.Repeat("a", 63), true, ""},
		{"invalid number start", "123db", false, "PostgreSQL identifiers cannot start with a digit"},
		{"invalid empty", "", false, "empty string"},
		{"invalid space", "my db", false, "contains space"},
		{"invalid hyphen", "my-db", false, "contains hyphen"},
		{"invalid special char", "db$", false, "contains dollar sign"},
		{"invalid quote", `db"name`, false, "contains quote"},
		{"invalid semicolon", "db;drop", false, "contains semicolon"},
		{"invalid too long", strings.Repeat("a", 64), false, "exceeds 63 chars"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsValidIdentifier(tc.input)
			if got != tc.want {
				t.Errorf("IsValidIdentifier(%q) = %v; want %v. %s", tc.input, got, tc.want, tc.comment)
			}
		})
	}
}

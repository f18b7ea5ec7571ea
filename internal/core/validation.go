// internal/core/validation.go
package core

import (
	"regexp"
)

// Regular expression for valid database/role names. PostgreSQL unquoted
// identifiers start with a letter or underscore; we enforce the same shape
// even though identifiers are quoted on the wire, so names stay portable.
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgreSQL truncates identifiers at 63 bytes (NAMEDATALEN - 1).
const maxIdentifierLength = 63

// IsValidIdentifier checks if a string is usable as a database or role name.
func IsValidIdentifier(name string) bool {
	return len(name) > 0 && len(name) <= maxIdentifierLength && nameValidationRegex.MatchString(name)
}

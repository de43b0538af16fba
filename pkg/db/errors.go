package db

import "strings"

// IsUniqueViolation reports whether err carries a Postgres unique violation.
// Payment and sequence writers use it to map constraint collisions (duplicate
// transaction references, replayed gateway ids) onto conflict errors. When
// constraintName is given the match is narrowed to that constraint's text.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

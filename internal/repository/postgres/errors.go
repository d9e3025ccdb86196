package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// SQLSTATE codes the repositories map onto domain errors.
const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return pqCode(err) == codeUniqueViolation
}

// IsExclusionViolation reports whether err is an exclusion constraint
// violation. The bed_assignments temporal-exclusion constraint surfaces
// concurrent double-booking attempts this way; the storage engine is the
// final arbiter, the application check only produces the friendly error.
func IsExclusionViolation(err error) bool {
	return pqCode(err) == codeExclusionViolation
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

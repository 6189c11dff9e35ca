package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// isUniqueViolation reports whether err is a unique-constraint violation
// (SQLSTATE 23505). Duplicate idempotency keys surface this way and are
// folded into the duplicate counters, not returned as errors.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

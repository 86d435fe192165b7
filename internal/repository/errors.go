package repository

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL error codes the services react to.
const (
	pqUniqueViolation = "23505"
	pqUndefinedTable  = "42P01"
	pqUndefinedColumn = "42703"
)

func pqCode(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// IsUniqueViolation reports a unique constraint failure and the violated constraint.
func IsUniqueViolation(err error) (string, bool) {
	pqErr, ok := pqCode(err)
	if !ok || string(pqErr.Code) != pqUniqueViolation {
		return "", false
	}
	return pqErr.Constraint, true
}

// IsUndefinedTable reports whether err was raised for a missing relation.
func IsUndefinedTable(err error) bool {
	pqErr, ok := pqCode(err)
	return ok && string(pqErr.Code) == pqUndefinedTable
}

// IsUndefinedColumn reports whether err was raised for a missing column.
func IsUndefinedColumn(err error) bool {
	pqErr, ok := pqCode(err)
	return ok && string(pqErr.Code) == pqUndefinedColumn
}

package sqldriver

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	mysqlNoSuchTable    = 1146
	mysqlDuplicateEntry = 1062

	pqUndefinedTable  = "42P01"
	pqUniqueViolation = "23505"
)

// IsNoSuchTable reports whether err says a table does not exist.
func IsNoSuchTable(err error) bool {
	var (
		myErr *mysql.MySQLError
		pqErr *pq.Error
		slErr sqlite3.Error
	)
	switch {
	case errors.As(err, &myErr):
		return myErr.Number == mysqlNoSuchTable
	case errors.As(err, &pqErr):
		return string(pqErr.Code) == pqUndefinedTable
	case errors.As(err, &slErr):
		return strings.Contains(slErr.Error(), "no such table")
	}
	return false
}

// IsDuplicateEntry reports whether err is a unique or primary key violation.
func IsDuplicateEntry(err error) bool {
	var (
		myErr *mysql.MySQLError
		pqErr *pq.Error
		slErr sqlite3.Error
	)
	switch {
	case errors.As(err, &myErr):
		return myErr.Number == mysqlDuplicateEntry
	case errors.As(err, &pqErr):
		return string(pqErr.Code) == pqUniqueViolation
	case errors.As(err, &slErr):
		return slErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			slErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

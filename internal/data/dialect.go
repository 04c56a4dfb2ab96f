package data

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite3"

	pgUniqueViolation = "23505"
)

// dialect carries the SQL that differs between postgres and sqlite.
type dialect struct {
	name   string
	driver string

	forUpdate string

	// bindVar renders the placeholder of the n-th argument. SQLite numbers
	// "$N" by first appearance, so it gets the explicit "?N" form.
	bindVar string

	// Bucket expressions take the timestamp column as their only argument
	// and yield day "YYYY-MM-DD", ISO week start "YYYY-MM-DD" and month
	// "YYYY-MM" labels in UTC.
	dayBucket   string
	weekBucket  string
	monthBucket string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return dialect{
			name:        dialectPostgres,
			driver:      driver,
			forUpdate:   " FOR UPDATE",
			bindVar:     "$%d",
			dayBucket:   "to_char(%s AT TIME ZONE 'UTC', 'YYYY-MM-DD')",
			weekBucket:  "to_char(date_trunc('week', %s AT TIME ZONE 'UTC'), 'YYYY-MM-DD')",
			monthBucket: "to_char(%s AT TIME ZONE 'UTC', 'YYYY-MM')",
		}, nil
	case "sqlite3", "sqlite":
		return dialect{
			name:        dialectSQLite,
			driver:      "sqlite3",
			bindVar:     "?%d",
			dayBucket:   "strftime('%%Y-%%m-%%d', %s)",
			weekBucket:  "date(%s, 'weekday 0', '-6 days')",
			monthBucket: "strftime('%%Y-%%m', %s)",
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func (d dialect) placeholder(n int) string {
	return fmt.Sprintf(d.bindVar, n)
}

func (d dialect) bucket(expr, column string) string {
	return fmt.Sprintf(expr, column)
}

// isUniqueViolation recognises unique constraint failures from every
// supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

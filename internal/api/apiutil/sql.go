package apiutil

import (
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// IsSQLiteUniqueViolation reports a UNIQUE constraint failure, used to
// turn duplicate inserts into 409s.
func IsSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// IsSQLiteForeignKeyViolation reports a FOREIGN KEY constraint failure.
func IsSQLiteForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation    = "23505"
	pgForeignKey         = "23503"
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
	sqliteUniquePrefix   = "unique constraint failed:"
	sqliteForeignKey     = "foreign key constraint failed"
	mysqlDuplicateMarker = "duplicate entry"
)

// uniqueViolation reports whether err is a uniqueness violation and, when the
// driver exposes it, the constraint or column that was hit. The target is
// lower-cased; it is "" when the driver does not name it.
func uniqueViolation(err error) (target string, ok bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return strings.ToLower(pgErr.ConstraintName), true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		// Duplicate entry 'x' for key 'teams.idx_teams_name'
		msg := strings.ToLower(myErr.Message)
		if idx := strings.LastIndex(msg, "for key "); idx >= 0 {
			return strings.Trim(msg[idx+len("for key "):], "'` "), true
		}
		return "", true
	}

	msg := strings.ToLower(err.Error())
	if idx := strings.Index(msg, sqliteUniquePrefix); idx >= 0 {
		return strings.TrimSpace(msg[idx+len(sqliteUniquePrefix):]), true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(msg, mysqlDuplicateMarker) {
		return "", true
	}
	return "", false
}

// violatesColumn reports a uniqueness violation on column, matching both
// "table.column" and index names such as "idx_teams_column". For "id" the
// primary key names of postgres ("teams_pkey") and mysql ("teams.primary")
// match too.
func violatesColumn(err error, column string) bool {
	target, ok := uniqueViolation(err)
	if !ok || target == "" {
		return false
	}
	if strings.HasSuffix(target, "."+column) || strings.HasSuffix(target, "_"+column) {
		return true
	}
	return column == "id" && (strings.HasSuffix(target, "_pkey") || strings.HasSuffix(target, ".primary"))
}

// foreignKeyViolation reports whether err is a referential integrity failure,
// either a missing parent row or a parent that is still referenced.
func foreignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKey
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlRowIsReferenced || myErr.Number == mysqlNoReferencedRow
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated) ||
		strings.Contains(strings.ToLower(err.Error()), sqliteForeignKey)
}

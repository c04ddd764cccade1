// Package repository holds the MySQL-backed record stores for the three
// services plus in-memory equivalents. Each service owns its own tables and
// never reads another service's store.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("record not found")

// ErrEmailExists is returned when the users.email unique key is violated.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is MySQL's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

package database

import "errors"

// ErrDatabaseNotFound is returned by Open when the database is missing and
// CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("history database not found")

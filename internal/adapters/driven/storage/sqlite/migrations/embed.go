// Package migrations holds the SQL schema for the SQLite chunk store.
package migrations

import "embed"

// FS holds the up and down migrations, applied in filename order.
//
//go:embed *.sql
var FS embed.FS

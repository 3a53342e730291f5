// Package migrations ships the SQL schema with the binaries as
// golang-migrate up/down pairs.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

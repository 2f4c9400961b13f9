package migrations

import "embed"

// FS holds the PostgreSQL schema migrations, applied in filename order.
//
//go:embed *.sql
var FS embed.FS

package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// The sqlite and postgres backends each embed their own migrations.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}

// Package migrations holds the schema of the quiz document store.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered set registered by the versioned files of this package.
var Migrations = migrate.NewMigrations()

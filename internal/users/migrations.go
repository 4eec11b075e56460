package users

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// UserIndexes are created after the tables. email_folded keeps emails unique regardless of case.
var UserIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_folded_idx ON users (email_folded)`,
	`CREATE INDEX IF NOT EXISTS users_name_id_idx ON users (name, id)`,
}

// Migrate creates the users and profiles tables and their indexes if they do not exist yet.
func Migrate(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*UserSchema)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table for model %T: %w", (*UserSchema)(nil), err)
	}

	// RESTRICT is explicit so the store decides about cascading, not the database default.
	if _, err := db.NewCreateTable().
		Model((*ProfileSchema)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE RESTRICT`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table for model %T: %w", (*ProfileSchema)(nil), err)
	}

	for _, indexSQL := range UserIndexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index with SQL %q: %w", indexSQL, err)
		}
	}

	return nil
}

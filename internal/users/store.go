package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"golang.org/x/text/cases"

	"github.com/eion/usersdb/internal/zerrors"
)

const (
	resourceUsers    = "users"
	resourceProfiles = "profiles"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// UserStoreImpl implements the UserStore interface
type UserStoreImpl struct {
	db             bun.IDB
	cascadeDeletes bool
}

// StoreOption configures a UserStoreImpl
type StoreOption func(*UserStoreImpl)

// WithCascadeDeletes makes DeleteUser remove the user's profile instead of refusing to delete.
func WithCascadeDeletes(enabled bool) StoreOption {
	return func(s *UserStoreImpl) {
		s.cascadeDeletes = enabled
	}
}

// NewUserStore creates a new user store instance
func NewUserStore(db bun.IDB, opts ...StoreOption) *UserStoreImpl {
	s := &UserStoreImpl{
		db: db,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser inserts the user and its optional profile in one transaction
func (s *UserStoreImpl) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	var created *UserSchema

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		userSchema := &UserSchema{
			Email:       req.Email,
			EmailFolded: foldEmail(req.Email),
			Name:        req.Name,
			CreatedAt:   time.Now().UTC(),
		}

		if _, err := tx.NewInsert().
			Model(userSchema).
			Returning("*").
			Exec(ctx); err != nil {
			return classifyError("create", resourceUsers, err)
		}

		if req.Profile != nil {
			profileSchema := &ProfileSchema{
				Bio:    req.Profile.Bio,
				UserID: userSchema.ID,
			}
			if _, err := tx.NewInsert().
				Model(profileSchema).
				Returning("*").
				Exec(ctx); err != nil {
				return classifyError("create", resourceProfiles, err)
			}
		}

		var err error
		created, err = selectUser(ctx, tx, req.IncludeProfile, "u.id = ?", userSchema.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return UserSchemaToUser(created), nil
}

// FindFirstUser returns the lowest-id user whose email contains the filter, ignoring case
func (s *UserStoreImpl) FindFirstUser(ctx context.Context, req *FindFirstRequest) (*User, bool, error) {
	schema, err := selectUser(ctx, s.db, req.IncludeProfile,
		`u.email_folded LIKE ? ESCAPE '\'`, containsPattern(req.EmailContains))
	if err != nil {
		if zerrors.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return UserSchemaToUser(schema), true, nil
}

// FindManyUsers orders by name, then id, and returns at most Take users after skipping Skip
func (s *UserStoreImpl) FindManyUsers(ctx context.Context, req *FindManyRequest) ([]*User, error) {
	// Limit(0) would mean no limit at all
	if req.Take == 0 {
		return []*User{}, nil
	}

	var schemas []*UserSchema
	query := s.db.NewSelect().
		Model(&schemas).
		OrderExpr("u.name ASC").
		OrderExpr("u.id ASC").
		Offset(req.Skip).
		Limit(req.Take)

	if req.IncludeProfile {
		query = query.Relation("Profile")
	}

	if err := query.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, classifyError("find_many", resourceUsers, err)
	}

	users := make([]*User, len(schemas))
	for i, schema := range schemas {
		users[i] = UserSchemaToUser(schema)
	}

	return users, nil
}

// UpdateUser overwrites the provided fields of the user with exactly req.Email
func (s *UserStoreImpl) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*User, error) {
	var updated *UserSchema

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := selectUser(ctx, tx, false, "u.email = ?", req.Email)
		if err != nil {
			return err
		}

		var columns []string
		if req.Name != nil {
			existing.Name = *req.Name
			columns = append(columns, "name")
		}

		if len(columns) > 0 {
			if _, err := tx.NewUpdate().
				Model(existing).
				Column(columns...).
				WherePK().
				Exec(ctx); err != nil {
				return classifyError("update", resourceUsers, err)
			}
		}

		updated, err = selectUser(ctx, tx, false, "u.id = ?", existing.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return UserSchemaToUser(updated), nil
}

// DeleteUser removes the user with exactly req.Email. A user that owns a profile is
// only removed when cascading deletes are enabled; the profile goes in the same transaction.
func (s *UserStoreImpl) DeleteUser(ctx context.Context, req *DeleteUserRequest) (*User, error) {
	var deleted *UserSchema

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := selectUser(ctx, tx, true, "u.email = ?", req.Email)
		if err != nil {
			return err
		}

		if existing.Profile != nil {
			if !s.cascadeDeletes {
				return zerrors.NewStorageConstraintError("delete", resourceUsers,
					fmt.Sprintf("user %s still owns profile %d and cascading deletes are disabled", req.Email, existing.Profile.ID), nil)
			}

			if _, err := tx.NewDelete().
				Model((*ProfileSchema)(nil)).
				Where("user_id = ?", existing.ID).
				Exec(ctx); err != nil {
				return classifyError("delete", resourceProfiles, err)
			}
		}

		if _, err := tx.NewDelete().
			Model((*UserSchema)(nil)).
			Where("id = ?", existing.ID).
			Exec(ctx); err != nil {
			return classifyError("delete", resourceUsers, err)
		}

		deleted = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return UserSchemaToUser(deleted), nil
}

// selectUser scans the first user matching where; a miss is reported as zerrors NotFound.
func selectUser(ctx context.Context, db bun.IDB, includeProfile bool, where string, arg interface{}) (*UserSchema, error) {
	schema := new(UserSchema)
	query := db.NewSelect().
		Model(schema).
		Where(where, arg).
		OrderExpr("u.id ASC").
		Limit(1)

	if includeProfile {
		query = query.Relation("Profile")
	}

	if err := query.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, zerrors.NewStorageNotFoundError("select", resourceUsers, lookupKey(where, arg))
		}
		return nil, classifyError("select", resourceUsers, err)
	}

	return schema, nil
}

func lookupKey(where string, arg interface{}) string {
	column := strings.TrimPrefix(strings.Fields(where)[0], "u.")
	return fmt.Sprintf("%s %v", column, arg)
}

// foldEmail applies full Unicode case folding, so "ÉMILE" and "émile" share one key.
// The database never folds; both stored keys and filters are folded here.
func foldEmail(email *string) *string {
	if email == nil {
		return nil
	}
	folded := cases.Fold().String(*email)
	return &folded
}

// containsPattern builds a LIKE pattern matching the case-folded substr literally.
func containsPattern(substr string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(cases.Fold().String(substr))
	return "%" + escaped + "%"
}

// classifyError maps driver errors of both supported dialects onto the zerrors taxonomy.
func classifyError(operation, resource string, err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case pgUniqueViolation:
			return zerrors.NewStorageConstraintError(operation, resource, "unique constraint violated", err)
		case pgForeignKeyViolation:
			return zerrors.NewStorageConstraintError(operation, resource, "foreign key constraint violated", err)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "duplicate key value violates unique constraint"):
		return zerrors.NewStorageConstraintError(operation, resource, "unique constraint violated", err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "violates foreign key constraint"):
		return zerrors.NewStorageConstraintError(operation, resource, "foreign key constraint violated", err)
	case errors.Is(err, sql.ErrConnDone), strings.Contains(msg, "database is closed"):
		return zerrors.NewStorageConnectionError(operation, resource, err)
	}

	return zerrors.NewStorageQueryError(operation, resource, err)
}

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/eion/usersdb/internal/config"
	"github.com/eion/usersdb/internal/database"
	"github.com/eion/usersdb/internal/users"
)

type userOperation func(ctx context.Context, service users.UserService) (interface{}, error)

type connectFunc func(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger, fn func(ctx context.Context, db *bun.DB) error) error

// UserCommandHandler runs one user operation per invocation inside a scoped connection.
type UserCommandHandler struct {
	opts    *GlobalOptions
	out     io.Writer
	connect connectFunc
}

func NewUserCommandHandler(opts *GlobalOptions, out io.Writer) *UserCommandHandler {
	return &UserCommandHandler{opts: opts, out: out, connect: database.WithConnection}
}

// run acquires a connection, runs op, releases the connection and prints exactly one value:
// the result, or the message of the error that stopped the operation.
// Failures only surface as a command error with --fail-on-error.
func (h *UserCommandHandler) run(cmd *cobra.Command, name string, op userOperation) error {
	printer := NewPrinter(h.out, h.opts.Output)

	cfg, logger, err := h.opts.load()
	if err != nil {
		return h.report(printer, err)
	}
	defer func() { _ = logger.Sync() }()

	var (
		result  interface{}
		opErr   error
		started bool
	)
	err = h.connect(cmd.Context(), cfg.Database, logger, func(ctx context.Context, db *bun.DB) error {
		started = true
		if cfg.Database.AutoMigrate {
			if opErr = users.Migrate(ctx, db); opErr != nil {
				return opErr
			}
		}

		store := users.NewUserStore(db, users.WithCascadeDeletes(cfg.Database.CascadeDeletes()))
		result, opErr = op(ctx, users.NewUserService(store))
		return opErr
	})

	switch {
	case !started || opErr != nil:
		logger.Debug("Operation failed", zap.String("operation", name), zap.Error(err))
		return h.report(printer, err)
	case err != nil:
		// the operation went through; only releasing the connection failed
		logger.Warn("Operation completed but the connection was not released cleanly",
			zap.String("operation", name), zap.Error(err))
	}

	if err := printer.Print(result); err != nil {
		return fmt.Errorf("failed to print %s result: %w", name, err)
	}

	logger.Debug("Operation completed", zap.String("operation", name))
	return nil
}

func (h *UserCommandHandler) report(printer *Printer, err error) error {
	printer.PrintError(err)
	if h.opts.FailOnError {
		return err
	}
	return nil
}

// CreateUserCmd inserts a user and, when --bio is given, its profile
func (h *UserCommandHandler) CreateUserCmd(cmd *cobra.Command, _ []string) error {
	req := &users.CreateUserRequest{}

	var err error
	if req.Name, err = cmd.Flags().GetString("name"); err != nil {
		return fmt.Errorf("invalid name flag: %w", err)
	}
	if req.IncludeProfile, err = cmd.Flags().GetBool("include-profile"); err != nil {
		return fmt.Errorf("invalid include-profile flag: %w", err)
	}
	if cmd.Flags().Changed("email") {
		email, err := cmd.Flags().GetString("email")
		if err != nil {
			return fmt.Errorf("invalid email flag: %w", err)
		}
		req.Email = &email
	}
	if cmd.Flags().Changed("bio") {
		bio, err := cmd.Flags().GetString("bio")
		if err != nil {
			return fmt.Errorf("invalid bio flag: %w", err)
		}
		req.Profile = &users.CreateProfileRequest{Bio: bio}
	}

	return h.run(cmd, "create", func(ctx context.Context, service users.UserService) (interface{}, error) {
		return service.CreateUser(ctx, req)
	})
}

// FindFirstUserCmd prints the lowest-id user whose email contains the filter, or null
func (h *UserCommandHandler) FindFirstUserCmd(cmd *cobra.Command, _ []string) error {
	req := &users.FindFirstRequest{}

	var err error
	if req.EmailContains, err = cmd.Flags().GetString("email-contains"); err != nil {
		return fmt.Errorf("invalid email-contains flag: %w", err)
	}
	if req.IncludeProfile, err = cmd.Flags().GetBool("include-profile"); err != nil {
		return fmt.Errorf("invalid include-profile flag: %w", err)
	}

	return h.run(cmd, "find-first", func(ctx context.Context, service users.UserService) (interface{}, error) {
		user, found, err := service.FindFirstUser(ctx, req)
		if err != nil || !found {
			return (*users.User)(nil), err
		}
		return user, nil
	})
}

// FindManyUsersCmd prints one page of users ordered by name
func (h *UserCommandHandler) FindManyUsersCmd(cmd *cobra.Command, _ []string) error {
	req := &users.FindManyRequest{}

	var err error
	if req.Skip, err = cmd.Flags().GetInt("skip"); err != nil {
		return fmt.Errorf("invalid skip flag: %w", err)
	}
	if req.Take, err = cmd.Flags().GetInt("take"); err != nil {
		return fmt.Errorf("invalid take flag: %w", err)
	}
	if req.IncludeProfile, err = cmd.Flags().GetBool("include-profile"); err != nil {
		return fmt.Errorf("invalid include-profile flag: %w", err)
	}

	return h.run(cmd, "find-many", func(ctx context.Context, service users.UserService) (interface{}, error) {
		return service.FindManyUsers(ctx, req)
	})
}

// UpdateUserCmd renames the user with exactly --email
func (h *UserCommandHandler) UpdateUserCmd(cmd *cobra.Command, _ []string) error {
	req := &users.UpdateUserRequest{}

	var err error
	if req.Email, err = cmd.Flags().GetString("email"); err != nil {
		return fmt.Errorf("invalid email flag: %w", err)
	}
	if cmd.Flags().Changed("name") {
		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return fmt.Errorf("invalid name flag: %w", err)
		}
		req.Name = &name
	}

	return h.run(cmd, "update", func(ctx context.Context, service users.UserService) (interface{}, error) {
		return service.UpdateUser(ctx, req)
	})
}

// DeleteUserCmd removes the user with exactly --email and prints what was removed
func (h *UserCommandHandler) DeleteUserCmd(cmd *cobra.Command, _ []string) error {
	email, err := cmd.Flags().GetString("email")
	if err != nil {
		return fmt.Errorf("invalid email flag: %w", err)
	}
	req := &users.DeleteUserRequest{Email: email}

	return h.run(cmd, "delete", func(ctx context.Context, service users.UserService) (interface{}, error) {
		return service.DeleteUser(ctx, req)
	})
}

// InitUserCommands registers the five data operations with rootCmd
func InitUserCommands(rootCmd *cobra.Command, opts *GlobalOptions, out io.Writer) error {
	handler := NewUserCommandHandler(opts, out)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user, optionally with a profile",
		Args:  cobra.NoArgs,
		RunE:  handler.CreateUserCmd,
	}
	createCmd.Flags().String("name", "manfred", "Display name of the new user")
	createCmd.Flags().String("email", "", "Email address (unique, compared case-insensitively)")
	createCmd.Flags().String("bio", "", "Create a profile with this biography")
	createCmd.Flags().Bool("include-profile", false, "Include the profile in the printed result")
	rootCmd.AddCommand(createCmd)

	findFirstCmd := &cobra.Command{
		Use:   "find-first",
		Short: "Print the first user whose email contains a substring, ignoring case",
		Args:  cobra.NoArgs,
		RunE:  handler.FindFirstUserCmd,
	}
	findFirstCmd.Flags().String("email-contains", "prisma", "Substring to look for in the email")
	findFirstCmd.Flags().Bool("include-profile", false, "Include the profile in the printed result")
	rootCmd.AddCommand(findFirstCmd)

	findManyCmd := &cobra.Command{
		Use:   "find-many",
		Short: "Print a page of users ordered by name",
		Args:  cobra.NoArgs,
		RunE:  handler.FindManyUsersCmd,
	}
	findManyCmd.Flags().Int("skip", 2, "Number of users to skip")
	findManyCmd.Flags().Int("take", 1, "Maximum number of users to print")
	findManyCmd.Flags().Bool("include-profile", false, "Include profiles in the printed result")
	rootCmd.AddCommand(findManyCmd)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update the user with an exact email",
		Args:  cobra.NoArgs,
		RunE:  handler.UpdateUserCmd,
	}
	updateCmd.Flags().String("email", "", "Exact email of the user to update")
	updateCmd.Flags().String("name", "", "New display name")
	if err := updateCmd.MarkFlagRequired("email"); err != nil {
		return err
	}
	rootCmd.AddCommand(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the user with an exact email",
		Args:  cobra.NoArgs,
		RunE:  handler.DeleteUserCmd,
	}
	deleteCmd.Flags().String("email", "", "Exact email of the user to delete")
	if err := deleteCmd.MarkFlagRequired("email"); err != nil {
		return err
	}
	rootCmd.AddCommand(deleteCmd)

	return nil
}

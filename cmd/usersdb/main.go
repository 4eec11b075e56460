// Package main is the entry point for the usersdb CLI.
// It builds the root command, registers one sub-command per data operation
// plus migrate and serve, then executes the command-line interface.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	commands "github.com/eion/usersdb/cmd/usersdb/internal/commands"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "usersdb",
		Short: "Run single data-access operations against the users store",
		Long: `usersdb runs exactly one operation against the users table per invocation:
it acquires a connection, runs the operation, prints the result (or the error
message) to standard output and releases the connection.

The store is selected with DATABASE_URL or the USERSDB_DB_* variables, or a
YAML file passed with --config (usersdb.yaml by default).
Set USERSDB_DB_DRIVER=sqlite to run against a local SQLite file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := commands.Register(rootCmd, os.Stdout); err != nil {
		return fmt.Errorf("failed to initialize commands: %w", err)
	}

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)
}

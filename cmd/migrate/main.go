package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"library-backend/internal/config"
	"library-backend/internal/infrastructure/database"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or roll back the library database schema",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newUpCmd(), newDownCmd(), newVersionCmd())
	return root
}

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(mg *database.Migrator) error {
				if err := mg.Up(); err != nil {
					return err
				}
				return printVersion(cmd, mg)
			})
		},
	}
}

func newDownCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is set)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(mg *database.Migrator) error {
				if err := mg.Down(steps); err != nil {
					return err
				}
				return printVersion(cmd, mg)
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back, 0 for all")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(mg *database.Migrator) error {
				return printVersion(cmd, mg)
			})
		},
	}
}

func withMigrator(fn func(mg *database.Migrator) error) error {
	dbCfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("load database config: %w", err)
	}

	mg, err := database.NewMigrator(dbCfg.DSN())
	if err != nil {
		return err
	}
	defer mg.Close()

	return fn(mg)
}

func printVersion(cmd *cobra.Command, mg *database.Migrator) error {
	v, dirty, err := mg.Version()
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	cmd.Printf("schema version %d (dirty=%t)\n", v, dirty)
	return nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/go-employee-api/internal/infrastructure/postgres"
)

type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

// newMigrator is swapped in tests.
var newMigrator = func(databaseURL string) (migrator, error) {
	return postgres.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|version",
		Short:     "Run database migrations",
		Long:      `Apply, roll back or inspect the embedded PostgreSQL migrations.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) (err error) {
	// migrations need only the database; the rest of the config is not validated here
	cfg := loadEnv()

	m, err := newMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil {
			return err
		}
		cmd.Println("Migrations applied")
	case "down":
		if err := m.Down(); err != nil {
			return err
		}
		cmd.Println("Migrations rolled back")
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		cmd.Printf("version %d (dirty: %t)\n", v, dirty)
	}
	return nil
}

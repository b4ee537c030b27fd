package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // driver
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last applied migrations",
		RunE: func(*cobra.Command, []string) error {
			return a.migrateDown(steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(*cobra.Command, []string) error {
				return a.migrateUp()
			},
		},
		down,
	)

	return cmd
}

func (a *app) migrator() (*migrate.Migrate, error) {
	m, err := migrate.New(a.cfg.MigrationsDir, a.cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}

	return m, nil
}

func (a *app) migrateUp() error {
	a.logger.Info("running database migrations...")

	m, err := a.migrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	a.logger.Info("database migrations complete")

	return nil
}

func (a *app) migrateDown(steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	m, err := a.migrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	a.logger.Info("migrations rolled back", "steps", steps)

	return nil
}

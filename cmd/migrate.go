package cmd

import (
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/sekreterlik/sekreterlik/db"
)

var (
	migrateRollback bool
	migrateStatus   bool
	migrateDir      string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the users, positions and position_permissions migrations",
	Long: `Apply pending migrations. Uses the migrations built into the binary unless --dir names a directory on disk.
--rollback reverts the latest one, --status lists what is applied.`,
	RunE: runMigration,
}

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "revert the latest migration")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print applied and pending migrations")
	migrateCmd.Flags().StringVarP(&migrateDir, "dir", "d", "", "read migrations from this directory instead of the binary")
	migrateCmd.MarkFlagsMutuallyExclusive("rollback", "status")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	conn, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	goose.SetTableName("schema_migrations")
	dir := migrateDir
	if dir == "" {
		goose.SetBaseFS(db.Migrations)
		dir = db.MigrationsDir
	} else {
		goose.SetBaseFS(os.DirFS(dir))
		dir = "."
	}

	command := "up"
	switch {
	case migrateRollback:
		command = "down"
	case migrateStatus:
		command = "status"
	}
	if err := goose.RunContext(cmd.Context(), command, conn, dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

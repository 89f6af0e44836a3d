package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axellelanca/shortlink/cmd"
	"github.com/axellelanca/shortlink/internal/repository"
)

// MigrateCmd represents the 'migrate' command
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `This command connects to the configured database (SQLite or PostgreSQL)
and runs GORM automatic migrations for the 'users', 'links' and 'clicks' tables.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := repository.OpenDatabase(cmd.Cfg)
		if err != nil {
			return err
		}
		defer repository.Close(db)

		if err := repository.Migrate(db); err != nil {
			return err
		}
		fmt.Println("Database migrations executed successfully.")
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}

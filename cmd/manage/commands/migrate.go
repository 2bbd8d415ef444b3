package commands

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		cmd.Println("Migrations applied")
		return nil
	},
}

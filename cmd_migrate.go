package main

import (
	"fmt"

	"github.com/prevozkop/backend/database"
	"github.com/spf13/cobra"
)

var migrateReport bool

// prevozkop migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.New(db).Close()

		if migrateReport {
			report, err := database.SchemaDrift(db)
			if err != nil {
				return err
			}
			if dirty := database.WriteSchemaReport(cmd.OutOrStdout(), report); dirty > 0 {
				return fmt.Errorf("%d table(s) differ from the models", dirty)
			}
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
		return database.Migrate(cmd.Context(), db)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateReport, "report", false, "only report differences between the models and the live schema")
}

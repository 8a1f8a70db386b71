package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/labconnect/medtest-booking/internal/database"
)

func migrateCmd() *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if printOnly {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), database.Schema())
				return err
			}
			cfg, log, err := loadConfig()
			if err != nil {
				log.Error().Err(err).Msg("invalid configuration")
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				log.Error().Err(err).Msg("migration failed")
				return err
			}
			log.Info().Str("db", cfg.DB.Name).Msg("schema applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}

package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"video-consult/config"
	"video-consult/repository"
)

func migrate(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := repository.Open(config.DB)
			if err != nil {
				return err
			}
			if err := repository.Migrate(db); err != nil {
				return err
			}
			log.Info().Msg("migration complete")
			return nil
		},
	}
}

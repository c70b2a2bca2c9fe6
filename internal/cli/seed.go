package cli

import (
	"os"

	"github.com/spf13/cobra"
	"quizwhiz-service/internal/config"
)

// NewSeedCmd loads the question bank into an empty store and exits.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the question bank CSV into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)

			store, release, err := openQuestionStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer release()

			if err := seedQuestions(cmd.Context(), cfg, store, logger); err != nil {
				return err
			}
			count, err := store.CountQuestions(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("question bank ready", "questions", count)
			return nil
		},
	}
}

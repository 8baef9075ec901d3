// Package commands implements the hark command line.
package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewRootCmd returns the root command. Run without a subcommand it starts
// the bot.
func NewRootCmd(version string) *cobra.Command {
	var envFiles []string

	rootCmd := &cobra.Command{
		Use:   "hark",
		Short: "Discord voice bot that plays links on request",
		Long: `hark joins your voice channel and plays what you ask for.

Examples:
  hark
  hark --env prod.env
  hark history 123456789012345678`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), envFiles)
		},
	}

	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load before the environment (default .env)")

	return rootCmd
}

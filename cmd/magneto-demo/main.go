// Command magneto-demo serves the sample posts API through magneto, caching
// upstream JSONPlaceholder responses in memory, Redis and PostgreSQL.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("magneto-demo failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "magneto-demo",
		Short:         "Sample posts API backed by magneto query caching",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

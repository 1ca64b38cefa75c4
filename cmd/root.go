package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matchday-hq/matchday/internal/build"
	"github.com/matchday-hq/matchday/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "matchday",
	Short: "Matchday sports dashboard synchronization service",
	Long: `Matchday keeps a sports dashboard in sync with its upstream data provider:
it polls watched matches for status transitions, maintains a notification
inbox, and serves a persisted search index over HTTP.`,
}

// Execute runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(NewServeCmd(cfg))
	rootCmd.AddCommand(NewUpdateCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the matchday version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Println(build.String())
		},
	}
}

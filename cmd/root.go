package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "reviewdeck",
		Short: "Browse pull requests waiting on your review",
		Long: `A CLI tool that lists the open pull requests where your review has
been requested, with persistent organization/repository/team filters
and fuzzy search.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add list flags to root command so `reviewdeck` and `reviewdeck list` work identically
	addListFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdList(opts))
	rootCmd.AddCommand(NewCmdFilter())
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdCache())
	rootCmd.AddCommand(NewCmdVersion())
	rootCmd.AddCommand(NewCmdRateLimit())

	return rootCmd
}

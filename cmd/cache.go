package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spiffcs/reviewdeck/internal/cache"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the pull-request and team cache",
	}

	cmd.AddCommand(newCmdCacheClear())
	cmd.AddCommand(newCmdCacheStats())

	return cmd
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the cached pull-request and team lists",
		RunE:  runCacheClear,
	}
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE:  runCacheStats,
	}
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := cache.NewCache()
	if err != nil {
		return fmt.Errorf("failed to access cache: %w", err)
	}

	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Println("Cache cleared.")
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := cache.NewCache()
	if err != nil {
		return fmt.Errorf("failed to access cache: %w", err)
	}

	stats, err := c.Stats()
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	fmt.Printf("Cache statistics:\n")
	fmt.Printf("  PR lists (TTL: %s):\n", cache.PRListTTL)
	fmt.Printf("    Total: %d\n", stats.PRListTotal)
	fmt.Printf("    Valid: %d\n", stats.PRListValid)
	fmt.Printf("    Expired: %d\n", stats.PRListTotal-stats.PRListValid)
	fmt.Printf("  Team lists (TTL: %s):\n", cache.TeamListTTL)
	fmt.Printf("    Total: %d\n", stats.TeamListTotal)
	fmt.Printf("    Valid: %d\n", stats.TeamListValid)
	fmt.Printf("    Expired: %d\n", stats.TeamListTotal-stats.TeamListValid)
	return nil
}

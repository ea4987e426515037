package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spiffcs/reviewdeck/config"
	"github.com/spiffcs/reviewdeck/internal/cache"
	"github.com/spiffcs/reviewdeck/internal/filter"
	"github.com/spiffcs/reviewdeck/internal/ghclient"
	"github.com/spiffcs/reviewdeck/internal/log"
	"github.com/spiffcs/reviewdeck/internal/output"
	"github.com/spiffcs/reviewdeck/internal/service"
	"github.com/spiffcs/reviewdeck/internal/state"
	"github.com/spiffcs/reviewdeck/internal/store"
	"github.com/spiffcs/reviewdeck/internal/tui"
)

// NewCmdList creates the list command.
func NewCmdList(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pull requests awaiting your review (same as root reviewdeck)",
		Long: `Fetches the open pull requests where your review has been requested,
applies your saved organization/repository/team filters, and displays
the result. In a terminal this opens the interactive browser; otherwise
it prints a table.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}

	addListFlags(cmd, opts)
	return cmd
}

// addListFlags adds the list-specific flags to a command.
func addListFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json, markdown)")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Bypass the on-disk response cache")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable the interactive browser (default: auto-detect)")

	// One-shot narrowing. These apply on top of the saved filters for
	// this invocation only and are never persisted.
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Fuzzy search query (title, repository, author)")
	cmd.Flags().StringSliceVar(&opts.Orgs, "org", nil, "Limit to these organizations (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Repos, "repo", nil, "Limit to these repositories as owner/name (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Teams, "team", nil, "Limit to these team slugs (repeatable)")
}

func runList(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()
	useTUI := shouldUseTUI(opts)

	// Suppress logs during TUI to avoid interleaving with the display.
	if useTUI {
		log.Initialize(opts.Verbosity, io.Discard)
	} else {
		log.Initialize(opts.Verbosity, os.Stderr)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fetcher, err := buildFetcher(ctx, cfg, opts)
	if err != nil {
		return err
	}

	filterStore, err := store.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open filter storage: %w", err)
	}

	coord := state.NewCoordinator(filterStore, fetcher,
		state.WithWeights(cfg.GetSearchWeights()),
		state.WithDebounce(cfg.GetDebounce()),
	)
	coord.LoadPersistedConfiguration()

	if useTUI {
		prs, fromCache, err := fetcher.PullRequests(ctx)
		if err != nil {
			return describeFetchError(err)
		}
		log.Info("fetched pull requests", "count", len(prs), "cached", fromCache)

		coord.UpdateMetadataAndTeams(ctx, prs)
		return tui.Run(ctx, coord)
	}

	return runListOneShot(ctx, cfg, fetcher, coord, opts)
}

// runListOneShot prints the filtered list once and exits. One-shot
// narrowing flags overlay the saved configuration without persisting.
func runListOneShot(ctx context.Context, cfg *config.Config, fetcher *service.Fetcher, coord *state.Coordinator, opts *Options) error {
	result, err := fetcher.FetchAll(ctx)
	if err != nil {
		return describeFetchError(err)
	}
	if result.TeamErr != nil {
		log.Warn("team data unavailable", "error", result.TeamErr)
	}

	filterCfg := coord.Snapshot().Configuration
	filterCfg = overlayTransientFilters(filterCfg, opts)

	// Team filters cannot be honored without team data: drop them for
	// this invocation rather than filtering everything to nothing.
	teams := result.Teams
	if result.TeamErr != nil && len(filterCfg.Teams) > 0 {
		log.Warn("ignoring team filters: teams could not be fetched")
		filterCfg.Teams = filter.NewStringSet()
	}

	engine := filter.NewEngine(cfg.GetSearchWeights())
	prs := engine.Apply(filterCfg, opts.Search, result.PRs, teams)

	if msg := coord.ErrorMessage(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}

	format := output.Format(opts.Format)
	if format == "" {
		format = output.Format(cfg.DefaultFormat)
	}
	formatter := output.NewFormatter(format)
	return formatter.Format(prs, os.Stdout)
}

// buildFetcher authenticates against GitHub and wires the cache-aside
// fetcher.
func buildFetcher(ctx context.Context, cfg *config.Config, opts *Options) (*service.Fetcher, error) {
	client, err := ghclient.NewClient(ctx, "")
	if err != nil {
		return nil, err
	}

	currentUser, err := client.AuthenticatedUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated user: %w", err)
	}
	log.Info("authenticated", "user", currentUser)

	var c cache.Cacher
	if !opts.NoCache && !cfg.CacheDisabled() {
		diskCache, cacheErr := cache.NewCache()
		if cacheErr != nil {
			log.Warn("failed to initialize cache", "error", cacheErr)
		} else {
			c = diskCache
		}
	}

	return service.NewFetcher(client, client, c, currentUser), nil
}

// overlayTransientFilters replaces whole filter dimensions with the
// one-shot flag values. A dimension with no flag keeps the saved
// selection.
func overlayTransientFilters(cfg filter.Configuration, opts *Options) filter.Configuration {
	result := cfg.Clone()
	if len(opts.Orgs) > 0 {
		result.Organizations = filter.NewStringSet(opts.Orgs...)
	}
	if len(opts.Repos) > 0 {
		result.Repositories = filter.NewStringSet(opts.Repos...)
	}
	if len(opts.Teams) > 0 {
		result.Teams = filter.NewStringSet(opts.Teams...)
	}
	return result
}

// describeFetchError maps classified fetch failures to actionable
// messages.
func describeFetchError(err error) error {
	switch {
	case ghclient.IsRateLimitError(err):
		return fmt.Errorf("GitHub API rate limit exceeded; try again later or run 'reviewdeck ratelimit status': %w", err)
	case ghclient.IsForbiddenError(err):
		return fmt.Errorf("GitHub rejected the request; check that GITHUB_TOKEN has repo read access: %w", err)
	default:
		return err
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spiffcs/reviewdeck/config"
	"github.com/spiffcs/reviewdeck/internal/filter"
	"github.com/spiffcs/reviewdeck/internal/log"
	"github.com/spiffcs/reviewdeck/internal/store"
)

// NewCmdFilter creates the filter command with subcommands.
func NewCmdFilter() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Show or manage the saved pull-request filters",
		Long: `Show or manage the saved organization/repository/team filters.

Filters persist across runs and apply to both the interactive browser
and one-shot output. Selecting an organization selects all of its
repositories; deselecting repositories deselects the organization.`,
		RunE: runFilterShow,
	}

	cmd.AddCommand(newCmdFilterShow())
	cmd.AddCommand(newCmdFilterSelect())
	cmd.AddCommand(newCmdFilterDeselect())
	cmd.AddCommand(newCmdFilterClear())

	return cmd
}

func newCmdFilterShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved filters (same as bare 'reviewdeck filter')",
		RunE:  runFilterShow,
	}
}

func newCmdFilterSelect() *cobra.Command {
	return &cobra.Command{
		Use:   "select (org|repo|team) <value>...",
		Short: "Add values to the saved filters",
		Long: `Add values to the saved filters.

  reviewdeck filter select org anchore acme
  reviewdeck filter select repo anchore/syft
  reviewdeck filter select team platform`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilterMutate(cmd.Context(), args[0], args[1:], true)
		},
	}
}

func newCmdFilterDeselect() *cobra.Command {
	return &cobra.Command{
		Use:   "deselect (org|repo|team) <value>...",
		Short: "Remove values from the saved filters",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilterMutate(cmd.Context(), args[0], args[1:], false)
		},
	}
}

func newCmdFilterClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all saved filters",
		RunE:  runFilterClear,
	}
}

func runFilterShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadFilterConfiguration()
	if err != nil {
		return err
	}

	if cfg.IsEmpty() {
		fmt.Println("No filters saved. All pull requests are shown.")
		return nil
	}

	printFilterSection("Organizations", cfg.Organizations)
	printFilterSection("Repositories", cfg.Repositories)
	printFilterSection("Teams", cfg.Teams)
	return nil
}

func printFilterSection(name string, set filter.StringSet) {
	fmt.Printf("%s:\n", name)
	if len(set) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, member := range set.Sorted() {
		fmt.Printf("  %s\n", member)
	}
}

func runFilterMutate(ctx context.Context, kind string, values []string, add bool) error {
	log.Initialize(0, os.Stderr)

	filterStore, err := store.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open filter storage: %w", err)
	}
	cfg, err := loadFilterConfigurationFrom(filterStore)
	if err != nil {
		return err
	}

	switch kind {
	case "org", "orgs", "organization":
		meta, metaErr := loadFilterMetadata(ctx)
		for _, org := range values {
			if add {
				cfg.Organizations.Add(org)
				if metaErr == nil {
					cfg.Repositories = filter.SelectAllRepositories(org, meta, cfg.Repositories)
				}
			} else {
				cfg.Organizations.Remove(org)
				if metaErr == nil {
					cfg.Repositories = filter.DeselectAllRepositories(org, meta, cfg.Repositories)
				}
			}
		}
		if metaErr != nil {
			log.Warn("could not fetch repositories; organization change not cascaded", "error", metaErr)
		}

	case "repo", "repos", "repository":
		for _, repo := range values {
			if add {
				cfg.Repositories.Add(repo)
			} else {
				cfg.Repositories.Remove(repo)
			}
		}
		if meta, metaErr := loadFilterMetadata(ctx); metaErr == nil {
			cfg.Organizations = filter.SyncOrganizations(meta, cfg.Repositories, cfg.Organizations)
		} else {
			log.Warn("could not fetch repositories; organization selection not re-synced", "error", metaErr)
		}

	case "team", "teams":
		for _, slug := range values {
			if add {
				cfg.Teams.Add(slug)
			} else {
				cfg.Teams.Remove(slug)
			}
		}

	default:
		return fmt.Errorf("unknown filter kind %q: use org, repo, or team", kind)
	}

	if err := filterStore.Save(cfg); err != nil {
		return fmt.Errorf("failed to save filters: %w", err)
	}

	fmt.Println("Filters updated.")
	return nil
}

func runFilterClear(_ *cobra.Command, _ []string) error {
	filterStore, err := store.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open filter storage: %w", err)
	}
	if err := filterStore.Clear(); err != nil {
		return fmt.Errorf("failed to clear filters: %w", err)
	}
	fmt.Println("Filters cleared.")
	return nil
}

func loadFilterConfiguration() (filter.Configuration, error) {
	filterStore, err := store.NewStore()
	if err != nil {
		return filter.Configuration{}, fmt.Errorf("failed to open filter storage: %w", err)
	}
	return loadFilterConfigurationFrom(filterStore)
}

func loadFilterConfigurationFrom(filterStore *store.Store) (filter.Configuration, error) {
	cfg, err := filterStore.Load()
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, store.ErrNotFound):
		return filter.EmptyConfiguration(), nil
	case errors.Is(err, store.ErrCorrupt):
		fmt.Fprintln(os.Stderr, "Saved filters were unreadable and have been reset.")
		if clearErr := filterStore.Clear(); clearErr != nil {
			log.Warn("failed to clear corrupt filter configuration", "error", clearErr)
		}
		return filter.EmptyConfiguration(), nil
	default:
		return filter.Configuration{}, err
	}
}

// loadFilterMetadata derives the organization/repository universe from
// the current review-requested PR list so organization toggles can
// cascade. Uses the cache when fresh.
func loadFilterMetadata(ctx context.Context) (filter.Metadata, error) {
	cfg, err := config.Load()
	if err != nil {
		return filter.Metadata{}, err
	}
	fetcher, err := buildFetcher(ctx, cfg, &Options{})
	if err != nil {
		return filter.Metadata{}, err
	}
	prs, _, err := fetcher.PullRequests(ctx)
	if err != nil {
		return filter.Metadata{}, err
	}
	return filter.DeriveMetadata(prs), nil
}

// Package cache provides caching functionality for GitHub API responses.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spiffcs/reviewdeck/internal/log"
	"github.com/spiffcs/reviewdeck/internal/model"
)

// Cacher defines the interface for caching operations.
// This interface enables mocking the cache in unit tests.
type Cacher interface {
	GetPRList(username string) ([]model.PullRequest, bool)
	SetPRList(username string, prs []model.PullRequest) error
	GetTeamList(username string) ([]model.Team, bool)
	SetTeamList(username string, teams []model.Team) error
	Clear() error
	Stats() (Stats, error)
}

// Ensure Cache implements Cacher interface.
var _ Cacher = (*Cache)(nil)

// Cache stores fetched lists to avoid repeated API calls.
type Cache struct {
	dir string
}

// NewCache creates a new cache instance under the user cache directory.
func NewCache() (*Cache, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}

	cacheDir = filepath.Join(cacheDir, "reviewdeck")
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Cache{dir: cacheDir}, nil
}

// NewCacheAt creates a cache rooted at an explicit directory. Used by tests.
func NewCacheAt(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) prListPath(username string) string {
	return filepath.Join(c.dir, fmt.Sprintf("prs_%s.json", username))
}

func (c *Cache) teamListPath(username string) string {
	return filepath.Join(c.dir, fmt.Sprintf("teams_%s.json", username))
}

// GetPRList retrieves the cached review-requested PR list.
func (c *Cache) GetPRList(username string) ([]model.PullRequest, bool) {
	data, err := os.ReadFile(c.prListPath(username))
	if err != nil {
		return nil, false
	}

	var entry PRListEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	// Invalidate on format change or staleness.
	if entry.Version != Version {
		log.Debug("cache version mismatch", "cached", entry.Version, "current", Version)
		return nil, false
	}
	if time.Since(entry.CachedAt) > PRListTTL {
		return nil, false
	}

	return entry.PRs, true
}

// SetPRList caches the review-requested PR list.
func (c *Cache) SetPRList(username string, prs []model.PullRequest) error {
	entry := PRListEntry{
		PRs:      prs,
		CachedAt: time.Now(),
		Version:  Version,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.prListPath(username), data, 0600)
}

// GetTeamList retrieves the cached team list.
func (c *Cache) GetTeamList(username string) ([]model.Team, bool) {
	data, err := os.ReadFile(c.teamListPath(username))
	if err != nil {
		return nil, false
	}

	var entry TeamListEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if entry.Version != Version {
		return nil, false
	}
	if time.Since(entry.CachedAt) > TeamListTTL {
		return nil, false
	}

	return entry.Teams, true
}

// SetTeamList caches the team list.
func (c *Cache) SetTeamList(username string, teams []model.Team) error {
	entry := TeamListEntry{
		Teams:    teams,
		CachedAt: time.Now(),
		Version:  Version,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.teamListPath(username), data, 0600)
}

// Clear removes all cached entries.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// Stats returns cache statistics.
func (c *Cache) Stats() (Stats, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	now := time.Now()

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			continue
		}

		// Both entry kinds share version and cachedAt fields.
		var meta struct {
			CachedAt time.Time `json:"cachedAt"`
			Version  int       `json:"version"`
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		ttl := PRListTTL
		if strings.HasPrefix(name, "teams_") {
			ttl = TeamListTTL
		}
		valid := meta.Version == Version && now.Sub(meta.CachedAt) <= ttl

		if strings.HasPrefix(name, "teams_") {
			stats.TeamListTotal++
			if valid {
				stats.TeamListValid++
			}
		} else {
			stats.PRListTotal++
			if valid {
				stats.PRListValid++
			}
		}
	}

	return stats, nil
}

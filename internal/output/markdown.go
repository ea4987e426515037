package output

import (
	"fmt"
	"io"
	"time"

	"github.com/spiffcs/reviewdeck/internal/format"
	"github.com/spiffcs/reviewdeck/internal/model"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct{}

// Format outputs pull requests as Markdown, grouped by repository.
func (f *MarkdownFormatter) Format(prs []model.PullRequest, w io.Writer) error {
	if len(prs) == 0 {
		fmt.Fprintln(w, "No pull requests match the current filters.")
		return nil
	}

	fmt.Fprintln(w, "# Pull Requests Awaiting Review")
	fmt.Fprintf(w, "\n*Generated: %s*\n\n", time.Now().Format("2006-01-02 15:04"))

	// Group by repository, preserving the ranked order within and
	// across groups (first appearance wins).
	var repoOrder []string
	grouped := make(map[string][]model.PullRequest)
	for _, pr := range prs {
		repo := pr.RepositoryFullName()
		if _, seen := grouped[repo]; !seen {
			repoOrder = append(repoOrder, repo)
		}
		grouped[repo] = append(grouped[repo], pr)
	}

	for _, repo := range repoOrder {
		group := grouped[repo]
		fmt.Fprintf(w, "## %s (%d)\n\n", repo, len(group))
		for _, pr := range group {
			f.formatPR(pr, w)
		}
	}

	fmt.Fprintf(w, "*%d pull request(s) total*\n", len(prs))
	return nil
}

func (f *MarkdownFormatter) formatPR(pr model.PullRequest, w io.Writer) {
	fmt.Fprintf(w, "- [#%d %s](%s) by @%s", pr.Number, pr.Title, pr.HTMLURL, pr.AuthorLogin)
	if !pr.UpdatedAt.IsZero() {
		fmt.Fprintf(w, " - updated %s ago", format.FormatAge(time.Since(pr.UpdatedAt)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

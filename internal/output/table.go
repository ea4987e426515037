package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spiffcs/reviewdeck/internal/format"
	"github.com/spiffcs/reviewdeck/internal/model"
	"golang.org/x/term"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct{}

var (
	repoColor   = color.New(color.FgCyan)
	numberColor = color.New(color.FgYellow)
	authorColor = color.New(color.FgGreen)
)

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	// Only use hyperlinks if stdout is a terminal
	if url == "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// Format outputs pull requests as a table
func (f *TableFormatter) Format(prs []model.PullRequest, w io.Writer) error {
	if len(prs) == 0 {
		fmt.Fprintln(w, "No pull requests match the current filters.")
		return nil
	}

	// Column widths
	const (
		colRepo   = 28
		colNumber = 6
		colTitle  = 50
		colAuthor = 16
		colAge    = 5
	)

	// Header
	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %s\n",
		colRepo, "Repository",
		colNumber, "PR",
		colTitle, "Title",
		colAuthor, "Author",
		"Age")
	fmt.Fprintln(w, strings.Repeat("-", colRepo+colNumber+colTitle+colAuthor+colAge+8))

	for _, pr := range prs {
		repo, repoWidth := format.TruncateToWidth(pr.RepositoryFullName(), colRepo)
		repoCell := format.PadRight(repoColor.Sprint(repo), repoWidth, colRepo)

		number := fmt.Sprintf("#%d", pr.Number)
		numberCell := format.PadRight(numberColor.Sprint(number), len(number), colNumber)

		title, titleWidth := format.TruncateToWidth(pr.Title, colTitle)
		titleCell := format.PadRight(hyperlink(title, pr.HTMLURL), titleWidth, colTitle)

		author, authorWidth := format.TruncateToWidth(pr.AuthorLogin, colAuthor)
		authorCell := format.PadRight(authorColor.Sprint(author), authorWidth, colAuthor)

		age := ""
		if !pr.UpdatedAt.IsZero() {
			age = format.FormatAge(time.Since(pr.UpdatedAt))
		}

		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			repoCell,
			numberCell,
			titleCell,
			authorCell,
			age,
		)
	}

	fmt.Fprintf(w, "\n%d pull request(s)\n", len(prs))
	return nil
}

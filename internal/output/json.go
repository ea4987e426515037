package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/reviewdeck/internal/model"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format outputs pull requests as JSON
func (f *JSONFormatter) Format(prs []model.PullRequest, w io.Writer) error {
	if prs == nil {
		prs = []model.PullRequest{}
	}
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(prs)
}

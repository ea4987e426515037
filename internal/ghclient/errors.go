package ghclient

import (
	"errors"
	"net/http"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/reviewdeck/internal/model"
)

var (
	// ErrRateLimited is returned when the GitHub API rate limit has
	// been exhausted.
	ErrRateLimited = errors.New("GitHub API rate limit exceeded")

	// ErrForbidden is returned when the token lacks the scope required
	// for an endpoint (notably read:org for team listing). Permanent
	// until the user re-authorizes; not retried automatically.
	ErrForbidden = errors.New("GitHub API access forbidden")
)

// IsRateLimitError reports whether err is (or wraps) a rate limit
// failure.
func IsRateLimitError(err error) bool {
	return errors.Is(classify(err), ErrRateLimited)
}

// IsForbiddenError reports whether err is (or wraps) a permission
// failure.
func IsForbiddenError(err error) bool {
	return errors.Is(classify(err), ErrForbidden)
}

// classify maps a go-github error to our sentinel errors where a
// classification exists, passing everything else through as transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrForbidden) {
		return err
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return ErrRateLimited
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return ErrRateLimited
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusForbidden:
			return ErrForbidden
		case http.StatusTooManyRequests:
			return ErrRateLimited
		}
	}

	return err
}

// ClassifyTeamFailure converts a team fetch error into the domain
// failure reason carried by the team load state.
func ClassifyTeamFailure(err error) model.TeamFailureReason {
	switch {
	case errors.Is(err, ErrForbidden):
		return model.TeamFailureForbidden
	case errors.Is(err, ErrRateLimited):
		return model.TeamFailureRateLimited
	default:
		return model.TeamFailureTransient
	}
}

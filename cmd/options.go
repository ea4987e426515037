package cmd

// Options holds the shared command-line options for the reviewdeck CLI.
type Options struct {
	Format    string
	Verbosity int
	NoCache   bool
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// Transient narrowing for one-shot output. These do not touch the
	// persisted filter configuration.
	Search string
	Orgs   []string
	Repos  []string
	Teams  []string
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithNoCache disables the on-disk response cache.
func WithNoCache(noCache bool) Option {
	return func(o *Options) {
		o.NoCache = noCache
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// WithSearch sets a transient fuzzy search query.
func WithSearch(query string) Option {
	return func(o *Options) {
		o.Search = query
	}
}

package aggregate

// Default aggregation settings.
const (
	defaultTopN          = 5
	defaultOpponentLimit = 10
)

// defaultPalette colours reason series in rank order.
var defaultPalette = []string{
	"#0ea5e9", "#22c55e", "#f59e0b", "#6366f1", "#ef4444",
	"#14b8a6", "#a855f7", "#f97316", "#10b981", "#3b82f6",
}

type settings struct {
	topN          int
	opponentLimit int
	palette       []string
	excludedWin   map[string]struct{}
}

func defaults() settings {
	return settings{
		topN:          defaultTopN,
		opponentLimit: defaultOpponentLimit,
		palette:       defaultPalette,
		excludedWin:   map[string]struct{}{},
	}
}

// Option applies a configuration option to an aggregation run.
type Option func(*settings)

// WithTopN sets how many reasons get a per-match series.
func WithTopN(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithOpponentLimit caps the opponent table.
func WithOpponentLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.opponentLimit = n
		}
	}
}

// WithPalette overrides the series colours.
func WithPalette(colors ...string) Option {
	return func(s *settings) {
		if len(colors) > 0 {
			s.palette = colors
		}
	}
}

// WithExcludedWinReasons drops reasons from the win-reason shares and series,
// e.g. a catch-all label that would otherwise dominate the chart.
func WithExcludedWinReasons(reasons ...string) Option {
	return func(s *settings) {
		for _, r := range reasons {
			s.excludedWin[normalize(r)] = struct{}{}
		}
	}
}

package metrics

import "context"

// TopItems is the result of the top-items sub-query: most requested
// permitted domains and most requested blocked domains.
type TopItems struct {
	Queries Ranking
	Blocked Ranking
}

// Provider is the read capability set of a metrics source. Each method is an
// independent sub-query that may fail on its own.
type Provider interface {
	Summary(ctx context.Context) (*Summary, error)
	TopSources(ctx context.Context, limit int) (Ranking, error)
	TopItems(ctx context.Context, limit int) (TopItems, error)
	QueriesOverTime(ctx context.Context) (TimeSeries, error)
}

// Controller is the write capability, only available for credentialed
// targets.
type Controller interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context, seconds int) error
}

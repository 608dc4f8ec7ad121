// Package metrics defines the data model shared by the refresh core, the
// provider client and the snapshot cache: targets, snapshots with
// independently optional fields, rankings, and query time series.
//
// A nil field in a Snapshot means "not available" (never fetched, or the
// sub-query that produces it failed). A non-nil but empty Ranking or
// TimeSeries means the provider answered with no data.
//
// The package also holds the two pure transforms the dashboard needs:
// Squash, which downsamples a time series into display buckets, and
// Ranking.Sorted, which orders a leaderboard.
package metrics

package metrics

import "sort"

// Ranking maps a label (domain, client) to a count. It has no inherent order.
type Ranking map[string]uint64

// RankEntry is one row of a sorted Ranking.
type RankEntry struct {
	Label string `json:"label"`
	Count uint64 `json:"count"`
}

// Sorted returns the entries ordered by count descending, ties broken by
// label ascending.
func (r Ranking) Sorted() []RankEntry {
	entries := make([]RankEntry, 0, len(r))
	for label, count := range r {
		entries = append(entries, RankEntry{Label: label, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// Top returns at most n entries of Sorted. n <= 0 returns all of them.
func (r Ranking) Top(n int) []RankEntry {
	entries := r.Sorted()
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

package metrics

import (
	"strings"
)

// Target is one monitored provider instance. Immutable after load.
type Target struct {
	ID         string
	Name       string
	Endpoint   string
	Credential string // empty when the target is read-only
}

// HasCredential reports whether write operations may be attempted.
func (t Target) HasCredential() bool {
	return t.Credential != ""
}

// TargetID derives a stable identifier from a display name.
func TargetID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.Join(strings.Fields(id), "-")
	return id
}

// Summary holds the headline counters reported by a provider.
type Summary struct {
	Status              string  `json:"status"`
	PrivacyLevel        int     `json:"privacy_level"`
	DomainsBeingBlocked uint64  `json:"domains_being_blocked"`
	DNSQueriesToday     uint64  `json:"dns_queries_today"`
	AdsBlockedToday     uint64  `json:"ads_blocked_today"`
	AdsPercentageToday  float64 `json:"ads_percentage_today"`
	UniqueDomains       uint64  `json:"unique_domains"`
	QueriesForwarded    uint64  `json:"queries_forwarded"`
	QueriesCached       uint64  `json:"queries_cached"`
	UniqueClients       uint64  `json:"unique_clients"`
	ReplyNODATA         uint64  `json:"reply_nodata"`
	ReplyNXDOMAIN       uint64  `json:"reply_nxdomain"`
	ReplyCNAME          uint64  `json:"reply_cname"`
	ReplyIP             uint64  `json:"reply_ip"`
}

// Enabled reports whether blocking is active.
func (s Summary) Enabled() bool {
	return s.Status == "enabled"
}

// Snapshot is the latest metrics bundle for a target. Every field is
// independently optional; see the package documentation for nil semantics.
// Snapshots are treated as immutable once built: the maps and slices inside
// are shared, never modified in place.
type Snapshot struct {
	Summary    *Summary   `json:"summary"`
	TopSources Ranking    `json:"top_sources"`
	TopItems   Ranking    `json:"top_items"`
	TopBlocked Ranking    `json:"top_blocked"`
	Series     TimeSeries `json:"series"`
}

// IsEmpty reports whether no field is present.
func (s Snapshot) IsEmpty() bool {
	return s.Summary == nil && s.TopSources == nil && s.TopItems == nil &&
		s.TopBlocked == nil && s.Series == nil
}

// Merge overlays next on prev field by field: a field present in next wins,
// a field absent in next keeps the value from prev. A present field is never
// regressed to absent.
func Merge(prev, next Snapshot) Snapshot {
	out := prev
	if next.Summary != nil {
		out.Summary = next.Summary
	}
	if next.TopSources != nil {
		out.TopSources = next.TopSources
	}
	if next.TopItems != nil {
		out.TopItems = next.TopItems
	}
	if next.TopBlocked != nil {
		out.TopBlocked = next.TopBlocked
	}
	if next.Series != nil {
		out.Series = next.Series
	}
	return out
}

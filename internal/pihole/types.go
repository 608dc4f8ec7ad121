package pihole

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/rileyhilliard/pimon/internal/metrics"
)

// rawSummary mirrors the summaryRaw payload.
type rawSummary struct {
	DomainsBeingBlocked uint64  `json:"domains_being_blocked"`
	DNSQueriesToday     uint64  `json:"dns_queries_today"`
	AdsBlockedToday     uint64  `json:"ads_blocked_today"`
	AdsPercentageToday  float64 `json:"ads_percentage_today"`
	UniqueDomains       uint64  `json:"unique_domains"`
	QueriesForwarded    uint64  `json:"queries_forwarded"`
	QueriesCached       uint64  `json:"queries_cached"`
	UniqueClients       uint64  `json:"unique_clients"`
	ReplyNODATA         uint64  `json:"reply_NODATA"`
	ReplyNXDOMAIN       uint64  `json:"reply_NXDOMAIN"`
	ReplyCNAME          uint64  `json:"reply_CNAME"`
	ReplyIP             uint64  `json:"reply_IP"`
	PrivacyLevel        int     `json:"privacy_level"`
	Status              string  `json:"status"`
}

func (r rawSummary) normalize() metrics.Summary {
	return metrics.Summary{
		Status:              r.Status,
		PrivacyLevel:        r.PrivacyLevel,
		DomainsBeingBlocked: r.DomainsBeingBlocked,
		DNSQueriesToday:     r.DNSQueriesToday,
		AdsBlockedToday:     r.AdsBlockedToday,
		AdsPercentageToday:  r.AdsPercentageToday,
		UniqueDomains:       r.UniqueDomains,
		QueriesForwarded:    r.QueriesForwarded,
		QueriesCached:       r.QueriesCached,
		UniqueClients:       r.UniqueClients,
		ReplyNODATA:         r.ReplyNODATA,
		ReplyNXDOMAIN:       r.ReplyNXDOMAIN,
		ReplyCNAME:          r.ReplyCNAME,
		ReplyIP:             r.ReplyIP,
	}
}

// phpRanking decodes a label->count object. PHP encodes an empty associative
// array as [], which decodes to an empty map.
type phpRanking map[string]uint64

// UnmarshalJSON implements json.Unmarshaler.
func (p *phpRanking) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		*p = phpRanking{}
		return nil
	}
	m := make(map[string]uint64)
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return err
	}
	*p = m
	return nil
}

func (p phpRanking) ranking() metrics.Ranking {
	out := make(metrics.Ranking, len(p))
	for label, count := range p {
		out[label] = count
	}
	return out
}

// series interprets the keys as epoch seconds. Malformed keys are skipped.
func (p phpRanking) series() metrics.TimeSeries {
	out := make(metrics.TimeSeries, 0, len(p))
	for key, count := range p {
		ts, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, metrics.Point{Timestamp: ts, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

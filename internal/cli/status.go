package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"

	"github.com/rileyhilliard/pimon/internal/logger"
	"github.com/rileyhilliard/pimon/internal/metrics"
	"github.com/rileyhilliard/pimon/internal/monitor"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusOutput represents the JSON output for the status command.
type StatusOutput struct {
	Servers []ServerStatus `json:"servers"`
}

// ServerStatus is one server's row in the status report.
type ServerStatus struct {
	Name       string              `json:"name"`
	Host       string              `json:"host"`
	Reachable  bool                `json:"reachable"`
	Summary    *metrics.Summary    `json:"summary,omitempty"`
	TopBlocked []metrics.RankEntry `json:"top_blocked,omitempty"`
	TopClients []metrics.RankEntry `json:"top_clients,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// statusOptions are the status command's flags.
type statusOptions struct {
	JSON    bool
	Top     int
	Timeout time.Duration
}

// statusCommand fetches every configured server once and prints a report.
func statusCommand(w io.Writer, path string, opts statusOptions) error {
	cfg, _, err := loadConfig(path)
	if err != nil {
		return err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = cfg.FetchTimeout
	}

	// Keyless servers fail their top-list queries on every fetch; only
	// report that when debugging.
	log := logger.Noop()
	if logger.DebugEnabled() {
		log = logger.NewEnvLogger("[status]")
	}
	sess := openSession(cfg, log)
	defer sess.Close()

	report := collectStatus(sess.coordinators, opts)

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	renderStatus(w, report, opts.Top)
	return nil
}

// collectStatus starts a fetch on every coordinator, then waits for each in
// turn under one shared deadline.
func collectStatus(coords []*monitor.Coordinator, opts statusOptions) StatusOutput {
	for _, c := range coords {
		c.RequestRefresh()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	out := StatusOutput{Servers: make([]ServerStatus, 0, len(coords))}
	for _, c := range coords {
		target := c.Target()
		row := ServerStatus{Name: target.Name, Host: target.Endpoint}

		if !c.Await(ctx) {
			row.Error = "timed out after " + opts.Timeout.String()
			out.Servers = append(out.Servers, row)
			continue
		}

		// Only what this fetch returned counts; cached fields don't prove
		// the server is up.
		snap := c.LastFetch()
		row.Summary = snap.Summary
		row.Reachable = snap.Summary != nil
		if !row.Reachable {
			row.Error = "no response"
		}
		if opts.Top > 0 {
			row.TopBlocked = snap.TopBlocked.Top(opts.Top)
			row.TopClients = snap.TopSources.Top(opts.Top)
		}
		out.Servers = append(out.Servers, row)
	}
	return out
}

// renderStatus writes the report as tables.
func renderStatus(w io.Writer, report StatusOutput, top int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Server", "Status", "Queries", "Blocked", "Percent", "Domains", "Clients"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	for _, s := range report.Servers {
		if s.Summary == nil {
			table.Append([]string{s.Name, s.Error, "-", "-", "-", "-", "-"})
			continue
		}
		sum := s.Summary
		table.Append([]string{
			s.Name,
			sum.Status,
			humanize.Comma(int64(sum.DNSQueriesToday)),
			humanize.Comma(int64(sum.AdsBlockedToday)),
			fmt.Sprintf("%.1f%%", sum.AdsPercentageToday),
			humanize.Comma(int64(sum.DomainsBeingBlocked)),
			humanize.Comma(int64(sum.UniqueClients)),
		})
	}
	table.Render()

	if top <= 0 {
		return
	}
	for _, s := range report.Servers {
		if len(s.TopBlocked) > 0 {
			fmt.Fprintf(w, "\n%s: top blocked\n", s.Name)
			renderRanking(w, "Domain", s.TopBlocked)
		}
		if len(s.TopClients) > 0 {
			fmt.Fprintf(w, "\n%s: top clients\n", s.Name)
			renderRanking(w, "Client", s.TopClients)
		}
	}
}

func renderRanking(w io.Writer, label string, entries []metrics.RankEntry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{label, "Count"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, e := range entries {
		table.Append([]string{e.Label, humanize.Comma(int64(e.Count))})
	}
	table.Render()
}

package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pimon/internal/config"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

const fakeSummary = `{
	"domains_being_blocked": 120000,
	"dns_queries_today": 5000,
	"ads_blocked_today": 750,
	"ads_percentage_today": 15.0,
	"unique_domains": 900,
	"queries_forwarded": 3000,
	"queries_cached": 1250,
	"unique_clients": 10,
	"reply_NODATA": 40,
	"reply_NXDOMAIN": 30,
	"reply_CNAME": 1000,
	"reply_IP": 2500,
	"privacy_level": 0,
	"status": "enabled"
}`

// fakePihole answers the admin API the way a live server does. Calls that
// need a key get the empty PHP array unless auth matches.
type fakePihole struct {
	*httptest.Server
	key   string
	calls int32
}

func newFakePihole(t *testing.T, key string) *fakePihole {
	t.Helper()
	f := &fakePihole{key: key}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakePihole) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

func (f *fakePihole) serve(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.calls, 1)
	q := r.URL.Query()
	authed := f.key != "" && q.Get("auth") == f.key

	var body string
	switch {
	case q.Has("summaryRaw"):
		body = fakeSummary
	case q.Has("overTimeData10mins"):
		body = `{"domains_over_time":{"1700000000":10,"1700000600":20},"ads_over_time":{}}`
	case q.Has("topClients") && authed:
		body = `{"top_sources":{"laptop|192.168.1.20":300,"phone|192.168.1.21":120}}`
	case q.Has("topItems") && authed:
		body = `{"top_queries":{"example.com":50},"top_ads":{"ads.example.net":40,"tracker.example.org":7}}`
	default:
		body = `[]`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// writeTestConfig saves cfg as JSON under a temp dir and returns the path.
func writeTestConfig(t *testing.T, servers ...config.Server) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Servers = servers
	cfg.FetchTimeout = 5 * time.Second
	cfg.RateLimit = 1000
	path := filepath.Join(t.TempDir(), "pimon.json")
	require.NoError(t, config.Save(path, cfg))
	return path
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

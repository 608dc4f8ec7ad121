package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pimon/internal/config"
	"github.com/rileyhilliard/pimon/internal/store"
)

func TestStatusCommand_Table(t *testing.T) {
	pi := newFakePihole(t, "")
	path := writeTestConfig(t, config.Server{Name: "home", Host: pi.URL})

	var out bytes.Buffer
	require.NoError(t, statusCommand(&out, path, statusOptions{Timeout: 5 * time.Second}))

	got := out.String()
	assert.Contains(t, got, "SERVER")
	assert.Contains(t, got, "home")
	assert.Contains(t, got, "enabled")
	assert.Contains(t, got, "5,000")
	assert.Contains(t, got, "15.0%")
	assert.Contains(t, got, "120,000")
}

func TestStatusCommand_JSON(t *testing.T) {
	pi := newFakePihole(t, "secret")
	path := writeTestConfig(t,
		config.Server{Name: "home", Host: pi.URL, APIKey: "secret"},
		config.Server{Name: "office", Host: pi.URL},
	)

	var out bytes.Buffer
	require.NoError(t, statusCommand(&out, path, statusOptions{JSON: true, Top: 1, Timeout: 5 * time.Second}))

	var report StatusOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Servers, 2)

	home := report.Servers[0]
	assert.Equal(t, "home", home.Name)
	assert.True(t, home.Reachable)
	require.NotNil(t, home.Summary)
	assert.Equal(t, uint64(5000), home.Summary.DNSQueriesToday)
	require.Len(t, home.TopBlocked, 1)
	assert.Equal(t, "ads.example.net", home.TopBlocked[0].Label)
	require.Len(t, home.TopClients, 1)
	assert.Equal(t, "laptop|192.168.1.20", home.TopClients[0].Label)

	office := report.Servers[1]
	assert.True(t, office.Reachable, "summary works without a key")
	assert.Empty(t, office.TopBlocked)
	assert.Empty(t, office.TopClients)
}

func TestStatusCommand_TopTables(t *testing.T) {
	pi := newFakePihole(t, "secret")
	path := writeTestConfig(t, config.Server{Name: "home", Host: pi.URL, APIKey: "secret"})

	var out bytes.Buffer
	require.NoError(t, statusCommand(&out, path, statusOptions{Top: 5, Timeout: 5 * time.Second}))

	got := out.String()
	assert.Contains(t, got, "home: top blocked")
	assert.Contains(t, got, "tracker.example.org")
	assert.Contains(t, got, "home: top clients")
	assert.Contains(t, got, "phone|192.168.1.21")
}

func TestStatusCommand_UnreachableServer(t *testing.T) {
	pi := newFakePihole(t, "")
	down := newFakePihole(t, "")
	down.Close()

	path := writeTestConfig(t,
		config.Server{Name: "home", Host: pi.URL},
		config.Server{Name: "down", Host: down.URL},
	)

	var out bytes.Buffer
	require.NoError(t, statusCommand(&out, path, statusOptions{JSON: true, Timeout: 5 * time.Second}))

	var report StatusOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Servers, 2)
	assert.True(t, report.Servers[0].Reachable)
	assert.False(t, report.Servers[1].Reachable)
	assert.Nil(t, report.Servers[1].Summary)
	assert.NotEmpty(t, report.Servers[1].Error)
}

func TestStatusCommand_WritesCache(t *testing.T) {
	pi := newFakePihole(t, "")
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	cfg := config.DefaultConfig()
	cfg.Servers = []config.Server{{Name: "Home Lab", Host: pi.URL}}
	cfg.CachePath = cachePath
	cfg.RateLimit = 1000
	path := filepath.Join(t.TempDir(), "pimon.yaml")
	require.NoError(t, config.Save(path, cfg))

	var out bytes.Buffer
	require.NoError(t, statusCommand(&out, path, statusOptions{Timeout: 5 * time.Second}))

	st, err := store.Open(cachePath)
	require.NoError(t, err)
	defer st.Close()

	entry, ok, err := st.GetSnapshot("home-lab")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, entry.Snapshot.Summary)
	assert.Equal(t, uint64(750), entry.Snapshot.Summary.AdsBlockedToday)
}

func TestStatusCommand_CachedServerGoneDown(t *testing.T) {
	pi := newFakePihole(t, "")
	cfg := config.DefaultConfig()
	cfg.Servers = []config.Server{{Name: "home", Host: pi.URL}}
	cfg.CachePath = filepath.Join(t.TempDir(), "cache.db")
	cfg.RateLimit = 1000
	path := filepath.Join(t.TempDir(), "pimon.json")
	require.NoError(t, config.Save(path, cfg))

	var out bytes.Buffer
	require.NoError(t, statusCommand(&out, path, statusOptions{JSON: true, Timeout: 5 * time.Second}))

	st, err := store.Open(cfg.CachePath)
	require.NoError(t, err)
	before, ok, err := st.GetSnapshot("home")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, st.Close())

	pi.Close()

	out.Reset()
	require.NoError(t, statusCommand(&out, path, statusOptions{JSON: true, Timeout: 5 * time.Second}))

	var report StatusOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Servers, 1)
	assert.False(t, report.Servers[0].Reachable, "cached data must not mask a down server")
	assert.Nil(t, report.Servers[0].Summary)
	assert.NotEmpty(t, report.Servers[0].Error)

	st, err = store.Open(cfg.CachePath)
	require.NoError(t, err)
	defer st.Close()
	after, ok, err := st.GetSnapshot("home")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, before.FetchedAt.Equal(after.FetchedAt))
}

func TestStatusCommand_MissingConfig(t *testing.T) {
	var out bytes.Buffer
	err := statusCommand(&out, filepath.Join(t.TempDir(), "nope.json"), statusOptions{})
	require.Error(t, err)
	assert.Empty(t, out.String())
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pimon/internal/config"
	"github.com/rileyhilliard/pimon/internal/errors"
)

func TestInit_CreatesConfig(t *testing.T) {
	pi := newFakePihole(t, "")
	path := filepath.Join(t.TempDir(), "pimon.json")

	var out bytes.Buffer
	err := Init(InitOptions{
		Path:           path,
		Server:         ServerFlags{Name: "home", Host: pi.URL},
		NonInteractive: true,
		Out:            &out,
	})
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, config.Server{Name: "home", Host: pi.URL}, cfg.Servers[0])

	got := out.String()
	assert.Contains(t, got, "Connecting to "+pi.URL)
	assert.Contains(t, got, "Created "+path)
	assert.Contains(t, got, "Without an API key")
	assert.Equal(t, 1, pi.Calls(), "one summary request checks the server")
}

func TestInit_AppendsToExistingYAML(t *testing.T) {
	pi := newFakePihole(t, "key")
	path := filepath.Join(t.TempDir(), "pimon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"# my servers\nservers:\n  - name: home\n    host: http://192.168.1.2\n"), 0600))

	var out bytes.Buffer
	err := Init(InitOptions{
		Path:           path,
		Server:         ServerFlags{Name: "office", Host: pi.URL, APIKey: "key"},
		NonInteractive: true,
		Out:            &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Added 'office'")
	assert.NotContains(t, out.String(), "Without an API key")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# my servers")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Servers, 2)
	assert.Equal(t, "office", cfg.Servers[1].Name)
	assert.Equal(t, "key", cfg.Servers[1].APIKey)
}

func TestInit_RejectsDuplicateName(t *testing.T) {
	path := writeTestConfig(t, config.Server{Name: "home", Host: "http://192.168.1.2"})

	err := Init(InitOptions{
		Path:           path,
		Server:         ServerFlags{Name: "HOME", Host: "http://192.168.1.3"},
		NonInteractive: true,
		SkipCheck:      true,
		Out:            &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "already in")
}

func TestInit_NonInteractiveRequiresHost(t *testing.T) {
	err := Init(InitOptions{
		Path:           filepath.Join(t.TempDir(), "pimon.json"),
		NonInteractive: true,
		Out:            &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--host is required")
}

func TestInit_InvalidHost(t *testing.T) {
	err := Init(InitOptions{
		Path:           filepath.Join(t.TempDir(), "pimon.json"),
		Server:         ServerFlags{Name: "home", Host: "192.168.1.2"},
		NonInteractive: true,
		Out:            &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid host")
}

func TestInit_UnreachableServerIsNotSaved(t *testing.T) {
	down := newFakePihole(t, "")
	down.Close()
	path := filepath.Join(t.TempDir(), "pimon.json")

	var out bytes.Buffer
	err := Init(InitOptions{
		Path:           path,
		Server:         ServerFlags{Name: "home", Host: down.URL},
		NonInteractive: true,
		Out:            &out,
	})
	require.Error(t, err)
	assert.Contains(t, out.String(), "Connecting to "+down.URL)
	assert.NoFileExists(t, path)
}

func TestInit_SkipCheckSavesWithoutContact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pimon.json")

	require.NoError(t, Init(InitOptions{
		Path:           path,
		Server:         ServerFlags{Host: "http://pi.hole:8080"},
		NonInteractive: true,
		SkipCheck:      true,
		Out:            &bytes.Buffer{},
	}))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pi.hole", cfg.Servers[0].Name, "name defaults to the hostname")
}

func TestDefaultServerName(t *testing.T) {
	assert.Equal(t, "192.168.1.2", defaultServerName("http://192.168.1.2"))
	assert.Equal(t, "pi.hole", defaultServerName("https://pi.hole:443/admin"))
	assert.Equal(t, "pihole", defaultServerName("::bad"))
}

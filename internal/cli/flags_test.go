package cli

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pimon/internal/config"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty string returns zero", flag: "", want: 0},
		{name: "valid seconds", flag: "5s", want: 5 * time.Second},
		{name: "valid milliseconds", flag: "500ms", want: 500 * time.Millisecond},
		{name: "valid complex duration", flag: "1m30s", want: 90 * time.Second},
		{name: "bare number is rejected", flag: "5", wantErr: true},
		{name: "invalid string", flag: "fast", wantErr: true},
		{name: "negative duration", flag: "-5s", wantErr: true},
		{name: "zero", flag: "0s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInterval(tt.flag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.DefaultConfig()

	require.NoError(t, applyOverrides(cfg, "", false))
	assert.Equal(t, config.DefaultUpdateDelay, cfg.UpdateDelay)
	assert.False(t, cfg.RefreshAll)

	require.NoError(t, applyOverrides(cfg, "2500ms", true))
	assert.Equal(t, 2500, cfg.UpdateDelay)
	assert.True(t, cfg.RefreshAll)

	assert.Error(t, applyOverrides(cfg, "soon", false))
}

func TestAddServerFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	flags := &ServerFlags{}

	AddServerFlags(cmd, flags)

	for _, name := range []string{"name", "host", "api-key"} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, "%s flag should be registered", name)
		assert.Equal(t, "", f.DefValue)
	}

	require.NoError(t, cmd.Flags().Set("name", "home"))
	require.NoError(t, cmd.Flags().Set("host", "http://pi.hole"))
	require.NoError(t, cmd.Flags().Set("api-key", "abc"))
	assert.Equal(t, ServerFlags{Name: "home", Host: "http://pi.hole", APIKey: "abc"}, *flags)
}

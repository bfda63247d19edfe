package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "lengolf.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./lengolf.db", cfg.DBPath)
	assert.Equal(t, ":8090", cfg.ListenAddr)
	assert.Equal(t, "Asia/Bangkok", cfg.Timezone)
	assert.Equal(t, "10:00", cfg.VenueOpen)
	assert.Equal(t, "23:00", cfg.VenueClose)
	assert.Equal(t, 14, cfg.BackupRetention)
	assert.Equal(t, 48.0, cfg.Payroll.StandardWeeklyHours)
	assert.Equal(t, 16.0, cfg.Payroll.MaxShiftHours)
	assert.Equal(t, []string{"card", "visa", "mastercard"}, cfg.POS.CardMethods)
	assert.Equal(t, 1.0, cfg.POS.ReconcileToleranceTHB)
	assert.Empty(t, cfg.Line.ChannelToken)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lengolf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dbPath: /srv/lengolf/venue.db
payroll:
  standardWeeklyHours: 40
line:
  channelToken: secret-token
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/lengolf/venue.db", cfg.DBPath)
	assert.Equal(t, 40.0, cfg.Payroll.StandardWeeklyHours)
	assert.Equal(t, "secret-token", cfg.Line.ChannelToken)
	// Everything the file does not mention stays at its default.
	assert.Equal(t, ":8090", cfg.ListenAddr)
	assert.Equal(t, 16.0, cfg.Payroll.MaxShiftHours)
	assert.Equal(t, 3, cfg.Payroll.DedupeWindowMinutes)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lengolf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dbPath: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LENGOLF_DB", "/tmp/env.db")
	t.Setenv("LENGOLF_LINE_TOKEN", "env-token")

	path := filepath.Join(t.TempDir(), "lengolf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dbPath: ./file.db\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath, "env wins over the file")
	assert.Equal(t, "env-token", cfg.Line.ChannelToken)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lengolf.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Bangkok", cfg.Timezone)

	err = WriteDefault(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lengolf.yaml")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	cfg.VenueClose = "00:00"
	cfg.Line.DefaultRecipient = "Cgroup"
	require.NoError(t, SaveConfig(cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "00:00", got.VenueClose)
	assert.Equal(t, "Cgroup", got.Line.DefaultRecipient)
}

func TestLocation(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "lengolf.yaml"))
	require.NoError(t, err)

	loc := Location()
	require.NotNil(t, loc)

	// Bangkok is UTC+7 year round.
	at := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC).In(loc)
	_, offset := at.Zone()
	assert.Equal(t, 7*3600, offset)
}

package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	// A named config file that does not exist is a hard error
	require.Error(t, err)
	assert.Nil(t, settings)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := []byte(`
debug: true
input:
  path: /srv/photos
output:
  sqlite:
    enabled: true
    path: /tmp/test.db
`)
	require.NoError(t, os.WriteFile(configPath, content, 0o644))

	settings, err := Load(configPath)
	require.NoError(t, err)

	assert.True(t, settings.Debug)
	assert.Equal(t, "/srv/photos", settings.Input.Path)
	assert.Equal(t, "/tmp/test.db", settings.Output.SQLite.Path)
	// Defaults fill the rest
	assert.Equal(t, 640, settings.Detector.InputSize)
	assert.InDelta(t, 0.25, settings.Detector.Threshold, 1e-9)
	assert.Equal(t, "8080", settings.HTTP.Port)
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	valid := func() *Settings {
		return &Settings{
			Detector: DetectorSettings{Threshold: 0.25, IoU: 0.45},
			Output: OutputSettings{
				SQLite: SQLiteSettings{Enabled: true, Path: "test.db"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"valid sqlite", func(s *Settings) {}, false},
		{"both outputs enabled", func(s *Settings) { s.Output.MySQL.Enabled = true }, true},
		{"no output enabled", func(s *Settings) { s.Output.SQLite.Enabled = false }, true},
		{"sqlite path empty", func(s *Settings) { s.Output.SQLite.Path = "" }, true},
		{"threshold out of range", func(s *Settings) { s.Detector.Threshold = 1.5 }, true},
		{"iou out of range", func(s *Settings) { s.Detector.IoU = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			settings := valid()
			tt.mutate(settings)
			err := ValidateSettings(settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

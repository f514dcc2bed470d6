package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PDFMERGE_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, SinkFile, cfg.Sink)
	assert.Equal(t, time.Second, cfg.Cooldown)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfmerge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sink: gcs
outputBucket: merged-docs
outputPrefix: out
cooldown: 250ms
optimize: true
logLevel: debug
`), 0o644))
	t.Setenv("OUTPUT_PREFIX", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SinkGCS, cfg.Sink)
	assert.Equal(t, "merged-docs", cfg.OutputBucket)
	assert.Equal(t, "from-env", cfg.OutputPrefix)
	assert.Equal(t, 250*time.Millisecond, cfg.Cooldown)
	assert.True(t, cfg.Optimize)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_EnvironmentErrors(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"OPTIMIZE", "maybe", "OPTIMIZE must be a boolean"},
		{"MERGE_COOLDOWN", "soon", "MERGE_COOLDOWN must be a duration"},
		{"MAX_UPLOAD_BYTES", "lots", "MAX_UPLOAD_BYTES must be an integer"},
		{"SINK", "ftp", "unknown sink"},
		{"SINK", "gcs", "OUTPUT_BUCKET must be set"},
		{"VALIDATION_MODE", "lenient", "VALIDATION_MODE must be relaxed or strict"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("PDFMERGE_CONFIG", "")
			t.Setenv("OUTPUT_BUCKET", "")
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

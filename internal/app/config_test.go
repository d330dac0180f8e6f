package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "1/2/2006", cfg.ReportDateLayout)
	assert.Equal(t, 30*time.Minute, cfg.ReviewSessionTTL)
	assert.Equal(t, ExportSinkNone, cfg.ExportSink)
	assert.False(t, cfg.IsProduction())

	loc, err := cfg.ReportLocation()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REPORT_TIMEZONE", "UTC")
	t.Setenv("REPORT_REQUIRE_ROWS", "true")
	t.Setenv("EXPORT_SINK", "s3")
	t.Setenv("EXPORT_S3_BUCKET", "reports")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.True(t, cfg.ReportRequireRows)
	assert.Equal(t, "reports", cfg.ExportS3Bucket)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":   {"STORE_DRIVER": "mongo"},
		"sink":     {"EXPORT_SINK": "ftp"},
		"s3bucket": {"EXPORT_SINK": "s3"},
		"timezone": {"REPORT_TIMEZONE": "Mars/Olympus"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

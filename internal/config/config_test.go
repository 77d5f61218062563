package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8190), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.False(t, cfg.Database.Verbose)
	assert.False(t, cfg.Global.ReadOnly)
	assert.Equal(t, 500, cfg.Import.PostBatchSize)
	assert.Equal(t, 1000, cfg.Import.InteractionBatchSize)
	assert.Equal(t, 20, cfg.Import.MediaBatchSize)
	assert.Equal(t, 8, cfg.Import.MediaDecodeWidth)
	assert.Equal(t, 100, cfg.Import.ProgressInterval)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.Audit.CleanupSchedule)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 1, cfg.Tasks.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Tasks.ReleaseAfter)
	assert.Equal(t, int64(1024)<<20, cfg.UploadLimit())
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_PATH", "/tmp/archive.db")
	t.Setenv("IMPORT_POST_BATCH_SIZE", "50")
	t.Setenv("TASKS_ENABLED", "false")
	t.Setenv("TASK_RELEASE_AFTER", "5m")
	t.Setenv("UPLOAD_MAX_SIZE_MB", "0")
	t.Setenv("READ_ONLY", "true")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "/tmp/archive.db", cfg.Database.Path)
	assert.Equal(t, 50, cfg.Import.PostBatchSize)
	assert.False(t, cfg.Tasks.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Tasks.ReleaseAfter)
	assert.Equal(t, int64(0), cfg.UploadLimit())
	assert.True(t, cfg.Global.ReadOnly)
}

package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Upload
		Import
		BlobCache
		Audit
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		ReadOnly                 bool
	}
	Database struct {
		Path    string
		Verbose bool
	}
	Upload struct {
		Dir       string // Spool directory for async imports
		MaxSizeMB int64
	}
	Import struct {
		PostBatchSize        int
		InteractionBatchSize int
		MediaBatchSize       int // Media rows per store transaction
		MediaDecodeWidth     int // Media files decoded concurrently
		ProgressInterval     int // Records between progress reports
	}
	BlobCache struct {
		Dir string
	}
	Audit struct {
		RetentionDays   int    // Days to keep audit events (default: 30)
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("read_only", false)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_verbose", false)
	v.SetDefault("upload_dir", DefaultUploadDir)
	v.SetDefault("upload_max_size_mb", 1024)

	// Import pipeline defaults
	v.SetDefault("import_post_batch_size", 500)
	v.SetDefault("import_interaction_batch_size", 1000)
	v.SetDefault("import_media_batch_size", 20)
	v.SetDefault("import_media_decode_width", 8)
	v.SetDefault("import_progress_interval", 100)

	v.SetDefault("blob_cache_dir", DefaultBlobCacheDir)

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	// Task queue defaults; a single worker keeps imports serialised
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "30m")
	v.SetDefault("task_cleanup_interval", "1h")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			ReadOnly:                 v.GetBool("READ_ONLY"),
		},
		Database: Database{
			Path:    v.GetString("DATABASE_PATH"),
			Verbose: v.GetBool("DATABASE_VERBOSE"),
		},
		Upload: Upload{
			Dir:       v.GetString("UPLOAD_DIR"),
			MaxSizeMB: v.GetInt64("UPLOAD_MAX_SIZE_MB"),
		},
		Import: Import{
			PostBatchSize:        v.GetInt("IMPORT_POST_BATCH_SIZE"),
			InteractionBatchSize: v.GetInt("IMPORT_INTERACTION_BATCH_SIZE"),
			MediaBatchSize:       v.GetInt("IMPORT_MEDIA_BATCH_SIZE"),
			MediaDecodeWidth:     v.GetInt("IMPORT_MEDIA_DECODE_WIDTH"),
			ProgressInterval:     v.GetInt("IMPORT_PROGRESS_INTERVAL"),
		},
		BlobCache: BlobCache{
			Dir: v.GetString("BLOB_CACHE_DIR"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}

// UploadLimit is the maximum accepted upload size in bytes.
func (c *Config) UploadLimit() int64 {
	if c.Upload.MaxSizeMB <= 0 {
		return 0
	}
	return c.Upload.MaxSizeMB << 20
}

package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/fediarchive/internal/activitypub"
	"github.com/mrlokans/fediarchive/internal/audit"
	"github.com/mrlokans/fediarchive/internal/blobcache"
	"github.com/mrlokans/fediarchive/internal/config"
	"github.com/mrlokans/fediarchive/internal/database"
	dbaudit "github.com/mrlokans/fediarchive/internal/database/audit"
	http_controllers "github.com/mrlokans/fediarchive/internal/http"
	"github.com/mrlokans/fediarchive/internal/importers"
	"github.com/mrlokans/fediarchive/internal/scheduler"
	"github.com/mrlokans/fediarchive/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	if err := os.MkdirAll(cfg.Upload.Dir, 0755); err != nil {
		log.Fatalf("Upload directory %s is not usable: %v", cfg.Upload.Dir, err)
	}
	log.Printf("Upload directory: %s", cfg.Upload.Dir)

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -9 cannot be caught, so only SIGINT and SIGTERM are handled
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Workers stop after the listener so no new import is enqueued mid-drain
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// NewImporter builds the archive importer from the import settings.
func NewImporter(db *database.Database, cfg config.Import) *importers.Importer {
	decoder := activitypub.NewDecoder(cfg.ProgressInterval, cfg.MediaDecodeWidth)
	return importers.NewImporter(db, decoder, importers.BatchSizes{
		Posts:        cfg.PostBatchSize,
		Interactions: cfg.InteractionBatchSize,
		Media:        cfg.MediaBatchSize,
	})
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting fediarchive v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path, database.WithVerbose(cfg.Database.Verbose))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	importer := NewImporter(db, cfg.Import)
	auditor := audit.NewService(dbaudit.NewRepository(db.DB))

	// The blob cache is optional; without it binaries are served inline
	var cache *blobcache.Cache
	if cfg.BlobCache.Dir != "" {
		cache, err = blobcache.New(cfg.BlobCache.Dir)
		if err != nil {
			log.Printf("WARNING: Failed to initialize blob cache: %v", err)
			cache = nil
		} else {
			log.Printf("Blob cache initialized at %s", cfg.BlobCache.Dir)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Importer:       importer,
		Auditor:        auditor,
		UploadDir:      cfg.Upload.Dir,
		MaxUploadBytes: cfg.UploadLimit(),
		ReadOnly:       cfg.Global.ReadOnly,
		Version:        version,
	}
	if cfg.Global.ReadOnly {
		log.Printf("Read-only mode enabled - imports and deletions are refused")
	}
	if cache != nil {
		routerCfg.BlobCache = cache
		routerCfg.BlobCacheDir = cache.Dir()
	}

	var importCache tasks.CacheInvalidator
	if cache != nil {
		importCache = cache
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var queue scheduler.TaskEnqueuer
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewImportArchiveQueue(tasks.ImportArchiveDeps{
				Importer: importer,
				Auditor:  auditor,
				Cache:    importCache,
			}),
			tasks.NewCleanupAuditEventsQueue(tasks.CleanupDeps{
				Events:   auditor,
				SpoolDir: cfg.Upload.Dir,
			}),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		routerCfg.TaskQueue = taskClient
		queue = taskClient
	} else {
		log.Printf("Task queue disabled: async imports unavailable")
	}

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	auditCleanup := scheduler.NewAuditCleanupScheduler(cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays, queue, auditor)
	if err := auditCleanup.Start(schedCtx); err != nil {
		log.Printf("WARNING: Audit cleanup scheduler not started: %v", err)
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		auditCleanup.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		auditor.Wait()
		if cache != nil {
			if err := cache.Close(); err != nil {
				log.Printf("Error clearing blob cache: %v", err)
			}
		}
	}

	Serve(router, cfg, onShutdown)
}

package http

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/fediarchive/internal/blobcache"
	"github.com/mrlokans/fediarchive/internal/database/accounts"
	"github.com/mrlokans/fediarchive/internal/database/imports"
	"github.com/mrlokans/fediarchive/internal/database/posts"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	if cfg.ReadOnly {
		router.Use(NewReadOnlyMiddleware(true).Handler())
	}

	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = min(cfg.MaxUploadBytes, 64<<20)
	}

	accountStore := accounts.NewRepository(cfg.Database.DB)
	archiveStore := imports.NewRepository(cfg.Database.DB)
	postStore := posts.NewRepository(cfg.Database.DB)

	health := NewHealthController(cfg.Database, cfg.Version)
	if cfg.UploadDir != "" {
		health.AddCheck("upload_dir", dirCheck(cfg.UploadDir))
	}
	if cfg.BlobCache != nil && cfg.BlobCacheDir != "" {
		health.AddCheck("blob_cache", dirCheck(cfg.BlobCacheDir))
	}
	importController := NewImportController(cfg.Importer, ImportControllerConfig{
		Auditor:   cfg.Auditor,
		Cache:     cfg.BlobCache,
		Queue:     cfg.TaskQueue,
		UploadDir: cfg.UploadDir,
		MaxBytes:  cfg.MaxUploadBytes,
	})
	accountsController := NewAccountsController(accountStore, archiveStore, cfg.Auditor, cfg.BlobCache)
	postsController := NewPostsController(postStore)
	archiveController := NewArchiveController(archiveStore)
	mediaController := NewMediaController(accountStore, archiveStore, cfg.BlobCache)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Import endpoints
	router.POST("/api/imports", importController.Import)
	router.GET("/api/imports", archiveController.History)
	router.GET("/api/metadata", archiveController.Metadata)

	// Account endpoints
	router.GET("/api/accounts", accountsController.ListAccounts)
	router.GET("/api/account", accountsController.GetAccount)
	router.DELETE("/api/account", accountsController.DeleteAccount)

	// Timeline endpoints
	router.GET("/api/posts", postsController.ListPosts)
	router.GET("/api/post", postsController.GetPost)
	router.GET("/api/search", postsController.Search)
	router.GET("/api/calendar", postsController.Calendar)

	// Interactions and media
	router.GET("/api/likes", archiveController.Likes)
	router.GET("/api/bookmarks", archiveController.Bookmarks)
	router.GET("/api/media/list", archiveController.MediaList)
	router.GET("/api/media", mediaController.GetMedia)
	router.GET("/api/avatar", mediaController.GetAvatar)

	// Materialised display files
	if cfg.BlobCache != nil && cfg.BlobCacheDir != "" {
		router.Static(blobcache.DefaultURLPrefix, cfg.BlobCacheDir)
	}

	// Audit endpoints
	if cfg.Auditor != nil {
		auditController := NewAuditController(cfg.Auditor)
		router.GET("/api/audit", auditController.GetAuditEvents)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}

// dirCheck verifies that dir exists, creating it if needed.
func dirCheck(dir string) HealthCheck {
	return func() error {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}
}

package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/fediarchive/internal/audit"
	"github.com/mrlokans/fediarchive/internal/blobcache"
	"github.com/mrlokans/fediarchive/internal/database"
	"github.com/mrlokans/fediarchive/internal/database/accounts"
	"github.com/mrlokans/fediarchive/internal/database/imports"
	"github.com/mrlokans/fediarchive/internal/database/posts"
	"github.com/mrlokans/fediarchive/internal/http"
	"github.com/mrlokans/fediarchive/internal/importers"
	"github.com/mrlokans/fediarchive/internal/scheduler"
	"github.com/mrlokans/fediarchive/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Importer persistence
var _ importers.Store = (*database.Database)(nil)

// HTTP read models
var _ http.AccountStore = (*accounts.Repository)(nil)
var _ http.PostStore = (*posts.Repository)(nil)
var _ http.ArchiveStore = (*imports.Repository)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ http.ArchiveImporter = (*importers.Importer)(nil)
var _ tasks.ArchiveImporter = (*importers.Importer)(nil)

// =============================================================================
// Audit and Display Cache
// =============================================================================

var _ http.Auditor = (*audit.Service)(nil)
var _ tasks.ImportAuditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

var _ http.BlobCache = (*blobcache.Cache)(nil)
var _ tasks.CacheInvalidator = (*blobcache.Cache)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)

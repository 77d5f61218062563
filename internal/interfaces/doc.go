// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - importers.Store: transactional writes of one archive (internal/importers/importer.go)
//   - http.AccountStore, http.PostStore, http.ArchiveStore: read models behind
//     the JSON API (internal/http/stores.go)
//
// ## Pipeline Interfaces
//
//   - container.Container: uniform read access to zip and tar.gz archives
//     (internal/container/container.go)
//   - http.ArchiveImporter, tasks.ArchiveImporter: run one import
//
// ## Support Interfaces
//
//   - http.Auditor, tasks.ImportAuditor, tasks.AuditEventCleaner: audit trail
//   - http.BlobCache, tasks.CacheInvalidator: display cache for binaries
//   - http.TaskQueue, scheduler.TaskEnqueuer: background task queue
//
// # Adding a New Archive Format
//
//  1. Implement container.Container in internal/container/
//
//     type sevenZipContainer struct { ... }
//
//     func (c *sevenZipContainer) File(path string) (container.Entry, bool)
//     func (c *sevenZipContainer) Find(pattern *regexp.Regexp) []container.Entry
//
//  2. Map the file extension in container.DetectFormat and container.Open
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Add compile-time check in checks.go:
//
//     var _ http.SomeStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces

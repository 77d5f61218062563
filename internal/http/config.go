package http

import (
	"github.com/mrlokans/fediarchive/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Importer ArchiveImporter
	Auditor  Auditor

	// Display cache; nil serves binaries inline
	BlobCache    BlobCache
	BlobCacheDir string

	// Task queue client (optional); nil disables async imports
	TaskQueue TaskQueue
	UploadDir string

	// Upload size limit in bytes, 0 for none
	MaxUploadBytes int64

	// Refuse imports and deletions
	ReadOnly bool

	// Application info
	Version string
}

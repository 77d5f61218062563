package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the archive database
	DefaultDatabasePath = "./fediarchive.db"

	// DefaultUploadDir is where uploads are spooled for asynchronous imports
	DefaultUploadDir = "./uploads"

	// DefaultBlobCacheDir holds files materialised for display
	DefaultBlobCacheDir = "./blobcache"
)

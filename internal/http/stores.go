package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/fediarchive/internal/blobcache"
	"github.com/mrlokans/fediarchive/internal/database/audit"
	"github.com/mrlokans/fediarchive/internal/database/posts"
	"github.com/mrlokans/fediarchive/internal/entities"
	"github.com/mrlokans/fediarchive/internal/importers"
)

// This file consolidates the interfaces HTTP controllers depend on. The
// database repositories, the importer, the audit service, the blob cache and
// the task client satisfy them; tests substitute fakes.

// ArchiveImporter runs one archive import.
type ArchiveImporter interface {
	ImportArchive(ctx context.Context, data []byte, fileName string, opts importers.Options) (*importers.Result, error)
}

// Auditor records import and deletion outcomes and lists past events.
type Auditor interface {
	LogImport(accountID, fileName string, record *entities.ImportRecord, err error)
	LogDelete(accountID, username string, err error)
	GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// TaskQueue enqueues background work and reports its status.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// BlobCache turns stored binaries into servable URLs.
type BlobCache interface {
	URL(key, mime string, load blobcache.Loader) (string, error)
	Thumbnail(key string, maxDim int, load blobcache.Loader) (string, error)
	Invalidate(prefix string) error
}

// AccountStore provides account listing and cascade deletion.
type AccountStore interface {
	List() ([]entities.Account, error)
	Get(id string) (*entities.Account, error)
	Delete(id string) error
}

// PostStore provides timeline queries.
type PostStore interface {
	ListByAccount(accountID string, q posts.Query) ([]entities.Post, int64, error)
	Get(accountID, id string) (*entities.Post, error)
	Search(accountID, text string, limit int) ([]entities.Post, error)
	Replies(accountID, parentID string) ([]entities.Post, error)
	CountByDay(accountID string, from, to *time.Time) ([]posts.DayCount, error)
}

// ArchiveStore provides import history, summaries, interactions and media.
type ArchiveStore interface {
	History(accountID string) ([]entities.ImportRecord, error)
	LastImport(accountID string) (*entities.ImportRecord, error)
	Metadata(accountID string) (*entities.ArchiveMetadata, error)
	Media(accountID, id string) (*entities.Media, error)
	MediaInfo(accountID, id string) (*entities.Media, error)
	ListMedia(accountID string, limit, offset int) ([]entities.Media, int64, error)
	Likes(accountID string, limit, offset int) ([]entities.Like, int64, error)
	Bookmarks(accountID string, limit, offset int) ([]entities.Bookmark, int64, error)
}

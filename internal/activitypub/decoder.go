package activitypub

import (
	"errors"
	"regexp"

	"github.com/mrlokans/fediarchive/internal/container"
)

var (
	ErrActorNotFound  = errors.New("not a valid archive: could not find an actor document")
	ErrOutboxNotFound = errors.New("could not find an outbox in this archive")
	ErrActorMissingID = errors.New("actor document has no id")
)

const (
	ActorPath     = "actor.json"
	OutboxPath    = "outbox.json"
	LikesPath     = "likes.json"
	BookmarksPath = "bookmarks.json"
	MediaDir      = "media_attachments/"
)

// Progress stages reported by the decoders.
const (
	StageActor     = "actor"
	StagePosts     = "posts"
	StageLikes     = "likes"
	StageBookmarks = "bookmarks"
	StageMedia     = "media"
)

const (
	DefaultProgressInterval = 100
	DefaultMediaBatchWidth  = 8
)

// ProgressFunc receives coarse progress updates. It may be nil.
type ProgressFunc func(stage string, completed, total int)

func (f ProgressFunc) Report(stage string, completed, total int) {
	if f != nil {
		f(stage, completed, total)
	}
}

// Stats counts the records a decoder saw and the ones it had to drop.
type Stats struct {
	Total   int `json:"total"`
	Skipped int `json:"skipped"`
}

// Decoded is the number of records that produced an entity.
func (s Stats) Decoded() int {
	return s.Total - s.Skipped
}

// Decoder turns archive documents into entity drafts. The zero value is usable.
type Decoder struct {
	// ProgressInterval is how many records pass between progress reports.
	ProgressInterval int
	// MediaBatchWidth is how many media files are decoded concurrently.
	MediaBatchWidth int
}

func NewDecoder(progressInterval, mediaBatchWidth int) *Decoder {
	return &Decoder{
		ProgressInterval: progressInterval,
		MediaBatchWidth:  mediaBatchWidth,
	}
}

func (d *Decoder) interval() int {
	if d == nil || d.ProgressInterval <= 0 {
		return DefaultProgressInterval
	}
	return d.ProgressInterval
}

func (d *Decoder) batchWidth() int {
	if d == nil || d.MediaBatchWidth <= 0 {
		return DefaultMediaBatchWidth
	}
	return d.MediaBatchWidth
}

// locate finds a document by exact path first, then as the last segment of
// any entry path, so exports nested under a top-level folder still resolve.
func locate(c container.Container, name string) (container.Entry, bool) {
	if e, ok := c.File(name); ok && !e.IsDir() {
		return e, true
	}
	pattern := regexp.MustCompile(`(^|/)` + regexp.QuoteMeta(name) + `$`)
	for _, e := range c.Find(pattern) {
		if !e.IsDir() {
			return e, true
		}
	}
	return nil, false
}

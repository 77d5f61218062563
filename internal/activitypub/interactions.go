package activitypub

import (
	"bytes"
	"log"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/mrlokans/fediarchive/internal/container"
	"github.com/mrlokans/fediarchive/internal/entities"
)

// interaction is the shape shared by likes and bookmarks.
type interaction struct {
	ID          string
	TargetURL   string
	PublishedAt *time.Time
}

// Likes decodes likes.json. A missing or unreadable document yields no likes.
func (d *Decoder) Likes(c container.Container, progress ProgressFunc) ([]entities.Like, Stats, error) {
	items, stats := d.interactions(c, LikesPath, StageLikes, progress)
	likes := make([]entities.Like, 0, len(items))
	for _, it := range items {
		likes = append(likes, entities.Like{ID: it.ID, TargetURL: it.TargetURL, PublishedAt: it.PublishedAt})
	}
	return likes, stats, nil
}

// Bookmarks decodes bookmarks.json. A missing or unreadable document yields no bookmarks.
func (d *Decoder) Bookmarks(c container.Container, progress ProgressFunc) ([]entities.Bookmark, Stats, error) {
	items, stats := d.interactions(c, BookmarksPath, StageBookmarks, progress)
	bookmarks := make([]entities.Bookmark, 0, len(items))
	for _, it := range items {
		bookmarks = append(bookmarks, entities.Bookmark{ID: it.ID, TargetURL: it.TargetURL, PublishedAt: it.PublishedAt})
	}
	return bookmarks, stats, nil
}

func (d *Decoder) interactions(c container.Container, name, stage string, progress ProgressFunc) ([]interaction, Stats) {
	entry, ok := locate(c, name)
	if !ok {
		progress.Report(stage, 0, 0)
		return nil, Stats{}
	}
	data, err := entry.Bytes()
	if err != nil {
		log.Printf("[IMPORT] Failed to read %s, continuing without it: %v", entry.Name(), err)
		return nil, Stats{}
	}

	var doc Collection
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("[IMPORT] Failed to parse %s, continuing without it: %v", entry.Name(), err)
		return nil, Stats{}
	}

	raw := doc.Entries()
	stats := Stats{Total: len(raw)}
	items := make([]interaction, 0, len(raw))
	interval := d.interval()

	progress.Report(stage, 0, stats.Total)
	for i, r := range raw {
		if it, ok := decodeInteraction(stage, r); ok {
			items = append(items, it)
		} else {
			stats.Skipped++
		}
		if (i+1)%interval == 0 {
			progress.Report(stage, i+1, stats.Total)
		}
	}
	progress.Report(stage, stats.Total, stats.Total)
	return items, stats
}

// decodeInteraction accepts either a bare target URL or an activity object.
// An object is keyed by its full activity id. Entries without their own id get a deterministic one derived from the target,
// so re-importing the same archive produces the same keys.
func decodeInteraction(kind string, raw json.RawMessage) (interaction, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return interaction{}, false
	}

	var it interaction
	switch raw[0] {
	case '"':
		var target string
		if err := json.Unmarshal(raw, &target); err != nil {
			return interaction{}, false
		}
		it.TargetURL = strings.TrimSpace(target)
	case '{':
		var item InteractionItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return interaction{}, false
		}
		it.TargetURL = strings.TrimSpace(item.Object.IRI())
		it.ID = strings.TrimSpace(item.ID)
		if published, ok := parseTime(item.Published); ok {
			it.PublishedAt = &published
		}
	default:
		return interaction{}, false
	}

	if it.TargetURL == "" {
		return interaction{}, false
	}
	if it.ID == "" {
		it.ID = SyntheticID(kind, it.TargetURL)
	}
	return it, true
}

// SyntheticID derives a stable id for an interaction that has none.
func SyntheticID(kind, target string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(kind+":"+target)).String()
}

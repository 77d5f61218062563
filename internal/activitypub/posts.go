package activitypub

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mrlokans/fediarchive/internal/container"
	"github.com/mrlokans/fediarchive/internal/entities"
)

// Posts decodes the outbox. Create activities become original posts, Announce
// activities become boosts, and everything else is counted as skipped.
func (d *Decoder) Posts(c container.Container, progress ProgressFunc) ([]entities.Post, Stats, error) {
	entry, ok := locate(c, OutboxPath)
	if !ok {
		return nil, Stats{}, ErrOutboxNotFound
	}
	data, err := entry.Bytes()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to read outbox: %w", err)
	}

	var outbox Collection
	if err := json.Unmarshal(data, &outbox); err != nil {
		return nil, Stats{}, fmt.Errorf("failed to parse outbox: %w", err)
	}

	items := outbox.Entries()
	stats := Stats{Total: len(items)}
	posts := make([]entities.Post, 0, len(items))
	interval := d.interval()

	progress.Report(StagePosts, 0, stats.Total)
	for i, raw := range items {
		var activity Activity
		if err := json.Unmarshal(raw, &activity); err != nil {
			stats.Skipped++
		} else {
			var post entities.Post
			var ok bool
			switch activity.Type {
			case TypeCreate:
				post, ok = decodeCreate(activity)
			case TypeAnnounce:
				post, ok = decodeAnnounce(activity, i)
			}
			if ok {
				posts = append(posts, post)
			} else {
				stats.Skipped++
			}
		}

		if (i+1)%interval == 0 {
			progress.Report(StagePosts, i+1, stats.Total)
		}
	}

	linkLocalBoosts(posts)
	progress.Report(StagePosts, stats.Total, stats.Total)
	return posts, stats, nil
}

func decodeCreate(activity Activity) (entities.Post, bool) {
	raw := bytes.TrimSpace(activity.Object)
	if len(raw) == 0 || raw[0] != '{' {
		return entities.Post{}, false
	}
	var note Note
	if err := json.Unmarshal(raw, &note); err != nil {
		return entities.Post{}, false
	}

	uri := strings.TrimSpace(note.ID)
	if ExtractID(uri) == "" {
		uri = strings.TrimSpace(note.URL.Href)
	}
	id := ExtractID(uri)
	if id == "" {
		return entities.Post{}, false
	}

	published, _ := parseTime(note.Published)
	if published.IsZero() {
		published, _ = parseTime(activity.Published)
	}

	to, cc := []string(note.To), []string(note.CC)
	if len(to) == 0 && len(cc) == 0 {
		to, cc = activity.To, activity.CC
	}

	post := entities.Post{
		ID:          id,
		URI:         uri,
		Kind:        entities.PostKindOriginal,
		Content:     note.Content,
		PlainText:   PlainText(note.Content),
		PublishedAt: published,
		Timestamp:   timestampMillis(published),
		InReplyTo:   ExtractID(note.InReplyTo.IRI()),
		Sensitive:   note.Sensitive,
		Visibility:  ClassifyVisibility(to, cc),
		Summary:     note.Summary,
	}

	for _, tag := range note.Tag {
		switch tag.Type {
		case TagHashtag:
			if name := strings.TrimPrefix(tag.Name, "#"); name != "" {
				post.Hashtags = append(post.Hashtags, name)
			}
		case TagMention:
			post.Mentions = append(post.Mentions, entities.Mention{Name: tag.Name, URL: tag.Href})
		case TagEmoji:
			if code := strings.Trim(tag.Name, ":"); code != "" {
				post.Emojis = append(post.Emojis, entities.Emoji{Shortcode: code, URL: tag.Icon.Href})
			}
		}
	}

	for _, attachment := range note.Attachment {
		if mediaID := MediaID(attachment.URL.Href); mediaID != "" {
			post.MediaIDs = append(post.MediaIDs, mediaID)
		}
	}

	return post, true
}

// decodeAnnounce builds a boost. The id gets the outbox position appended since
// the same status may be boosted more than once.
func decodeAnnounce(activity Activity, index int) (entities.Post, bool) {
	base := boostBaseID(activity.ID)
	if base == "" {
		return entities.Post{}, false
	}

	var target Reference
	if len(activity.Object) > 0 {
		if err := json.Unmarshal(activity.Object, &target); err != nil {
			return entities.Post{}, false
		}
	}

	published, _ := parseTime(activity.Published)
	post := entities.Post{
		ID:             base + "-" + strconv.Itoa(index),
		URI:            strings.TrimSpace(activity.ID),
		Kind:           entities.PostKindBoost,
		PublishedAt:    published,
		Timestamp:      timestampMillis(published),
		Visibility:     ClassifyVisibility(activity.To, activity.CC),
		BoostedPostID:  target.IRI(),
		BoostedPostURL: target.URL,
	}
	if post.BoostedPostURL == "" {
		post.BoostedPostURL = target.ID
	}
	return post, true
}

// linkLocalBoosts points boosts of the archive's own posts at the local copy.
func linkLocalBoosts(posts []entities.Post) {
	local := make(map[string]string)
	for _, p := range posts {
		if p.Kind == entities.PostKindOriginal && p.URI != "" {
			local[strings.TrimRight(p.URI, "/")] = p.ID
		}
	}
	if len(local) == 0 {
		return
	}
	for i := range posts {
		p := &posts[i]
		if p.Kind != entities.PostKindBoost {
			continue
		}
		for _, target := range []string{p.BoostedPostID, p.BoostedPostURL} {
			if id, ok := local[strings.TrimRight(target, "/")]; ok && target != "" {
				p.BoostedLocalID = id
				break
			}
		}
	}
}

func timestampMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

package entities

import (
	"html"
	"strings"
	"time"
)

type PostKind string

const (
	PostKindOriginal PostKind = "original"
	PostKindBoost    PostKind = "boost"
)

type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private" // followers only
	VisibilityDirect   Visibility = "direct"
)

// Mention is a referenced actor inside a post.
type Mention struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Emoji is a custom emoji used in a post body as :shortcode:.
type Emoji struct {
	Shortcode string `json:"shortcode"`
	URL       string `json:"url"`
}

// Post is an original post, a reply or a boost. The key is (AccountID, ID), so the
// same ID may appear under different accounts.
type Post struct {
	AccountID string   `gorm:"primaryKey;size:512;index:idx_posts_account_time,priority:1" json:"account_id"`
	ID        string   `gorm:"primaryKey;size:512" json:"id"`
	URI       string   `gorm:"size:2048" json:"uri"`
	Kind      PostKind `gorm:"size:20;index" json:"kind"`

	Content   string `gorm:"type:text" json:"content"`
	PlainText string `gorm:"type:text" json:"plain_text"`

	PublishedAt time.Time `json:"published_at"`
	Timestamp   int64     `gorm:"index:idx_posts_account_time,priority:2" json:"timestamp"` // epoch milliseconds

	Hashtags []string  `gorm:"type:text;serializer:json" json:"hashtags,omitempty"`
	Mentions []Mention `gorm:"type:text;serializer:json" json:"mentions,omitempty"`
	Emojis   []Emoji   `gorm:"type:text;serializer:json" json:"emojis,omitempty"`
	MediaIDs []string  `gorm:"type:text;serializer:json" json:"media_ids,omitempty"`

	InReplyTo  string     `gorm:"size:512;index" json:"in_reply_to,omitempty"`
	Sensitive  bool       `json:"sensitive"`
	Visibility Visibility `gorm:"size:20" json:"visibility"`
	Summary    string     `gorm:"type:text" json:"summary,omitempty"` // content warning

	// Boost target as given by the archive.
	BoostedPostID  string `gorm:"size:2048" json:"boosted_post_id,omitempty"`
	BoostedPostURL string `gorm:"size:2048" json:"boosted_post_url,omitempty"`
	// Set when the boosted post is one of the account's own posts in the same archive.
	BoostedLocalID string `gorm:"size:512" json:"boosted_local_id,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) IsBoost() bool {
	return p.Kind == PostKindBoost
}

// RenderContent returns the HTML body with every :shortcode: of a known custom
// emoji replaced by an inline image.
func (p *Post) RenderContent() string {
	if len(p.Emojis) == 0 {
		return p.Content
	}
	pairs := make([]string, 0, len(p.Emojis)*2)
	for _, e := range p.Emojis {
		if e.Shortcode == "" || e.URL == "" {
			continue
		}
		code := ":" + e.Shortcode + ":"
		img := `<img class="custom-emoji" src="` + html.EscapeString(e.URL) + `" alt="` + html.EscapeString(code) + `" title="` + html.EscapeString(code) + `">`
		pairs = append(pairs, code, img)
	}
	return strings.NewReplacer(pairs...).Replace(p.Content)
}

package activitypub

import (
	"bytes"
	"time"

	json "github.com/goccy/go-json"
)

// PublicCollection is the audience IRI that marks a post as public.
const PublicCollection = "https://www.w3.org/ns/activitystreams#Public"

var publicAliases = map[string]bool{
	PublicCollection: true,
	"as:Public":      true,
	"Public":         true,
}

const (
	TypeCreate   = "Create"
	TypeAnnounce = "Announce"

	TagHashtag = "Hashtag"
	TagMention = "Mention"
	TagEmoji   = "Emoji"
)

// Reference is an activity target that may arrive as a bare IRI string or as an
// embedded object carrying id and url.
type Reference struct {
	ID  string
	URL string
}

func (r *Reference) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.ID)
	case '{':
		var obj struct {
			ID  string `json:"id"`
			URL Link   `json:"url"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		r.ID = obj.ID
		r.URL = obj.URL.Href
	case '[':
		var list []Reference
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		for _, item := range list {
			if !item.IsZero() {
				*r = item
				break
			}
		}
	}
	return nil
}

func (r Reference) IsZero() bool {
	return r.ID == "" && r.URL == ""
}

// IRI returns the id, falling back to url.
func (r Reference) IRI() string {
	if r.ID != "" {
		return r.ID
	}
	return r.URL
}

// Link is a url-like value: a string, a Link/Image object or a list of those.
type Link struct {
	Href string
}

func (l *Link) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &l.Href)
	case '{':
		var obj struct {
			Href string `json:"href"`
			URL  *Link  `json:"url"`
			ID   string `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		switch {
		case obj.Href != "":
			l.Href = obj.Href
		case obj.URL != nil && obj.URL.Href != "":
			l.Href = obj.URL.Href
		default:
			l.Href = obj.ID
		}
	case '[':
		var list []Link
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		for _, item := range list {
			if item.Href != "" {
				l.Href = item.Href
				break
			}
		}
	}
	return nil
}

// OneOrMany decodes either a single value or an array of values.
type OneOrMany[T any] []T

func (m *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}
	if data[0] == '[' {
		var list []T
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*m = list
		return nil
	}
	var single T
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*m = OneOrMany[T]{single}
	return nil
}

// Collection is an (Ordered)Collection document such as the outbox.
type Collection struct {
	Type         string            `json:"type"`
	TotalItems   int               `json:"totalItems"`
	OrderedItems []json.RawMessage `json:"orderedItems"`
	Items        []json.RawMessage `json:"items"`
}

func (c Collection) Entries() []json.RawMessage {
	if len(c.OrderedItems) > 0 {
		return c.OrderedItems
	}
	return c.Items
}

// Activity is one outbox item. Object stays raw until the type is known.
type Activity struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Published string            `json:"published"`
	To        OneOrMany[string] `json:"to"`
	CC        OneOrMany[string] `json:"cc"`
	Object    json.RawMessage   `json:"object"`
}

// Note is the object wrapped by a Create activity.
type Note struct {
	ID         string                `json:"id"`
	Type       string                `json:"type"`
	URL        Link                  `json:"url"`
	Published  string                `json:"published"`
	Content    string                `json:"content"`
	Summary    string                `json:"summary"`
	InReplyTo  Reference             `json:"inReplyTo"`
	Sensitive  bool                  `json:"sensitive"`
	To         OneOrMany[string]     `json:"to"`
	CC         OneOrMany[string]     `json:"cc"`
	Attachment OneOrMany[Attachment] `json:"attachment"`
	Tag        OneOrMany[Tag]        `json:"tag"`
}

type Attachment struct {
	Type      string `json:"type"`
	MediaType string `json:"mediaType"`
	URL       Link   `json:"url"`
	Name      string `json:"name"`
}

// Tag covers Hashtag, Mention and Emoji entries of a note's tag list.
type Tag struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Href string `json:"href"`
	Icon Link   `json:"icon"`
}

// Actor is the archive owner's profile document.
type Actor struct {
	ID                string                   `json:"id"`
	Type              string                   `json:"type"`
	PreferredUsername string                   `json:"preferredUsername"`
	Name              string                   `json:"name"`
	Summary           string                   `json:"summary"`
	Published         string                   `json:"published"`
	Icon              Link                     `json:"icon"`
	Image             Link                     `json:"image"`
	Attachment        OneOrMany[PropertyValue] `json:"attachment"`
}

type PropertyValue struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InteractionItem is a likes/bookmarks entry given as a full activity object.
type InteractionItem struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Object    Reference `json:"object"`
	Published string    `json:"published"`
}

// parseTime accepts the RFC 3339 forms found in exports.
func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

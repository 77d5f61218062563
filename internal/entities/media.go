package entities

type MediaKind string

const (
	MediaKindImage   MediaKind = "image"
	MediaKindVideo   MediaKind = "video"
	MediaKindAudio   MediaKind = "audio"
	MediaKindUnknown MediaKind = "unknown"
)

// Media is an attachment file. It is keyed by filename because posts reference
// attachments by the last segment of their URL.
type Media struct {
	AccountID string    `gorm:"primaryKey;size:512" json:"account_id"`
	ID        string    `gorm:"primaryKey;size:512" json:"id"`
	Path      string    `gorm:"size:2048" json:"path"`
	Kind      MediaKind `gorm:"size:20" json:"kind"`
	MIMEType  string    `gorm:"size:100" json:"mime_type"`
	Size      int64     `json:"size"`
	Data      []byte    `json:"-"`
	Width     *int      `json:"width,omitempty"`
	Height    *int      `json:"height,omitempty"`
}

func (Media) TableName() string {
	return "media"
}

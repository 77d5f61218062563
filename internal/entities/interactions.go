package entities

import "time"

// Like is a post the account favourited. PublishedAt is nil when the archive
// carries no date for the entry.
type Like struct {
	AccountID   string     `gorm:"primaryKey;size:512" json:"account_id"`
	ID          string     `gorm:"primaryKey;size:512" json:"id"`
	TargetURL   string     `gorm:"size:2048;index" json:"target_url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func (Like) TableName() string {
	return "likes"
}

// Bookmark is a post the account bookmarked.
type Bookmark struct {
	AccountID   string     `gorm:"primaryKey;size:512" json:"account_id"`
	ID          string     `gorm:"primaryKey;size:512" json:"id"`
	TargetURL   string     `gorm:"size:2048;index" json:"target_url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}

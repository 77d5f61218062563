package entities

import "time"

// ProfileField is a name/value pair shown on an actor profile.
type ProfileField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Identity is the minimal description of an account shown when an import
// collides with an account that already exists locally.
type Identity struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Account is the archive owner. Every other entity belongs to exactly one account,
// keyed by the owner's canonical actor URI.
type Account struct {
	ID          string         `gorm:"primaryKey;size:512" json:"id"`
	Username    string         `gorm:"index;size:255" json:"username"`
	DisplayName string         `gorm:"size:255" json:"display_name"`
	Bio         string         `gorm:"type:text" json:"bio,omitempty"`
	Avatar      []byte         `json:"-"`
	AvatarMIME  string         `gorm:"size:100" json:"avatar_mime,omitempty"`
	Header      []byte         `json:"-"`
	HeaderMIME  string         `gorm:"size:100" json:"header_mime,omitempty"`
	Fields      []ProfileField `gorm:"type:text;serializer:json" json:"fields,omitempty"`

	AccountCreatedAt time.Time `json:"account_created_at"`
	FirstImportedAt  time.Time `json:"first_imported_at"`
	LastUpdatedAt    time.Time `json:"last_updated_at"`

	PostCount     int `json:"post_count"`
	LikeCount     int `json:"like_count"`
	BookmarkCount int `json:"bookmark_count"`
}

func (Account) TableName() string {
	return "accounts"
}

// Identity returns the conflict-resolution view of the account.
func (a *Account) Identity() Identity {
	return Identity{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
	}
}

// HasAvatar reports whether an avatar image was loaded from the archive.
func (a *Account) HasAvatar() bool {
	return len(a.Avatar) > 0
}

// HasHeader reports whether a header image was loaded from the archive.
func (a *Account) HasHeader() bool {
	return len(a.Header) > 0
}

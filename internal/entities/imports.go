package entities

import "time"

type ImportStrategy string

const (
	ImportStrategyReplace ImportStrategy = "replace"
	ImportStrategyMerge   ImportStrategy = "merge"
)

// Valid reports whether s is one of the known strategies.
func (s ImportStrategy) Valid() bool {
	return s == ImportStrategyReplace || s == ImportStrategyMerge
}

// ImportRecord is the append-only history entry written once per import.
type ImportRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AccountID     string         `gorm:"index;size:512" json:"account_id"`
	ImportedAt    time.Time      `gorm:"index" json:"imported_at"`
	FileName      string         `gorm:"size:1024" json:"file_name"`
	FileSize      int64          `json:"file_size"`
	PostCount     int            `json:"post_count"`
	LikeCount     int            `json:"like_count"`
	BookmarkCount int            `json:"bookmark_count"`
	MediaCount    int            `json:"media_count"`
	SkippedCount  int            `json:"skipped_count"`
	Strategy      ImportStrategy `gorm:"size:20" json:"strategy"`
}

func (ImportRecord) TableName() string {
	return "import_records"
}

// ArchiveMetadata is the current summary for an account, recomputable from the
// other tables.
type ArchiveMetadata struct {
	AccountID     string    `gorm:"primaryKey;size:512" json:"account_id"`
	PostCount     int       `json:"post_count"`
	LikeCount     int       `json:"like_count"`
	BookmarkCount int       `json:"bookmark_count"`
	MediaCount    int       `json:"media_count"`
	UploadedAt    time.Time `json:"uploaded_at"`
	FileName      string    `gorm:"size:1024" json:"file_name"`
	FileSize      int64     `json:"file_size"`
}

func (ArchiveMetadata) TableName() string {
	return "archive_metadata"
}

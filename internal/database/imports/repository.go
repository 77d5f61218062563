package imports

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/fediarchive/internal/entities"
)

var (
	ErrMetadataNotFound = errors.New("archive metadata not found")
	ErrMediaNotFound    = errors.New("media not found")
)

const defaultLimit = 50

// mediaColumns leaves out the file contents.
var mediaColumns = []string{"account_id", "id", "path", "kind", "mime_type", "size", "width", "height"}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// History returns the account's import records, most recent first.
func (r *Repository) History(accountID string) ([]entities.ImportRecord, error) {
	var records []entities.ImportRecord
	err := r.db.Where("account_id = ?", accountID).Order("imported_at DESC, id DESC").Find(&records).Error
	return records, err
}

// LastImport returns the most recent record or nil if the account was never imported.
func (r *Repository) LastImport(accountID string) (*entities.ImportRecord, error) {
	var record entities.ImportRecord
	err := r.db.Where("account_id = ?", accountID).Order("imported_at DESC, id DESC").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository) Metadata(accountID string) (*entities.ArchiveMetadata, error) {
	var metadata entities.ArchiveMetadata
	if err := r.db.Where("account_id = ?", accountID).First(&metadata).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMetadataNotFound
		}
		return nil, err
	}
	return &metadata, nil
}

// Media returns a single attachment with its contents.
func (r *Repository) Media(accountID, id string) (*entities.Media, error) {
	var media entities.Media
	if err := r.db.Where("account_id = ? AND id = ?", accountID, id).First(&media).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	return &media, nil
}

// MediaInfo returns a single attachment description without its contents.
func (r *Repository) MediaInfo(accountID, id string) (*entities.Media, error) {
	var media entities.Media
	err := r.db.Select(mediaColumns).Where("account_id = ? AND id = ?", accountID, id).First(&media).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	return &media, nil
}

// ListMedia returns attachment descriptions without their contents.
func (r *Repository) ListMedia(accountID string, limit, offset int) ([]entities.Media, int64, error) {
	var media []entities.Media
	total, err := r.page(&entities.Media{}, mediaColumns, accountID, "id ASC", limit, offset, &media)
	return media, total, err
}

// Likes returns one page of likes, newest first; undated likes sort last.
func (r *Repository) Likes(accountID string, limit, offset int) ([]entities.Like, int64, error) {
	var likes []entities.Like
	total, err := r.page(&entities.Like{}, nil, accountID, "published_at IS NULL, published_at DESC, id ASC", limit, offset, &likes)
	return likes, total, err
}

// Bookmarks returns one page of bookmarks, newest first; undated bookmarks sort last.
func (r *Repository) Bookmarks(accountID string, limit, offset int) ([]entities.Bookmark, int64, error) {
	var bookmarks []entities.Bookmark
	total, err := r.page(&entities.Bookmark{}, nil, accountID, "published_at IS NULL, published_at DESC, id ASC", limit, offset, &bookmarks)
	return bookmarks, total, err
}

func (r *Repository) page(model any, columns []string, accountID, order string, limit, offset int, dest any) (int64, error) {
	var total int64
	if err := r.db.Model(model).Where("account_id = ?", accountID).Count(&total).Error; err != nil {
		return 0, err
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := r.db.Model(model).Where("account_id = ?", accountID)
	if len(columns) > 0 {
		query = query.Select(columns)
	}
	err := query.Order(order).Limit(limit).Offset(offset).Find(dest).Error
	return total, err
}

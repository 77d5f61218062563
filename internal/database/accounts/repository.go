package accounts

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/fediarchive/internal/entities"
)

var ErrNotFound = errors.New("account not found")

// listColumns leaves out the image blobs, which list views never need.
var listColumns = []string{
	"id", "username", "display_name", "bio", "avatar_mime", "header_mime", "fields",
	"account_created_at", "first_imported_at", "last_updated_at",
	"post_count", "like_count", "bookmark_count",
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every account ordered by username, without image data.
func (r *Repository) List() ([]entities.Account, error) {
	var accounts []entities.Account
	err := r.db.Select(listColumns).Order("username ASC, id ASC").Find(&accounts).Error
	return accounts, err
}

// Get returns the full account, including avatar and header bytes.
func (r *Repository) Get(id string) (*entities.Account, error) {
	var account entities.Account
	if err := r.db.Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Delete removes the account with its content, import history and metadata.
func (r *Repository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&entities.Account{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete account: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := DeleteContent(tx, id); err != nil {
			return err
		}
		for _, model := range []any{&entities.ImportRecord{}, &entities.ArchiveMetadata{}} {
			if err := tx.Where("account_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete import history: %w", err)
			}
		}
		return nil
	})
}

// DeleteContent removes the posts, likes, bookmarks and media owned by accountID
// using tx. Callers provide the transaction.
func DeleteContent(tx *gorm.DB, accountID string) error {
	for _, model := range []any{&entities.Post{}, &entities.Like{}, &entities.Bookmark{}, &entities.Media{}} {
		if err := tx.Where("account_id = ?", accountID).Delete(model).Error; err != nil {
			return fmt.Errorf("failed to delete account content: %w", err)
		}
	}
	return nil
}

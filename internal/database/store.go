package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/fediarchive/internal/database/accounts"
	"github.com/mrlokans/fediarchive/internal/entities"
)

// FindAccount returns ErrAccountNotFound when the account does not exist.
func (d *Database) FindAccount(id string) (*entities.Account, error) {
	var account entities.Account
	if err := d.DB.Where("id = ?", id).First(&account).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &account, nil
}

// SaveAccount inserts the account or overwrites every column of the existing row.
func (d *Database) SaveAccount(account *entities.Account) error {
	err := d.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(account).Error
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// DeleteAccountContent removes the account's posts, likes, bookmarks and media in
// one transaction. The account row and its import history stay.
func (d *Database) DeleteAccountContent(accountID string) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		return accounts.DeleteContent(tx, accountID)
	})
}

// DeleteAccount removes the account and everything it owns in one transaction.
func (d *Database) DeleteAccount(accountID string) error {
	return accounts.NewRepository(d.DB).Delete(accountID)
}

func (d *Database) UpsertPosts(posts []entities.Post, batchSize int) error {
	return upsertInBatches(d.DB, posts, batchSize)
}

func (d *Database) UpsertLikes(likes []entities.Like, batchSize int) error {
	return upsertInBatches(d.DB, likes, batchSize)
}

func (d *Database) UpsertBookmarks(bookmarks []entities.Bookmark, batchSize int) error {
	return upsertInBatches(d.DB, bookmarks, batchSize)
}

func (d *Database) UpsertMedia(media []entities.Media, batchSize int) error {
	return upsertInBatches(d.DB, media, batchSize)
}

// upsertInBatches writes rows keyed by primary key, replacing existing rows.
// Each batch commits on its own, so a failure leaves earlier batches in place.
func upsertInBatches[T any](db *gorm.DB, rows []T, batchSize int) error {
	if batchSize <= 0 {
		batchSize = len(rows)
	}
	for start := 0; start < len(rows); start += batchSize {
		batch := rows[start:min(start+batchSize, len(rows))]
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&batch).Error
		})
		if err != nil {
			return fmt.Errorf("failed to upsert rows %d-%d: %w", start, start+len(batch), err)
		}
	}
	return nil
}

func (d *Database) CountPosts(accountID string) (int, error) {
	return d.count(&entities.Post{}, accountID)
}

func (d *Database) CountLikes(accountID string) (int, error) {
	return d.count(&entities.Like{}, accountID)
}

func (d *Database) CountBookmarks(accountID string) (int, error) {
	return d.count(&entities.Bookmark{}, accountID)
}

func (d *Database) CountMedia(accountID string) (int, error) {
	return d.count(&entities.Media{}, accountID)
}

func (d *Database) count(model any, accountID string) (int, error) {
	var n int64
	if err := d.DB.Model(model).Where("account_id = ?", accountID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return int(n), nil
}

// RecordImport appends the history entry and replaces the account's metadata row.
func (d *Database) RecordImport(record *entities.ImportRecord, metadata *entities.ArchiveMetadata) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to record import: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(metadata).Error; err != nil {
			return fmt.Errorf("failed to save archive metadata: %w", err)
		}
		return nil
	})
}

package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/fediarchive/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Account{},
		&entities.Post{},
		&entities.Like{},
		&entities.Bookmark{},
		&entities.Media{},
		&entities.ImportRecord{},
		&entities.ArchiveMetadata{},
	)
	require.NoError(t, err)

	return db
}

func seedAccount(t *testing.T, db *gorm.DB, id, username string) {
	t.Helper()
	require.NoError(t, db.Create(&entities.Account{
		ID:          id,
		Username:    username,
		DisplayName: username,
		Avatar:      []byte{1, 2, 3},
		AvatarMIME:  "image/png",
		Fields:      []entities.ProfileField{{Name: "site", Value: "example.org"}},
	}).Error)
	require.NoError(t, db.Create(&entities.Post{AccountID: id, ID: "1", Content: "x"}).Error)
	require.NoError(t, db.Create(&entities.Like{AccountID: id, ID: "l1", TargetURL: "https://y.example/1"}).Error)
	require.NoError(t, db.Create(&entities.Bookmark{AccountID: id, ID: "b1", TargetURL: "https://y.example/2"}).Error)
	require.NoError(t, db.Create(&entities.Media{AccountID: id, ID: "a.png", Data: []byte("png")}).Error)
	require.NoError(t, db.Create(&entities.ImportRecord{AccountID: id, ImportedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&entities.ArchiveMetadata{AccountID: id}).Error)
}

func countFor(t *testing.T, db *gorm.DB, model any, accountID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where("account_id = ?", accountID).Count(&n).Error)
	return n
}

func TestRepository_ListAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	seedAccount(t, db, "https://x.example/users/zed", "zed")
	seedAccount(t, db, "https://x.example/users/bob", "bob")

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bob", list[0].Username)
	assert.Empty(t, list[0].Avatar)
	assert.Equal(t, "image/png", list[0].AvatarMIME)
	assert.Len(t, list[0].Fields, 1)

	account, err := repo.Get("https://x.example/users/bob")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, account.Avatar)

	_, err = repo.Get("https://x.example/users/nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	bob := "https://x.example/users/bob"
	al := "https://y.example/users/al"
	seedAccount(t, db, bob, "bob")
	seedAccount(t, db, al, "al")

	require.NoError(t, repo.Delete(bob))

	_, err := repo.Get(bob)
	assert.ErrorIs(t, err, ErrNotFound)
	for _, model := range []any{
		&entities.Post{}, &entities.Like{}, &entities.Bookmark{}, &entities.Media{},
		&entities.ImportRecord{}, &entities.ArchiveMetadata{},
	} {
		assert.Zero(t, countFor(t, db, model, bob))
		assert.Equal(t, int64(1), countFor(t, db, model, al))
	}

	assert.ErrorIs(t, repo.Delete(bob), ErrNotFound)
}

func TestDeleteContent_KeepsAccount(t *testing.T) {
	db := setupTestDB(t)
	bob := "https://x.example/users/bob"
	seedAccount(t, db, bob, "bob")

	require.NoError(t, DeleteContent(db, bob))

	_, err := NewRepository(db).Get(bob)
	require.NoError(t, err)
	assert.Zero(t, countFor(t, db, &entities.Post{}, bob))
	assert.Zero(t, countFor(t, db, &entities.Media{}, bob))
	assert.Equal(t, int64(1), countFor(t, db, &entities.ImportRecord{}, bob))
}

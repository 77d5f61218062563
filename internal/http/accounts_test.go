package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/fediarchive/internal/blobcache"
	"github.com/mrlokans/fediarchive/internal/database/accounts"
	"github.com/mrlokans/fediarchive/internal/database/imports"
	"github.com/mrlokans/fediarchive/internal/database/posts"
)

func setupAccountsRouter(t *testing.T) (*gin.Engine, *stubAuditor, *blobcache.Cache) {
	t.Helper()
	db := setupTestDB(t)
	seedArchive(t, db)

	cache, err := blobcache.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	auditor := &stubAuditor{}
	controller := NewAccountsController(accounts.NewRepository(db.DB), imports.NewRepository(db.DB), auditor, cache)
	postsController := NewPostsController(posts.NewRepository(db.DB))

	router := gin.New()
	router.GET("/api/accounts", controller.ListAccounts)
	router.GET("/api/account", controller.GetAccount)
	router.DELETE("/api/account", controller.DeleteAccount)
	router.GET("/api/posts", postsController.ListPosts)
	return router, auditor, cache
}

func TestAccountsController_ListAccounts(t *testing.T) {
	router, _, _ := setupAccountsRouter(t)

	w := serve(router, http.MethodGet, "/api/accounts")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Accounts []AccountView `json:"accounts"`
	}
	decodeJSON(t, w, &response)

	require.Len(t, response.Accounts, 1)
	account := response.Accounts[0]
	assert.Equal(t, testAccountID, account.ID)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, 3, account.PostCount)
	assert.Equal(t, "/api/avatar?account="+url.QueryEscape(testAccountID)+"&kind=avatar", account.AvatarURL)
	assert.Empty(t, account.HeaderURL)
	assert.NotContains(t, w.Body.String(), `"avatar":`)
}

func TestAccountsController_GetAccount(t *testing.T) {
	router, _, _ := setupAccountsRouter(t)

	t.Run("returns the summary and last import", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/account?id="+url.QueryEscape(testAccountID))
		require.Equal(t, http.StatusOK, w.Code)

		var detail AccountDetail
		decodeJSON(t, w, &detail)

		assert.Equal(t, "Alice", detail.DisplayName)
		require.NotNil(t, detail.Metadata)
		assert.Equal(t, 2, detail.Metadata.MediaCount)
		require.NotNil(t, detail.LastImport)
		assert.Equal(t, "export.zip", detail.LastImport.FileName)
	})

	t.Run("unknown account", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/account?id=https%3A%2F%2Fnowhere.example%2Fusers%2Fx")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing id", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/account")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "id is required")
	})
}

func TestAccountsController_DeleteAccount(t *testing.T) {
	router, auditor, cache := setupAccountsRouter(t)

	_, err := cache.URL(testAccountID+"/avatar", "image/png", func() ([]byte, error) { return []byte("png"), nil })
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	w := serve(router, http.MethodDelete, "/api/account?id="+url.QueryEscape(testAccountID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "account deleted")

	require.Len(t, auditor.deletes, 1)
	assert.Equal(t, testAccountID, auditor.deletes[0].accountID)
	assert.Equal(t, "alice", auditor.deletes[0].username)
	assert.NoError(t, auditor.deletes[0].err)
	assert.Zero(t, cache.Len())

	w = serve(router, http.MethodGet, "/api/account?id="+url.QueryEscape(testAccountID))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodGet, accountQuery("/api/posts"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)

	w = serve(router, http.MethodDelete, "/api/account?id="+url.QueryEscape(testAccountID))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, auditor.deletes, 1)
}

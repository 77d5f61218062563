package http

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/fediarchive/internal/database/accounts"
	"github.com/mrlokans/fediarchive/internal/database/imports"
	"github.com/mrlokans/fediarchive/internal/entities"
)

type AccountsController struct {
	accounts AccountStore
	archive  ArchiveStore
	auditor  Auditor
	cache    BlobCache
}

func NewAccountsController(accounts AccountStore, archive ArchiveStore, auditor Auditor, cache BlobCache) *AccountsController {
	return &AccountsController{
		accounts: accounts,
		archive:  archive,
		auditor:  auditor,
		cache:    cache,
	}
}

// AccountView is an account with links to its images.
type AccountView struct {
	entities.Account
	AvatarURL string `json:"avatar_url,omitempty"`
	HeaderURL string `json:"header_url,omitempty"`
}

// AccountDetail adds the archive summary and the latest import.
type AccountDetail struct {
	AccountView
	Metadata   *entities.ArchiveMetadata `json:"metadata,omitempty"`
	LastImport *entities.ImportRecord    `json:"last_import,omitempty"`
}

func newAccountView(account entities.Account) AccountView {
	view := AccountView{Account: account}
	if account.AvatarMIME != "" {
		view.AvatarURL = imageURL(account.ID, imageKindAvatar)
	}
	if account.HeaderMIME != "" {
		view.HeaderURL = imageURL(account.ID, imageKindHeader)
	}
	return view
}

func imageURL(accountID, kind string) string {
	return "/api/avatar?account=" + url.QueryEscape(accountID) + "&kind=" + kind
}

// ListAccounts handles GET /api/accounts
func (ac *AccountsController) ListAccounts(c *gin.Context) {
	list, err := ac.accounts.List()
	if err != nil {
		respondInternalError(c, err, "list accounts")
		return
	}

	views := make([]AccountView, 0, len(list))
	for _, account := range list {
		views = append(views, newAccountView(account))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": views})
}

// GetAccount handles GET /api/account?id=
func (ac *AccountsController) GetAccount(c *gin.Context) {
	id, ok := requireQuery(c, "id")
	if !ok {
		return
	}

	account, err := ac.accounts.Get(id)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			respondNotFound(c, "account")
			return
		}
		respondInternalError(c, err, "get account")
		return
	}

	detail := AccountDetail{AccountView: newAccountView(*account)}

	metadata, err := ac.archive.Metadata(id)
	switch {
	case err == nil:
		detail.Metadata = metadata
	case !errors.Is(err, imports.ErrMetadataNotFound):
		respondInternalError(c, err, "get archive metadata")
		return
	}

	detail.LastImport, err = ac.archive.LastImport(id)
	if err != nil {
		respondInternalError(c, err, "get last import")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// DeleteAccount handles DELETE /api/account?id=
// Removes the account and everything it owns.
func (ac *AccountsController) DeleteAccount(c *gin.Context) {
	id, ok := requireQuery(c, "id")
	if !ok {
		return
	}

	username := id
	if account, err := ac.accounts.Get(id); err == nil {
		username = account.Username
	}

	err := ac.accounts.Delete(id)
	if errors.Is(err, accounts.ErrNotFound) {
		respondNotFound(c, "account")
		return
	}
	if ac.auditor != nil {
		ac.auditor.LogDelete(id, username, err)
	}
	if err != nil {
		respondInternalError(c, err, "delete account")
		return
	}

	if ac.cache != nil {
		if err := ac.cache.Invalidate(id + "/"); err != nil {
			log.Printf("Failed to invalidate blob cache for %s: %v", id, err)
		}
	}

	respondSuccess(c, "account deleted")
}

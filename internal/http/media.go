package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/fediarchive/internal/blobcache"
	"github.com/mrlokans/fediarchive/internal/database/accounts"
	"github.com/mrlokans/fediarchive/internal/database/imports"
	"github.com/mrlokans/fediarchive/internal/entities"
)

const (
	imageKindAvatar = "avatar"
	imageKindHeader = "header"

	maxThumbnailSize = 2048
)

// MediaController serves stored binaries. With a blob cache the client is
// redirected to a materialised file; without one the bytes are written inline.
type MediaController struct {
	accounts AccountStore
	archive  ArchiveStore
	cache    BlobCache
}

func NewMediaController(accounts AccountStore, archive ArchiveStore, cache BlobCache) *MediaController {
	return &MediaController{
		accounts: accounts,
		archive:  archive,
		cache:    cache,
	}
}

// GetMedia handles GET /api/media?account=&id=&size=
func (mc *MediaController) GetMedia(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}
	id, ok := requireQuery(c, "id")
	if !ok {
		return
	}
	size, ok := parseIntQuery(c, "size", 0)
	if !ok {
		return
	}

	media, err := mc.archive.MediaInfo(accountID, id)
	if err != nil {
		if errors.Is(err, imports.ErrMediaNotFound) {
			respondNotFound(c, "media")
			return
		}
		respondInternalError(c, err, "get media")
		return
	}

	if media.Kind != entities.MediaKindImage {
		size = 0
	}
	// Contents are read only when the cache has to materialise the file.
	load := func() ([]byte, error) {
		full, err := mc.archive.Media(accountID, id)
		if err != nil {
			return nil, err
		}
		return full.Data, nil
	}
	mc.serve(c, accountID+"/media/"+media.ID, media.MIMEType, load, size)
}

// GetAvatar handles GET /api/avatar?account=&kind=avatar|header&size=
func (mc *MediaController) GetAvatar(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}
	kind := c.DefaultQuery("kind", imageKindAvatar)
	if kind != imageKindAvatar && kind != imageKindHeader {
		respondBadRequest(c, "invalid kind, expected avatar or header")
		return
	}
	size, ok := parseIntQuery(c, "size", 0)
	if !ok {
		return
	}

	account, err := mc.accounts.Get(accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			respondNotFound(c, "account")
			return
		}
		respondInternalError(c, err, "get account")
		return
	}

	data, mime := account.Avatar, account.AvatarMIME
	if kind == imageKindHeader {
		data, mime = account.Header, account.HeaderMIME
	}
	if len(data) == 0 {
		respondNotFound(c, kind)
		return
	}

	mc.serve(c, accountID+"/"+kind, mime, func() ([]byte, error) { return data, nil }, size)
}

func (mc *MediaController) serve(c *gin.Context, key, mime string, load blobcache.Loader, size int) {
	if mc.cache == nil {
		mc.inline(c, mime, load)
		return
	}

	var (
		target string
		err    error
	)
	if size > 0 {
		target, err = mc.cache.Thumbnail(key, min(size, maxThumbnailSize), load)
	} else {
		target, err = mc.cache.URL(key, mime, load)
	}
	if err != nil {
		// Undecodable images fall back to the original bytes.
		if size > 0 {
			mc.inline(c, mime, load)
			return
		}
		respondInternalError(c, err, "materialise blob")
		return
	}

	c.Redirect(http.StatusFound, target)
}

func (mc *MediaController) inline(c *gin.Context, mime string, load blobcache.Loader) {
	data, err := load()
	if err != nil {
		respondInternalError(c, err, "load blob")
		return
	}
	c.Data(http.StatusOK, mime, data)
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/fediarchive/internal/database/imports"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// ArchiveController serves import history, archive summaries and interactions.
type ArchiveController struct {
	archive ArchiveStore
}

func NewArchiveController(archive ArchiveStore) *ArchiveController {
	return &ArchiveController{archive: archive}
}

// History handles GET /api/imports?account=
func (ac *ArchiveController) History(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}

	records, err := ac.archive.History(accountID)
	if err != nil {
		respondInternalError(c, err, "import history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"imports": records})
}

// Metadata handles GET /api/metadata?account=
func (ac *ArchiveController) Metadata(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}

	metadata, err := ac.archive.Metadata(accountID)
	if err != nil {
		if errors.Is(err, imports.ErrMetadataNotFound) {
			respondNotFound(c, "archive metadata")
			return
		}
		respondInternalError(c, err, "archive metadata")
		return
	}
	c.JSON(http.StatusOK, metadata)
}

// Likes handles GET /api/likes?account=&limit=&offset=
func (ac *ArchiveController) Likes(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}
	limit, offset, ok := parsePage(c, defaultPageSize, maxPageSize)
	if !ok {
		return
	}

	likes, total, err := ac.archive.Likes(accountID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list likes")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(likes, total, limit, offset))
}

// Bookmarks handles GET /api/bookmarks?account=&limit=&offset=
func (ac *ArchiveController) Bookmarks(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}
	limit, offset, ok := parsePage(c, defaultPageSize, maxPageSize)
	if !ok {
		return
	}

	bookmarks, total, err := ac.archive.Bookmarks(accountID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list bookmarks")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(bookmarks, total, limit, offset))
}

// MediaList handles GET /api/media/list?account=&limit=&offset=
func (ac *ArchiveController) MediaList(c *gin.Context) {
	accountID, ok := requireQuery(c, "account")
	if !ok {
		return
	}
	limit, offset, ok := parsePage(c, defaultPageSize, maxPageSize)
	if !ok {
		return
	}

	media, total, err := ac.archive.ListMedia(accountID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list media")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(media, total, limit, offset))
}

package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/fediarchive/internal/activitypub"
	"github.com/mrlokans/fediarchive/internal/container"
	"github.com/mrlokans/fediarchive/internal/entities"
	"github.com/mrlokans/fediarchive/internal/importers"
	"github.com/mrlokans/fediarchive/internal/tasks"
	"github.com/mrlokans/fediarchive/internal/utils"
)

// CodeStrategyRequired marks a 409 answer to an import whose account already exists.
const CodeStrategyRequired = "strategy_required"

type ImportController struct {
	importer  ArchiveImporter
	auditor   Auditor
	cache     BlobCache
	queue     TaskQueue
	uploadDir string
	maxBytes  int64
}

// ImportControllerConfig holds the optional collaborators of ImportController.
// A nil Queue disables async imports; MaxBytes 0 means no upload limit.
type ImportControllerConfig struct {
	Auditor   Auditor
	Cache     BlobCache
	Queue     TaskQueue
	UploadDir string
	MaxBytes  int64
}

func NewImportController(importer ArchiveImporter, cfg ImportControllerConfig) *ImportController {
	return &ImportController{
		importer:  importer,
		auditor:   cfg.Auditor,
		cache:     cfg.Cache,
		queue:     cfg.Queue,
		uploadDir: cfg.UploadDir,
		maxBytes:  cfg.MaxBytes,
	}
}

// Import handles POST /api/imports
// Multipart form: archive (file), strategy (replace|merge, optional), async (bool, optional).
func (ic *ImportController) Import(c *gin.Context) {
	if ic.maxBytes > 0 {
		if c.Request.ContentLength > ic.maxBytes {
			respondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("archive exceeds the %d byte upload limit", ic.maxBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ic.maxBytes)
	}

	fileHeader, err := c.FormFile("archive")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("archive exceeds the %d byte upload limit", ic.maxBytes))
			return
		}
		respondBadRequest(c, "archive file is required")
		return
	}

	strategy := entities.ImportStrategy(strings.ToLower(strings.TrimSpace(c.PostForm("strategy"))))
	if strategy != "" && !strategy.Valid() {
		respondBadRequest(c, importers.ErrInvalidStrategy.Error())
		return
	}

	fileName := utils.SanitizeFilename(fileHeader.Filename)
	format, err := container.DetectFormat(fileName)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if async, _ := strconv.ParseBool(c.PostForm("async")); async {
		ic.enqueue(c, fileHeader, fileName, format, strategy)
		return
	}

	data, err := readUpload(fileHeader)
	if err != nil {
		respondInternalError(c, err, "read upload")
		return
	}

	resolver := importers.RequireStrategy()
	if strategy != "" {
		resolver = importers.FixedStrategy(strategy)
	}

	result, err := ic.importer.ImportArchive(c.Request.Context(), data, fileName, importers.Options{
		ResolveConflict: resolver,
	})
	if err != nil {
		var conflict *importers.ConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   importers.ErrStrategyRequired.Error(),
				Code:    CodeStrategyRequired,
				Details: conflict.Existing,
			})
			return
		}

		if ic.auditor != nil {
			ic.auditor.LogImport("", fileName, nil, err)
		}
		if isArchiveError(err) {
			respondError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondInternalError(c, err, "import archive")
		return
	}

	if ic.cache != nil {
		if err := ic.cache.Invalidate(result.Account.ID + "/"); err != nil {
			log.Printf("[IMPORT] Failed to invalidate blob cache for %s: %v", result.Account.ID, err)
		}
	}
	if ic.auditor != nil {
		ic.auditor.LogImport(result.Account.ID, fileName, &result.Record, nil)
	}

	c.JSON(http.StatusOK, result)
}

// enqueue spools the upload and hands it to the background importer.
func (ic *ImportController) enqueue(c *gin.Context, fileHeader *multipart.FileHeader, fileName string, format container.Format, strategy entities.ImportStrategy) {
	if ic.queue == nil {
		respondError(c, http.StatusServiceUnavailable, "background imports are disabled")
		return
	}
	if strategy == "" {
		strategy = entities.ImportStrategyReplace
	}

	if err := os.MkdirAll(ic.uploadDir, 0755); err != nil {
		respondInternalError(c, err, "create upload dir")
		return
	}
	path := filepath.Join(ic.uploadDir, uuid.NewString()+"."+string(format))
	if err := c.SaveUploadedFile(fileHeader, path); err != nil {
		respondInternalError(c, err, "spool upload")
		return
	}

	taskID, err := ic.queue.Enqueue(tasks.ImportArchiveTask{
		Path:     path,
		FileName: fileName,
		Strategy: strategy,
	})
	if err != nil {
		os.Remove(path)
		respondInternalError(c, err, "enqueue import")
		return
	}

	respondAccepted(c, "import queued", gin.H{
		"task_id":  taskID,
		"strategy": strategy,
		"status":   "/api/tasks/" + taskID,
	})
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}

// isArchiveError reports whether err is caused by the uploaded file rather than the server.
func isArchiveError(err error) bool {
	for _, target := range []error{
		container.ErrUnsupportedFormat,
		container.ErrInvalidArchive,
		activitypub.ErrActorNotFound,
		activitypub.ErrActorMissingID,
		activitypub.ErrOutboxNotFound,
		importers.ErrInvalidStrategy,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

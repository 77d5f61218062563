package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/fediarchive/internal/entities"
	"github.com/mrlokans/fediarchive/internal/importers"
)

// ArchiveImporter runs one archive import.
type ArchiveImporter interface {
	ImportArchive(ctx context.Context, data []byte, fileName string, opts importers.Options) (*importers.Result, error)
}

// ImportAuditor records the outcome of an import.
type ImportAuditor interface {
	LogImport(accountID, fileName string, record *entities.ImportRecord, err error)
}

// CacheInvalidator drops derived display files for an account.
type CacheInvalidator interface {
	Invalidate(prefix string) error
}

// ImportArchiveTask imports an archive spooled to disk by the upload handler.
type ImportArchiveTask struct {
	Path     string                  `json:"path"`
	FileName string                  `json:"file_name"`
	Strategy entities.ImportStrategy `json:"strategy"`
}

// Config returns the queue configuration for archive imports. Imports are
// never retried: the spool file is removed after the first attempt.
func (t ImportArchiveTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_archive",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportArchiveDeps are the collaborators of the import processor. Auditor and
// Cache may be nil.
type ImportArchiveDeps struct {
	Importer ArchiveImporter
	Auditor  ImportAuditor
	Cache    CacheInvalidator
}

// ImportArchiveProcessor creates a processor function for ImportArchiveTask.
func ImportArchiveProcessor(deps ImportArchiveDeps) backlite.QueueProcessor[ImportArchiveTask] {
	return func(ctx context.Context, task ImportArchiveTask) error {
		if deps.Importer == nil {
			return fmt.Errorf("archive importer not configured")
		}
		defer func() {
			if err := os.Remove(task.Path); err != nil && !os.IsNotExist(err) {
				log.Printf("[TASK] Failed to remove spooled archive %s: %v", task.Path, err)
			}
		}()

		strategy := task.Strategy
		if strategy == "" {
			strategy = entities.ImportStrategyReplace
		}
		if !strategy.Valid() {
			return fmt.Errorf("import %s: %w: %q", task.FileName, importers.ErrInvalidStrategy, strategy)
		}

		data, err := os.ReadFile(task.Path)
		if err != nil {
			err = fmt.Errorf("read spooled archive: %w", err)
			if deps.Auditor != nil {
				deps.Auditor.LogImport("", task.FileName, nil, err)
			}
			return err
		}

		result, err := deps.Importer.ImportArchive(ctx, data, task.FileName, importers.Options{
			ResolveConflict: importers.FixedStrategy(strategy),
			Progress: func(stage string, completed, total int) {
				if total > 1 && completed == total {
					log.Printf("[TASK] Import %s: %s %d/%d", task.FileName, stage, completed, total)
				}
			},
		})
		if err != nil {
			if deps.Auditor != nil {
				deps.Auditor.LogImport("", task.FileName, nil, err)
			}
			return fmt.Errorf("import %s: %w", task.FileName, err)
		}

		if deps.Cache != nil {
			if err := deps.Cache.Invalidate(result.Account.ID + "/"); err != nil {
				log.Printf("[TASK] Failed to invalidate blob cache for %s: %v", result.Account.ID, err)
			}
		}
		if deps.Auditor != nil {
			deps.Auditor.LogImport(result.Account.ID, task.FileName, &result.Record, nil)
		}

		log.Printf("[TASK] Imported %s for %s (%s): %d posts, %d likes, %d bookmarks, %d media",
			task.FileName, result.Account.Username, result.Strategy,
			result.Metadata.PostCount, result.Metadata.LikeCount, result.Metadata.BookmarkCount, result.Metadata.MediaCount)
		return nil
	}
}

// NewImportArchiveQueue creates a backlite queue for archive imports.
func NewImportArchiveQueue(deps ImportArchiveDeps) backlite.Queue {
	return backlite.NewQueue(ImportArchiveProcessor(deps))
}

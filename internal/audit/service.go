package audit

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mrlokans/fediarchive/internal/database/audit"
	"github.com/mrlokans/fediarchive/internal/entities"
)

const (
	ActionArchiveImport = "archive_import"
	ActionAccountDelete = "account_delete"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("[AUDIT] Failed to log %s event: %v", event.Action, err)
		}
	}()
}

// Wait blocks until every LogAsync call has finished writing.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogImport records an archive import. record is nil when the import failed
// before anything was stored.
func (s *Service) LogImport(accountID, fileName string, record *entities.ImportRecord, err error) {
	event := &entities.AuditEvent{
		AccountID: accountID,
		EventType: entities.AuditEventImport,
		Action:    ActionArchiveImport,
		Status:    entities.AuditStatusSuccess,
	}

	if record != nil {
		event.Description = truncate(fmt.Sprintf("Imported %d posts, %d likes, %d bookmarks and %d media from %s (%s)",
			record.PostCount, record.LikeCount, record.BookmarkCount, record.MediaCount, fileName, record.Strategy), 500)

		metadata := map[string]any{
			"file_name":        fileName,
			"file_size":        record.FileSize,
			"strategy":         record.Strategy,
			"posts_count":      record.PostCount,
			"likes_count":      record.LikeCount,
			"bookmarks_count":  record.BookmarkCount,
			"media_count":      record.MediaCount,
			"skipped_count":    record.SkippedCount,
			"import_record_id": record.ID,
		}
		if mdBytes, e := json.Marshal(metadata); e == nil {
			event.Metadata = string(mdBytes)
		}
	} else {
		event.Description = truncate("Import of "+fileName+" failed", 500)
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogDelete records an account deletion.
func (s *Service) LogDelete(accountID, username string, err error) {
	event := &entities.AuditEvent{
		AccountID:   accountID,
		EventType:   entities.AuditEventDelete,
		Action:      ActionAccountDelete,
		Description: truncate("Deleted account: "+username, 500),
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate caps s at maxLen bytes, marking the cut with "..." and never
// leaving half a rune behind.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return strings.ToValidUTF8(s[:maxLen-3], "") + "..."
}

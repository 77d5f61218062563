package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"
)

const (
	// DefaultAuditRetentionDays applies when a task carries no retention.
	DefaultAuditRetentionDays = 30

	// StaleSpoolAge is how long an upload may wait in the spool directory
	// before a cleanup pass treats it as abandoned.
	StaleSpoolAge = 24 * time.Hour
)

// AuditEventCleaner deletes audit events past a retention window.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupDeps are the stores a cleanup pass prunes.
type CleanupDeps struct {
	Events AuditEventCleaner
	// SpoolDir holds uploads waiting for an import_archive task. Empty skips the sweep.
	SpoolDir string
}

// CleanupAuditEventsTask prunes the audit log and abandoned import spools.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Retention is the age past which audit events are removed.
func (t CleanupAuditEventsTask) Retention() time.Duration {
	days := t.RetentionDays
	if days <= 0 {
		days = DefaultAuditRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 2,
		Backoff:     10 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// CleanupAuditEventsProcessor deletes expired audit events, then sweeps the spool
// directory. A failed sweep is logged and does not fail the task.
func CleanupAuditEventsProcessor(deps CleanupDeps) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if deps.Events == nil {
			return errors.New("audit cleanup: no event store configured")
		}

		retention := task.Retention()
		deleted, err := deps.Events.DeleteOldEvents(retention)
		if err != nil {
			return fmt.Errorf("failed to delete audit events: %w", err)
		}

		swept, err := sweepSpools(deps.SpoolDir, time.Now().Add(-StaleSpoolAge))
		if err != nil {
			log.Printf("[TASK] Spool sweep of %s incomplete: %v", deps.SpoolDir, err)
		}

		log.Printf("[TASK] Cleanup removed %d audit events older than %s and %d abandoned spools", deleted, retention, swept)
		return nil
	}
}

func NewCleanupAuditEventsQueue(deps CleanupDeps) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(deps))
}

// sweepSpools removes spooled uploads last modified before cutoff. Only files
// named like spools (<uuid>.<format>) are touched.
func sweepSpools(dir string, cutoff time.Time) (int, error) {
	if dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list spool dir: %w", err)
	}

	var (
		removed int
		errs    []error
	)
	for _, entry := range entries {
		if entry.IsDir() || !isSpoolName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func isSpoolName(name string) bool {
	base, _, ok := strings.Cut(name, ".")
	if !ok {
		return false
	}
	_, err := uuid.Parse(base)
	return err == nil
}

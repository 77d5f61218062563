package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/fediarchive/internal/entities"
)

const defaultLimit = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Filter narrows an event listing. Empty fields match everything.
type Filter struct {
	AccountID string
	EventType entities.AuditEventType
}

// LogEvent inserts event, stamping CreatedAt when unset.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// GetEvents returns one page of matching events, newest first, and the total
// number of matches.
func (r *Repository) GetEvents(filter Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var total int64
	if err := r.scoped(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	offset = max(offset, 0)

	var events []entities.AuditEvent
	err := r.scoped(filter).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	return events, total, err
}

// DeleteOldEvents removes events created before olderThan and returns how many
// were removed.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}

func (r *Repository) scoped(filter Filter) *gorm.DB {
	query := r.db.Model(&entities.AuditEvent{})
	if filter.AccountID != "" {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	return query
}

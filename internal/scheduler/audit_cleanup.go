package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/fediarchive/internal/tasks"
)

// TaskEnqueuer adds a task to the background queue.
type TaskEnqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// AuditCleanupScheduler periodically purges audit events past their retention.
// With a task queue the purge is enqueued; without one it runs inline.
type AuditCleanupScheduler struct {
	schedule      string
	retentionDays int
	queue         TaskEnqueuer
	cleaner       tasks.AuditEventCleaner

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewAuditCleanupScheduler creates a new scheduler instance. queue may be nil.
func NewAuditCleanupScheduler(schedule string, retentionDays int, queue TaskEnqueuer, cleaner tasks.AuditEventCleaner) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		schedule:      schedule,
		retentionDays: retentionDays,
		queue:         queue,
		cleaner:       cleaner,
		cron:          cron.New(cron.WithParser(parser)),
	}
}

// Start begins the scheduler. An empty schedule disables it.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		log.Printf("[SCHEDULER] Audit cleanup: disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.schedule, time.Now())
	log.Printf("[SCHEDULER] Audit cleanup: started with schedule '%s' (%s). Next run: %v",
		s.schedule, CronDescription(s.schedule), nextRun)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false

	log.Printf("[SCHEDULER] Audit cleanup: stopped")
}

// IsRunning returns whether the scheduler is active
func (s *AuditCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next cleanup will occur
func (s *AuditCleanupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// RunNow performs one cleanup pass.
func (s *AuditCleanupScheduler) RunNow(ctx context.Context) {
	task := tasks.CleanupAuditEventsTask{RetentionDays: s.retentionDays}

	if s.queue != nil {
		id, err := s.queue.Enqueue(task)
		if err != nil {
			log.Printf("[SCHEDULER] Audit cleanup: failed to enqueue: %v", err)
			return
		}
		log.Printf("[SCHEDULER] Audit cleanup: enqueued task %s", id)
		return
	}

	if err := tasks.CleanupAuditEventsProcessor(tasks.CleanupDeps{Events: s.cleaner})(ctx, task); err != nil {
		log.Printf("[SCHEDULER] Audit cleanup: %v", err)
	}
}

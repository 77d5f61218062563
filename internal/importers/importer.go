package importers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/fediarchive/internal/activitypub"
	"github.com/mrlokans/fediarchive/internal/container"
	"github.com/mrlokans/fediarchive/internal/database"
	"github.com/mrlokans/fediarchive/internal/entities"
)

var (
	// ErrStrategyRequired means the account exists and nobody chose a strategy.
	ErrStrategyRequired = errors.New("account already exists, choose replace or merge")
	ErrInvalidStrategy  = errors.New("invalid import strategy, expected replace or merge")
)

// Progress stages reported by the importer in addition to the decoder stages.
const (
	StageOpen     = "open"
	StageSave     = "save"
	StageFinalize = "finalize"
)

// Store is the persistence the importer writes to.
type Store interface {
	FindAccount(id string) (*entities.Account, error)
	SaveAccount(account *entities.Account) error
	DeleteAccountContent(accountID string) error

	UpsertPosts(posts []entities.Post, batchSize int) error
	UpsertLikes(likes []entities.Like, batchSize int) error
	UpsertBookmarks(bookmarks []entities.Bookmark, batchSize int) error
	UpsertMedia(media []entities.Media, batchSize int) error

	CountPosts(accountID string) (int, error)
	CountLikes(accountID string) (int, error)
	CountBookmarks(accountID string) (int, error)
	CountMedia(accountID string) (int, error)

	RecordImport(record *entities.ImportRecord, metadata *entities.ArchiveMetadata) error
}

// ConflictResolver is asked which strategy to use when the archive's account
// already exists.
type ConflictResolver func(ctx context.Context, existing entities.Identity) (entities.ImportStrategy, error)

// ProgressFunc receives (stage, completed, total); total 0 or 1 marks a
// one-shot stage.
type ProgressFunc = activitypub.ProgressFunc

// ConflictError carries the identity that blocked an import. It matches
// ErrStrategyRequired with errors.Is.
type ConflictError struct {
	Existing entities.Identity
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrStrategyRequired.Error(), e.Existing.Username, e.Existing.ID)
}

func (e *ConflictError) Unwrap() error {
	return ErrStrategyRequired
}

// FixedStrategy answers every conflict with strategy.
func FixedStrategy(strategy entities.ImportStrategy) ConflictResolver {
	return func(context.Context, entities.Identity) (entities.ImportStrategy, error) {
		return strategy, nil
	}
}

// RequireStrategy refuses every conflict with a ConflictError.
func RequireStrategy() ConflictResolver {
	return func(_ context.Context, existing entities.Identity) (entities.ImportStrategy, error) {
		return "", &ConflictError{Existing: existing}
	}
}

type Options struct {
	ResolveConflict ConflictResolver
	Progress        ProgressFunc
}

// BatchSizes bounds how many rows each store transaction writes.
type BatchSizes struct {
	Posts        int
	Interactions int
	Media        int
}

func DefaultBatchSizes() BatchSizes {
	return BatchSizes{Posts: 500, Interactions: 1000, Media: 20}
}

// SkipCounts are the records dropped at each step.
type SkipCounts struct {
	Posts     int `json:"posts"`
	Likes     int `json:"likes"`
	Bookmarks int `json:"bookmarks"`
	Media     int `json:"media"`
	// Duplicates counts posts replaced by a later occurrence of the same id.
	Duplicates int `json:"duplicates"`
}

func (s SkipCounts) Total() int {
	return s.Posts + s.Likes + s.Bookmarks + s.Media + s.Duplicates
}

// Result summarizes one import.
type Result struct {
	Account  entities.Identity        `json:"account"`
	Strategy entities.ImportStrategy  `json:"strategy"`
	Created  bool                     `json:"created"`
	Record   entities.ImportRecord    `json:"record"`
	Metadata entities.ArchiveMetadata `json:"metadata"`
	Skipped  SkipCounts               `json:"skipped"`
}

type Importer struct {
	store   Store
	decoder *activitypub.Decoder
	batches BatchSizes
	now     func() time.Time
}

func NewImporter(store Store, decoder *activitypub.Decoder, batches BatchSizes) *Importer {
	defaults := DefaultBatchSizes()
	if batches.Posts <= 0 {
		batches.Posts = defaults.Posts
	}
	if batches.Interactions <= 0 {
		batches.Interactions = defaults.Interactions
	}
	if batches.Media <= 0 {
		batches.Media = defaults.Media
	}
	if decoder == nil {
		decoder = &activitypub.Decoder{}
	}
	return &Importer{
		store:   store,
		decoder: decoder,
		batches: batches,
		now:     time.Now,
	}
}

// decoded holds every draft of one archive before anything is written.
type decoded struct {
	account   *entities.Account
	posts     []entities.Post
	likes     []entities.Like
	bookmarks []entities.Bookmark
	media     []entities.Media
	skipped   SkipCounts
}

// ImportArchive decodes data as an archive named fileName and stores it.
func (imp *Importer) ImportArchive(ctx context.Context, data []byte, fileName string, opts Options) (*Result, error) {
	progress := opts.Progress

	progress.Report(StageOpen, 0, 1)
	c, err := container.Open(data, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer c.Close()
	progress.Report(StageOpen, 1, 1)

	account, err := imp.decoder.Actor(c, progress)
	if err != nil {
		return nil, err
	}

	existing, err := imp.store.FindAccount(account.ID)
	if err != nil && !errors.Is(err, database.ErrAccountNotFound) {
		return nil, err
	}

	strategy := entities.ImportStrategyReplace
	if existing != nil && opts.ResolveConflict != nil {
		strategy, err = opts.ResolveConflict(ctx, existing.Identity())
		if err != nil {
			return nil, err
		}
		if !strategy.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
		}
	}

	drafts, err := imp.decode(ctx, c, account, progress)
	if err != nil {
		return nil, err
	}

	log.Printf("[IMPORT] Importing %s (%s) from %s with %s: %d posts, %d likes, %d bookmarks, %d media, %d skipped",
		account.Username, account.ID, fileName, strategy,
		len(drafts.posts), len(drafts.likes), len(drafts.bookmarks), len(drafts.media), drafts.skipped.Total())

	return imp.commit(drafts, existing, strategy, fileName, int64(len(data)), progress)
}

func (imp *Importer) decode(ctx context.Context, c container.Container, account *entities.Account, progress ProgressFunc) (*decoded, error) {
	posts, postStats, err := imp.decoder.Posts(c, progress)
	if err != nil {
		return nil, err
	}
	likes, likeStats, err := imp.decoder.Likes(c, progress)
	if err != nil {
		return nil, err
	}
	bookmarks, bookmarkStats, err := imp.decoder.Bookmarks(c, progress)
	if err != nil {
		return nil, err
	}
	media, mediaStats, err := imp.decoder.Media(ctx, c, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to decode media: %w", err)
	}

	accountID := account.ID
	d := &decoded{account: account}

	var dropped, duplicates int
	d.posts, dropped, duplicates = dedupe(posts, func(p *entities.Post) *string { p.AccountID = accountID; return &p.ID })
	d.skipped.Posts = postStats.Skipped + dropped
	d.skipped.Duplicates = duplicates

	d.likes, dropped, duplicates = dedupe(likes, func(l *entities.Like) *string { l.AccountID = accountID; return &l.ID })
	d.skipped.Likes = likeStats.Skipped + dropped + duplicates

	d.bookmarks, dropped, duplicates = dedupe(bookmarks, func(b *entities.Bookmark) *string { b.AccountID = accountID; return &b.ID })
	d.skipped.Bookmarks = bookmarkStats.Skipped + dropped + duplicates

	d.media, dropped, duplicates = dedupe(media, func(m *entities.Media) *string { m.AccountID = accountID; return &m.ID })
	d.skipped.Media = mediaStats.Skipped + dropped + duplicates

	return d, nil
}

// dedupe attaches ownership through key, drops rows with an empty id and keeps
// the last row for each id at the position of its first occurrence.
func dedupe[T any](rows []T, key func(*T) *string) (kept []T, dropped, duplicates int) {
	kept = make([]T, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for i := range rows {
		id := key(&rows[i])
		if id == nil || *id == "" {
			dropped++
			continue
		}
		if pos, ok := seen[*id]; ok {
			kept[pos] = rows[i]
			duplicates++
			continue
		}
		seen[*id] = len(kept)
		kept = append(kept, rows[i])
	}
	return kept, dropped, duplicates
}

func (imp *Importer) commit(d *decoded, existing *entities.Account, strategy entities.ImportStrategy, fileName string, fileSize int64, progress ProgressFunc) (*Result, error) {
	accountID := d.account.ID

	if existing != nil && strategy == entities.ImportStrategyReplace {
		if err := imp.store.DeleteAccountContent(accountID); err != nil {
			return nil, fmt.Errorf("failed to clear existing content: %w", err)
		}
	}

	if err := saveInBatches(StageSave+":"+activitypub.StagePosts, d.posts, imp.batches.Posts, imp.store.UpsertPosts, progress); err != nil {
		return nil, fmt.Errorf("failed to save posts: %w", err)
	}
	if err := saveInBatches(StageSave+":"+activitypub.StageLikes, d.likes, imp.batches.Interactions, imp.store.UpsertLikes, progress); err != nil {
		return nil, fmt.Errorf("failed to save likes: %w", err)
	}
	if err := saveInBatches(StageSave+":"+activitypub.StageBookmarks, d.bookmarks, imp.batches.Interactions, imp.store.UpsertBookmarks, progress); err != nil {
		return nil, fmt.Errorf("failed to save bookmarks: %w", err)
	}
	if err := saveInBatches(StageSave+":"+activitypub.StageMedia, d.media, imp.batches.Media, imp.store.UpsertMedia, progress); err != nil {
		return nil, fmt.Errorf("failed to save media: %w", err)
	}

	progress.Report(StageFinalize, 0, 1)

	counts := [4]int{len(d.posts), len(d.likes), len(d.bookmarks), len(d.media)}
	if strategy == entities.ImportStrategyMerge {
		var err error
		if counts, err = imp.recount(accountID); err != nil {
			return nil, err
		}
	}

	now := imp.now()
	account := d.account
	account.FirstImportedAt = now
	if existing != nil && !existing.FirstImportedAt.IsZero() {
		account.FirstImportedAt = existing.FirstImportedAt
	}
	account.LastUpdatedAt = now
	account.PostCount, account.LikeCount, account.BookmarkCount = counts[0], counts[1], counts[2]
	if err := imp.store.SaveAccount(account); err != nil {
		return nil, err
	}

	record := entities.ImportRecord{
		AccountID:     accountID,
		ImportedAt:    now,
		FileName:      fileName,
		FileSize:      fileSize,
		PostCount:     len(d.posts),
		LikeCount:     len(d.likes),
		BookmarkCount: len(d.bookmarks),
		MediaCount:    len(d.media),
		SkippedCount:  d.skipped.Total(),
		Strategy:      strategy,
	}
	metadata := entities.ArchiveMetadata{
		AccountID:     accountID,
		PostCount:     counts[0],
		LikeCount:     counts[1],
		BookmarkCount: counts[2],
		MediaCount:    counts[3],
		UploadedAt:    now,
		FileName:      fileName,
		FileSize:      fileSize,
	}
	if err := imp.store.RecordImport(&record, &metadata); err != nil {
		return nil, err
	}
	progress.Report(StageFinalize, 1, 1)

	log.Printf("[IMPORT] Completed import of %s: %d posts, %d likes, %d bookmarks, %d media stored",
		accountID, counts[0], counts[1], counts[2], counts[3])

	return &Result{
		Account:  account.Identity(),
		Strategy: strategy,
		Created:  existing == nil,
		Record:   record,
		Metadata: metadata,
		Skipped:  d.skipped,
	}, nil
}

// recount reads the stored totals, since a merge may overlap existing rows.
func (imp *Importer) recount(accountID string) ([4]int, error) {
	var counts [4]int
	for i, count := range []func(string) (int, error){
		imp.store.CountPosts, imp.store.CountLikes, imp.store.CountBookmarks, imp.store.CountMedia,
	} {
		n, err := count(accountID)
		if err != nil {
			return counts, fmt.Errorf("failed to recount account rows: %w", err)
		}
		counts[i] = n
	}
	return counts, nil
}

// saveInBatches hands the store one batch at a time so progress can follow.
func saveInBatches[T any](stage string, rows []T, batchSize int, upsert func([]T, int) error, progress ProgressFunc) error {
	progress.Report(stage, 0, len(rows))
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := upsert(rows[start:end], batchSize); err != nil {
			return err
		}
		progress.Report(stage, end, len(rows))
	}
	return nil
}

package posts

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/fediarchive/internal/entities"
)

var ErrNotFound = errors.New("post not found")

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Query filters a timeline. Zero values mean no filter.
type Query struct {
	From   *time.Time
	To     *time.Time
	Kind   entities.PostKind
	Text   string
	Limit  int
	Offset int
	// Desc lists the newest posts first.
	Desc bool
}

// DayCount is the number of posts published on one UTC day (YYYY-MM-DD).
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByAccount returns one page of the account's posts in timestamp order and
// the total number of posts matching q.
func (r *Repository) ListByAccount(accountID string, q Query) ([]entities.Post, int64, error) {
	var total int64
	if err := r.filtered(accountID, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "timestamp ASC, id ASC"
	if q.Desc {
		order = "timestamp DESC, id DESC"
	}

	var posts []entities.Post
	err := r.filtered(accountID, q).Order(order).Limit(clampLimit(q.Limit)).Offset(max(q.Offset, 0)).Find(&posts).Error
	return posts, total, err
}

// Search matches text against the plain-text body, newest first.
func (r *Repository) Search(accountID, text string, limit int) ([]entities.Post, error) {
	posts, _, err := r.ListByAccount(accountID, Query{Text: text, Limit: limit, Desc: true})
	return posts, err
}

func (r *Repository) Get(accountID, id string) (*entities.Post, error) {
	var post entities.Post
	err := r.db.Where("account_id = ? AND id = ?", accountID, id).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Replies returns the account's posts answering parentID, oldest first.
func (r *Repository) Replies(accountID, parentID string) ([]entities.Post, error) {
	var posts []entities.Post
	err := r.db.Where("account_id = ? AND in_reply_to = ?", accountID, parentID).
		Order("timestamp ASC").
		Find(&posts).Error
	return posts, err
}

// CountByDay groups the account's posts by UTC publication day. Nil bounds are open.
func (r *Repository) CountByDay(accountID string, from, to *time.Time) ([]DayCount, error) {
	query := r.filtered(accountID, Query{From: from, To: to}).Where("timestamp > 0")

	var counts []DayCount
	err := query.
		Select("strftime('%Y-%m-%d', timestamp / 1000, 'unixepoch') AS day, COUNT(*) AS count").
		Group("day").
		Order("day ASC").
		Scan(&counts).Error
	return counts, err
}

func (r *Repository) filtered(accountID string, q Query) *gorm.DB {
	query := r.db.Model(&entities.Post{}).Where("account_id = ?", accountID)
	if q.From != nil {
		query = query.Where("timestamp >= ?", q.From.UnixMilli())
	}
	if q.To != nil {
		query = query.Where("timestamp < ?", q.To.UnixMilli())
	}
	if q.Kind != "" {
		query = query.Where("kind = ?", q.Kind)
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		query = query.Where("plain_text LIKE ? ESCAPE '\\'", "%"+escapeLike(text)+"%")
	}
	return query
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

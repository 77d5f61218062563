package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/fediarchive/internal/database"
	"github.com/mrlokans/fediarchive/internal/database/audit"
	"github.com/mrlokans/fediarchive/internal/entities"
	"github.com/mrlokans/fediarchive/internal/importers"
	"github.com/mrlokans/fediarchive/internal/testutil"
)

const testAccountID = "https://social.example/users/alice"

var (
	day1 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	day3 = time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// seedArchive stores one imported account with three posts, one like, one
// bookmark and one image.
func seedArchive(t *testing.T, db *database.Database) {
	t.Helper()

	require.NoError(t, db.SaveAccount(&entities.Account{
		ID:            testAccountID,
		Username:      "alice",
		DisplayName:   "Alice",
		Avatar:        testutil.PNG(t, 32, 32),
		AvatarMIME:    "image/png",
		PostCount:     3,
		LikeCount:     1,
		BookmarkCount: 1,
	}))

	require.NoError(t, db.UpsertPosts([]entities.Post{
		{
			AccountID:   testAccountID,
			ID:          "101",
			URI:         testAccountID + "/statuses/101",
			Kind:        entities.PostKindOriginal,
			Content:     "<p>Hello :wave:</p>",
			PlainText:   "Hello :wave:",
			PublishedAt: day1,
			Timestamp:   day1.UnixMilli(),
			Emojis:      []entities.Emoji{{Shortcode: "wave", URL: "https://social.example/emoji/wave.png"}},
			MediaIDs:    []string{"photo.png"},
			Visibility:  entities.VisibilityPublic,
		},
		{
			AccountID:   testAccountID,
			ID:          "102",
			URI:         testAccountID + "/statuses/102",
			Kind:        entities.PostKindOriginal,
			Content:     "<p>a reply to myself</p>",
			PlainText:   "a reply to myself",
			PublishedAt: day2,
			Timestamp:   day2.UnixMilli(),
			InReplyTo:   "101",
			Visibility:  entities.VisibilityUnlisted,
		},
		{
			AccountID:      testAccountID,
			ID:             "103-2",
			URI:            testAccountID + "/statuses/103/activity",
			Kind:           entities.PostKindBoost,
			PublishedAt:    day3,
			Timestamp:      day3.UnixMilli(),
			BoostedPostID:  "https://other.example/users/bob/statuses/9",
			BoostedPostURL: "https://other.example/@bob/9",
			Visibility:     entities.VisibilityPublic,
		},
	}, 10))

	require.NoError(t, db.UpsertLikes([]entities.Like{
		{AccountID: testAccountID, ID: "like-1", TargetURL: "https://other.example/users/bob/statuses/1", PublishedAt: &day1},
	}, 10))
	require.NoError(t, db.UpsertBookmarks([]entities.Bookmark{
		{AccountID: testAccountID, ID: "bm-1", TargetURL: "https://other.example/users/bob/statuses/2"},
	}, 10))
	require.NoError(t, db.UpsertMedia([]entities.Media{
		{AccountID: testAccountID, ID: "photo.png", Path: "media_attachments/photo.png", Kind: entities.MediaKindImage, MIMEType: "image/png", Data: testutil.PNG(t, 64, 48)},
		{AccountID: testAccountID, ID: "clip.mp4", Path: "media_attachments/clip.mp4", Kind: entities.MediaKindVideo, MIMEType: "video/mp4", Data: []byte("not really a video")},
	}, 10))

	require.NoError(t, db.RecordImport(
		&entities.ImportRecord{AccountID: testAccountID, ImportedAt: day3, FileName: "export.zip", FileSize: 2048, PostCount: 3, LikeCount: 1, BookmarkCount: 1, MediaCount: 2, Strategy: entities.ImportStrategyReplace},
		&entities.ArchiveMetadata{AccountID: testAccountID, PostCount: 3, LikeCount: 1, BookmarkCount: 1, MediaCount: 2, UploadedAt: day3, FileName: "export.zip", FileSize: 2048},
	))
}

// stubImporter records its input and optionally consults the conflict resolver.
type stubImporter struct {
	existing *entities.Identity
	result   *importers.Result
	err      error

	calls    int
	fileName string
	data     []byte
	resolved entities.ImportStrategy
}

func (s *stubImporter) ImportArchive(ctx context.Context, data []byte, fileName string, opts importers.Options) (*importers.Result, error) {
	s.calls++
	s.fileName = fileName
	s.data = data
	if s.existing != nil {
		strategy, err := opts.ResolveConflict(ctx, *s.existing)
		if err != nil {
			return nil, err
		}
		s.resolved = strategy
	}
	return s.result, s.err
}

type loggedImport struct {
	accountID string
	fileName  string
	record    *entities.ImportRecord
	err       error
}

type loggedDelete struct {
	accountID string
	username  string
	err       error
}

type stubAuditor struct {
	mu      sync.Mutex
	imports []loggedImport
	deletes []loggedDelete
	events  []entities.AuditEvent
	filter  audit.Filter
}

func (s *stubAuditor) LogImport(accountID, fileName string, record *entities.ImportRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imports = append(s.imports, loggedImport{accountID, fileName, record, err})
}

func (s *stubAuditor) LogDelete(accountID, username string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, loggedDelete{accountID, username, err})
}

func (s *stubAuditor) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	s.filter = filter
	return s.events, int64(len(s.events)), nil
}

type stubQueue struct {
	tasks  []backlite.Task
	status backlite.TaskStatus
	err    error
}

func (s *stubQueue) Enqueue(task backlite.Task) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.tasks = append(s.tasks, task)
	return "task-42", nil
}

func (s *stubQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return s.status, nil
}

func serve(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func accountQuery(path string, params ...string) string {
	values := url.Values{"account": {testAccountID}}
	for i := 0; i+1 < len(params); i += 2 {
		values.Set(params[i], params[i+1])
	}
	return path + "?" + values.Encode()
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func uploadRequest(t *testing.T, fileName string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := writer.CreateFormFile("archive", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

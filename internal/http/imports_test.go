package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/fediarchive/internal/activitypub"
	"github.com/mrlokans/fediarchive/internal/entities"
	"github.com/mrlokans/fediarchive/internal/importers"
	"github.com/mrlokans/fediarchive/internal/tasks"
)

var aliceIdentity = entities.Identity{ID: testAccountID, Username: "alice", DisplayName: "Alice"}

func importResult(strategy entities.ImportStrategy) *importers.Result {
	return &importers.Result{
		Account:  aliceIdentity,
		Strategy: strategy,
		Record:   entities.ImportRecord{AccountID: testAccountID, FileName: "export.zip", PostCount: 3, Strategy: strategy},
		Metadata: entities.ArchiveMetadata{AccountID: testAccountID, PostCount: 3},
	}
}

type importFixture struct {
	router   *gin.Engine
	importer *stubImporter
	auditor  *stubAuditor
	queue    *stubQueue
	spoolDir string
}

func setupImportRouter(t *testing.T, importer *stubImporter, withQueue bool, maxBytes int64) *importFixture {
	t.Helper()
	f := &importFixture{
		importer: importer,
		auditor:  &stubAuditor{},
		spoolDir: filepath.Join(t.TempDir(), "uploads"),
	}
	cfg := ImportControllerConfig{Auditor: f.auditor, UploadDir: f.spoolDir, MaxBytes: maxBytes}
	if withQueue {
		f.queue = &stubQueue{}
		cfg.Queue = f.queue
	}

	controller := NewImportController(importer, cfg)
	f.router = gin.New()
	f.router.POST("/api/imports", controller.Import)
	return f
}

func (f *importFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestImportController_NewAccount(t *testing.T) {
	f := setupImportRouter(t, &stubImporter{result: importResult(entities.ImportStrategyReplace)}, false, 0)

	w := f.do(uploadRequest(t, "export.zip", []byte("zip payload"), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result importers.Result
	decodeJSON(t, w, &result)
	assert.Equal(t, testAccountID, result.Account.ID)
	assert.Equal(t, 3, result.Record.PostCount)

	assert.Equal(t, "export.zip", f.importer.fileName)
	assert.Equal(t, []byte("zip payload"), f.importer.data)

	require.Len(t, f.auditor.imports, 1)
	assert.Equal(t, testAccountID, f.auditor.imports[0].accountID)
	assert.NoError(t, f.auditor.imports[0].err)
}

func TestImportController_SanitizesFileName(t *testing.T) {
	f := setupImportRouter(t, &stubImporter{result: importResult(entities.ImportStrategyReplace)}, false, 0)

	w := f.do(uploadRequest(t, "my   export*.zip", []byte("zip payload"), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "my export.zip", f.importer.fileName)
	require.Len(t, f.auditor.imports, 1)
	assert.Equal(t, "my export.zip", f.auditor.imports[0].fileName)
}

func TestImportController_ConflictWithoutStrategy(t *testing.T) {
	existing := aliceIdentity
	f := setupImportRouter(t, &stubImporter{existing: &existing, result: importResult(entities.ImportStrategyMerge)}, false, 0)

	w := f.do(uploadRequest(t, "export.tar.gz", []byte("tgz"), nil))
	require.Equal(t, http.StatusConflict, w.Code)

	var response struct {
		Error   string            `json:"error"`
		Code    string            `json:"code"`
		Details entities.Identity `json:"details"`
	}
	decodeJSON(t, w, &response)
	assert.Equal(t, CodeStrategyRequired, response.Code)
	assert.Equal(t, aliceIdentity, response.Details)
	assert.Empty(t, f.auditor.imports)
}

func TestImportController_ConflictWithStrategy(t *testing.T) {
	existing := aliceIdentity
	f := setupImportRouter(t, &stubImporter{existing: &existing, result: importResult(entities.ImportStrategyMerge)}, false, 0)

	w := f.do(uploadRequest(t, "export.tgz", []byte("tgz"), map[string]string{"strategy": "Merge"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, entities.ImportStrategyMerge, f.importer.resolved)
}

func TestImportController_RejectedInput(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		fields   map[string]string
		status   int
		message  string
	}{
		{"missing file", "", nil, http.StatusBadRequest, "archive file is required"},
		{"unknown strategy", "export.zip", map[string]string{"strategy": "overwrite"}, http.StatusBadRequest, "invalid import strategy"},
		{"unsupported extension", "export.rar", nil, http.StatusUnprocessableEntity, "unsupported archive format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupImportRouter(t, &stubImporter{result: importResult(entities.ImportStrategyReplace)}, false, 0)

			w := f.do(uploadRequest(t, tt.fileName, []byte("data"), tt.fields))

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.Zero(t, f.importer.calls)
		})
	}
}

func TestImportController_ArchiveErrors(t *testing.T) {
	f := setupImportRouter(t, &stubImporter{err: fmt.Errorf("decode: %w", activitypub.ErrOutboxNotFound)}, false, 0)

	w := f.do(uploadRequest(t, "export.zip", []byte("zip"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "could not find an outbox in this archive")

	require.Len(t, f.auditor.imports, 1)
	assert.Nil(t, f.auditor.imports[0].record)
	assert.ErrorIs(t, f.auditor.imports[0].err, activitypub.ErrOutboxNotFound)

	f = setupImportRouter(t, &stubImporter{err: errors.New("disk full")}, false, 0)
	w = f.do(uploadRequest(t, "export.zip", []byte("zip"), nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk full")
}

func TestImportController_UploadLimit(t *testing.T) {
	f := setupImportRouter(t, &stubImporter{result: importResult(entities.ImportStrategyReplace)}, false, 512)

	w := f.do(uploadRequest(t, "export.zip", []byte(strings.Repeat("x", 4096)), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, f.importer.calls)
}

func TestImportController_Async(t *testing.T) {
	f := setupImportRouter(t, &stubImporter{}, true, 0)

	w := f.do(uploadRequest(t, "My Export.tar.gz", []byte("queued payload"), map[string]string{"async": "true"}))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"task_id":"task-42"`)
	assert.Zero(t, f.importer.calls)

	require.Len(t, f.queue.tasks, 1)
	task, ok := f.queue.tasks[0].(tasks.ImportArchiveTask)
	require.True(t, ok)
	assert.Equal(t, "My Export.tar.gz", task.FileName)
	assert.Equal(t, entities.ImportStrategyReplace, task.Strategy)
	assert.Equal(t, f.spoolDir, filepath.Dir(task.Path))
	assert.True(t, strings.HasSuffix(task.Path, ".tar.gz"))

	spooled, err := os.ReadFile(task.Path)
	require.NoError(t, err)
	assert.Equal(t, "queued payload", string(spooled))
}

func TestImportController_AsyncFailures(t *testing.T) {
	f := setupImportRouter(t, &stubImporter{}, false, 0)
	w := f.do(uploadRequest(t, "export.zip", []byte("zip"), map[string]string{"async": "1"}))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	f = setupImportRouter(t, &stubImporter{}, true, 0)
	f.queue.err = errors.New("queue closed")
	w = f.do(uploadRequest(t, "export.zip", []byte("zip"), map[string]string{"async": "true", "strategy": "merge"}))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries, err := os.ReadDir(f.spoolDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "spool file is removed when enqueue fails")
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	queue := &stubQueue{status: backlite.TaskStatusRunning}
	router := gin.New()
	router.GET("/api/tasks/:id", NewTasksController(queue).GetTaskStatus)

	w := serve(router, http.MethodGet, "/api/tasks/task-42")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"task-42","status":"running"}`, w.Body.String())

	queue.status = backlite.TaskStatusNotFound
	w = serve(router, http.MethodGet, "/api/tasks/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditController_GetAuditEvents(t *testing.T) {
	auditor := &stubAuditor{events: []entities.AuditEvent{
		{ID: 1, AccountID: testAccountID, EventType: entities.AuditEventImport, Action: "archive_import", Status: entities.AuditStatusSuccess},
	}}
	router := gin.New()
	router.GET("/api/audit", NewAuditController(auditor).GetAuditEvents)

	w := serve(router, http.MethodGet, accountQuery("/api/audit", "type", "import", "limit", "500"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_events":1`)
	assert.Contains(t, w.Body.String(), `"limit":25`)
	assert.Equal(t, testAccountID, auditor.filter.AccountID)
	assert.Equal(t, entities.AuditEventImport, auditor.filter.EventType)
}

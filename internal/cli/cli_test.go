package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/fediarchive/internal/database"
	"github.com/mrlokans/fediarchive/internal/database/accounts"
	dbaudit "github.com/mrlokans/fediarchive/internal/database/audit"
	"github.com/mrlokans/fediarchive/internal/database/imports"
	"github.com/mrlokans/fediarchive/internal/entities"
	"github.com/mrlokans/fediarchive/internal/importers"
	"github.com/mrlokans/fediarchive/internal/testutil"
)

func init() {
	pterm.DisableOutput()
}

const testActorID = "https://x.example/users/bob"

const testActor = `{
	"id": "https://x.example/users/bob",
	"type": "Person",
	"preferredUsername": "bob",
	"name": "Bob",
	"published": "2020-01-02T03:04:05Z"
}`

const testOutbox = `{
	"type": "OrderedCollection",
	"orderedItems": [
		{
			"id": "https://x.example/@bob/1/activity",
			"type": "Create",
			"published": "2023-05-01T10:00:00Z",
			"object": {
				"id": "https://x.example/@bob/1",
				"type": "Note",
				"content": "<p>hi</p>",
				"published": "2023-05-01T10:00:00Z"
			}
		},
		{
			"id": "https://x.example/@bob/2/activity",
			"type": "Create",
			"published": "2023-05-02T10:00:00Z",
			"object": {
				"id": "https://x.example/@bob/2",
				"type": "Note",
				"content": "<p>again</p>",
				"published": "2023-05-02T10:00:00Z"
			}
		}
	]
}`

func writeArchive(t *testing.T, dir string) string {
	t.Helper()
	data := testutil.BuildZip(t,
		testutil.JSONFile("actor.json", testActor),
		testutil.JSONFile("outbox.json", testOutbox),
	)
	path := filepath.Join(dir, "archive.zip")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func openDB(t *testing.T, path string) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func runImport(t *testing.T, archive, dbPath, strategy string) error {
	t.Helper()
	cmd := NewImportCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-file", archive, "-db", dbPath, "-strategy", strategy}))
	return cmd.Run()
}

func TestImportCommand_ParseFlags(t *testing.T) {
	t.Run("requires file", func(t *testing.T) {
		err := NewImportCommand().ParseFlags([]string{})
		assert.Error(t, err)
	})

	t.Run("defaults to ask", func(t *testing.T) {
		cmd := NewImportCommand()
		require.NoError(t, cmd.ParseFlags([]string{"-file", "a.zip"}))
		assert.Equal(t, strategyAsk, cmd.Strategy)
		assert.Equal(t, importers.DefaultBatchSizes(), cmd.Batches)
	})

	t.Run("normalizes strategy", func(t *testing.T) {
		cmd := NewImportCommand()
		require.NoError(t, cmd.ParseFlags([]string{"-file", "a.zip", "-strategy", " MERGE "}))
		assert.Equal(t, "merge", cmd.Strategy)
	})

	t.Run("rejects unknown strategy", func(t *testing.T) {
		err := NewImportCommand().ParseFlags([]string{"-file", "a.zip", "-strategy", "overwrite"})
		assert.ErrorIs(t, err, importers.ErrInvalidStrategy)
	})

	t.Run("batch overrides", func(t *testing.T) {
		cmd := NewImportCommand()
		require.NoError(t, cmd.ParseFlags([]string{"-file", "a.zip", "-post-batch", "10", "-media-batch", "2"}))
		assert.Equal(t, 10, cmd.Batches.Posts)
		assert.Equal(t, 2, cmd.Batches.Media)
		assert.Equal(t, 1000, cmd.Batches.Interactions)
	})
}

func TestImportCommand_Run(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir)
	dbPath := filepath.Join(dir, "test.db")

	require.NoError(t, runImport(t, archive, dbPath, "replace"))

	db := openDB(t, dbPath)
	account, err := accounts.NewRepository(db.DB).Get(testActorID)
	require.NoError(t, err)
	assert.Equal(t, "bob", account.Username)
	assert.Equal(t, 2, account.PostCount)

	history, err := imports.NewRepository(db.DB).History(testActorID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "archive.zip", history[0].FileName)
	assert.Equal(t, entities.ImportStrategyReplace, history[0].Strategy)

	events, total, err := dbaudit.NewRepository(db.DB).GetEvents(dbaudit.Filter{AccountID: testActorID}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, entities.AuditStatusSuccess, events[0].Status)
}

func TestImportCommand_AskPromptsOnConflict(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir)
	dbPath := filepath.Join(dir, "test.db")

	require.NoError(t, runImport(t, archive, dbPath, "replace"))

	var asked entities.Identity
	cmd := NewImportCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-file", archive, "-db", dbPath}))
	cmd.Prompt = func(existing entities.Identity) (entities.ImportStrategy, error) {
		asked = existing
		return entities.ImportStrategyMerge, nil
	}
	require.NoError(t, cmd.Run())

	assert.Equal(t, testActorID, asked.ID)
	assert.Equal(t, "bob", asked.Username)

	db := openDB(t, dbPath)
	last, err := imports.NewRepository(db.DB).LastImport(testActorID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, entities.ImportStrategyMerge, last.Strategy)
}

func TestImportCommand_AskCancelled(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir)
	dbPath := filepath.Join(dir, "test.db")

	require.NoError(t, runImport(t, archive, dbPath, "replace"))

	cmd := NewImportCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-file", archive, "-db", dbPath}))
	cmd.Prompt = func(existing entities.Identity) (entities.ImportStrategy, error) {
		return "", &importers.ConflictError{Existing: existing}
	}
	err := cmd.Run()
	assert.ErrorIs(t, err, importers.ErrStrategyRequired)

	db := openDB(t, dbPath)
	history, err := imports.NewRepository(db.DB).History(testActorID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestImportCommand_MissingFile(t *testing.T) {
	dir := t.TempDir()
	err := runImport(t, filepath.Join(dir, "missing.zip"), filepath.Join(dir, "test.db"), "replace")
	assert.Error(t, err)
}

func TestAccountsCommand_Run(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	cmd := NewAccountsCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-db", dbPath}))
	require.NoError(t, cmd.Run())

	require.NoError(t, runImport(t, writeArchive(t, dir), dbPath, "replace"))
	require.NoError(t, cmd.Run())
}

func TestDeleteAccountCommand(t *testing.T) {
	t.Run("requires id", func(t *testing.T) {
		err := NewDeleteAccountCommand().ParseFlags([]string{})
		assert.Error(t, err)
	})

	t.Run("declined", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "test.db")
		require.NoError(t, runImport(t, writeArchive(t, dir), dbPath, "replace"))

		cmd := NewDeleteAccountCommand()
		require.NoError(t, cmd.ParseFlags([]string{"-id", testActorID, "-db", dbPath}))
		cmd.Confirm = func(string) (bool, error) { return false, nil }
		assert.ErrorIs(t, cmd.Run(), errDeleteCancelled)

		db := openDB(t, dbPath)
		_, err := accounts.NewRepository(db.DB).Get(testActorID)
		assert.NoError(t, err)
	})

	t.Run("confirmed with flag", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "test.db")
		require.NoError(t, runImport(t, writeArchive(t, dir), dbPath, "replace"))

		cmd := NewDeleteAccountCommand()
		require.NoError(t, cmd.ParseFlags([]string{"-id", testActorID, "-db", dbPath, "-yes"}))
		cmd.Confirm = func(string) (bool, error) {
			t.Fatal("confirm should not be called with -yes")
			return false, nil
		}
		require.NoError(t, cmd.Run())

		db := openDB(t, dbPath)
		_, err := accounts.NewRepository(db.DB).Get(testActorID)
		assert.ErrorIs(t, err, accounts.ErrNotFound)

		events, _, err := dbaudit.NewRepository(db.DB).GetEvents(dbaudit.Filter{EventType: entities.AuditEventDelete}, 10, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, testActorID, events[0].AccountID)
	})

	t.Run("unknown account", func(t *testing.T) {
		dir := t.TempDir()
		cmd := NewDeleteAccountCommand()
		require.NoError(t, cmd.ParseFlags([]string{"-id", "https://nowhere/users/x", "-db", filepath.Join(dir, "test.db"), "-yes"}))
		assert.ErrorIs(t, cmd.Run(), accounts.ErrNotFound)
	})
}

func TestProgressView_Report(t *testing.T) {
	p := newProgressView(true)
	p.Report("open", 0, 1)
	p.Report("open", 1, 1)
	p.Report("posts", 0, 10)
	require.NotNil(t, p.bar)
	p.Report("posts", 4, 10)
	assert.Equal(t, 4, p.bar.Current)
	p.Report("posts", 10, 10)
	assert.Nil(t, p.bar)
	p.Report("posts", 10, 10)
	assert.Nil(t, p.bar)

	p.Report("save:posts", 1, 3)
	require.NotNil(t, p.bar)
	assert.Equal(t, "save:posts", p.stage)
	p.Stop()
	assert.Nil(t, p.bar)
}

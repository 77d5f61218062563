package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"

	"github.com/mrlokans/fediarchive/internal/activitypub"
	"github.com/mrlokans/fediarchive/internal/audit"
	"github.com/mrlokans/fediarchive/internal/config"
	"github.com/mrlokans/fediarchive/internal/database"
	dbaudit "github.com/mrlokans/fediarchive/internal/database/audit"
	"github.com/mrlokans/fediarchive/internal/entities"
	"github.com/mrlokans/fediarchive/internal/importers"
	"github.com/mrlokans/fediarchive/internal/utils"
)

const strategyAsk = "ask"

// StrategyPrompt asks the user how to import over an existing account.
type StrategyPrompt func(existing entities.Identity) (entities.ImportStrategy, error)

// ImportCommand imports an exported archive into the local database.
type ImportCommand struct {
	ArchivePath  string
	DatabasePath string
	Strategy     string
	Verbose      bool
	Batches      importers.BatchSizes

	// Prompt answers conflicts when Strategy is "ask".
	Prompt StrategyPrompt
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{
		Batches: importers.DefaultBatchSizes(),
		Prompt:  promptStrategy,
	}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)

	fs.StringVar(&cmd.ArchivePath, "file", "", "Path to the exported archive, .zip or .tar.gz (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.Strategy, "strategy", strategyAsk, "What to do when the account already exists: replace, merge or ask")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")
	fs.IntVar(&cmd.Batches.Posts, "post-batch", cmd.Batches.Posts, "Posts written per transaction")
	fs.IntVar(&cmd.Batches.Interactions, "interaction-batch", cmd.Batches.Interactions, "Likes and bookmarks written per transaction")
	fs.IntVar(&cmd.Batches.Media, "media-batch", cmd.Batches.Media, "Media files written per transaction")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <archive> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import an exported account archive into the local database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file archive-20240301.zip\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file archive.tar.gz -strategy merge -db ./data/fediarchive.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ArchivePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	cmd.Strategy = strings.ToLower(strings.TrimSpace(cmd.Strategy))
	if cmd.Strategy != strategyAsk && !entities.ImportStrategy(cmd.Strategy).Valid() {
		return fmt.Errorf("%w: %q", importers.ErrInvalidStrategy, cmd.Strategy)
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	pterm.DefaultSection.Println("Archive Import")

	data, err := os.ReadFile(cmd.ArchivePath)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	pterm.Info.Printfln("File: %s (%d bytes)", cmd.ArchivePath, len(data))

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	pterm.Info.Printfln("Database: %s", absDBPath)

	db, err := database.NewDatabase(absDBPath, database.WithVerbose(cmd.Verbose))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	auditor := audit.NewService(dbaudit.NewRepository(db.DB))
	defer auditor.Wait()

	importer := importers.NewImporter(db, activitypub.NewDecoder(activitypub.DefaultProgressInterval, activitypub.DefaultMediaBatchWidth), cmd.Batches)

	progress := newProgressView(cmd.Verbose)
	defer progress.Stop()

	fileName := utils.SanitizeFilename(cmd.ArchivePath)
	result, err := importer.ImportArchive(context.Background(), data, fileName, importers.Options{
		ResolveConflict: cmd.resolver(progress),
		Progress:        progress.Report,
	})
	progress.Stop()
	if err != nil {
		if !errors.Is(err, importers.ErrStrategyRequired) {
			auditor.LogImport("", fileName, nil, err)
		}
		return fmt.Errorf("import failed: %w", err)
	}
	auditor.LogImport(result.Account.ID, fileName, &result.Record, nil)

	printImportSummary(result)
	return nil
}

func (cmd *ImportCommand) resolver(progress *progressView) importers.ConflictResolver {
	if cmd.Strategy != strategyAsk {
		return importers.FixedStrategy(entities.ImportStrategy(cmd.Strategy))
	}
	if cmd.Prompt == nil {
		return importers.RequireStrategy()
	}
	return func(_ context.Context, existing entities.Identity) (entities.ImportStrategy, error) {
		progress.Stop()
		return cmd.Prompt(existing)
	}
}

func promptStrategy(existing entities.Identity) (entities.ImportStrategy, error) {
	const cancel = "cancel"

	pterm.Warning.Printfln("@%s (%s) is already in the database.", existing.Username, existing.ID)
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{string(entities.ImportStrategyReplace), string(entities.ImportStrategyMerge), cancel}).
		WithDefaultOption(string(entities.ImportStrategyReplace)).
		Show("Replace the stored archive or merge into it?")
	if err != nil {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	if choice == cancel {
		return "", &importers.ConflictError{Existing: existing}
	}
	return entities.ImportStrategy(choice), nil
}

func printImportSummary(result *importers.Result) {
	verb := "Updated"
	if result.Created {
		verb = "Created"
	}
	pterm.Success.Printfln("%s @%s (%s) using %s", verb, result.Account.Username, result.Account.ID, result.Strategy)

	data := pterm.TableData{
		{"", "Imported", "Skipped", "Stored"},
		{"Posts", fmt.Sprint(result.Record.PostCount), fmt.Sprint(result.Skipped.Posts + result.Skipped.Duplicates), fmt.Sprint(result.Metadata.PostCount)},
		{"Likes", fmt.Sprint(result.Record.LikeCount), fmt.Sprint(result.Skipped.Likes), fmt.Sprint(result.Metadata.LikeCount)},
		{"Bookmarks", fmt.Sprint(result.Record.BookmarkCount), fmt.Sprint(result.Skipped.Bookmarks), fmt.Sprint(result.Metadata.BookmarkCount)},
		{"Media", fmt.Sprint(result.Record.MediaCount), fmt.Sprint(result.Skipped.Media), fmt.Sprint(result.Metadata.MediaCount)},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

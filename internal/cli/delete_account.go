package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"

	"github.com/mrlokans/fediarchive/internal/audit"
	"github.com/mrlokans/fediarchive/internal/config"
	"github.com/mrlokans/fediarchive/internal/database"
	"github.com/mrlokans/fediarchive/internal/database/accounts"
	dbaudit "github.com/mrlokans/fediarchive/internal/database/audit"
)

var errDeleteCancelled = errors.New("deletion cancelled")

// DeleteAccountCommand removes an account and everything imported for it.
type DeleteAccountCommand struct {
	AccountID    string
	DatabasePath string
	Yes          bool

	// Confirm asks before deleting unless Yes is set.
	Confirm func(question string) (bool, error)
}

func NewDeleteAccountCommand() *DeleteAccountCommand {
	return &DeleteAccountCommand{Confirm: confirm}
}

func (cmd *DeleteAccountCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("delete-account", flag.ContinueOnError)

	fs.StringVar(&cmd.AccountID, "id", "", "Actor URI of the account to delete (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.BoolVar(&cmd.Yes, "yes", false, "Skip the confirmation prompt")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s delete-account -id <actor uri> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete an account with its posts, interactions, media and import history.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.AccountID == "" {
		return fmt.Errorf("required flag -id not provided")
	}

	return nil
}

func (cmd *DeleteAccountCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repo := accounts.NewRepository(db.DB)
	account, err := repo.Get(cmd.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	if !cmd.Yes && cmd.Confirm != nil {
		question := fmt.Sprintf("Delete @%s with %d posts, %d likes and %d bookmarks?",
			account.Username, account.PostCount, account.LikeCount, account.BookmarkCount)
		ok, err := cmd.Confirm(question)
		if err != nil {
			return err
		}
		if !ok {
			return errDeleteCancelled
		}
	}

	auditor := audit.NewService(dbaudit.NewRepository(db.DB))
	defer auditor.Wait()

	err = repo.Delete(account.ID)
	auditor.LogDelete(account.ID, account.Username, err)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	pterm.Success.Printfln("Deleted @%s (%s)", account.Username, account.ID)
	return nil
}

func confirm(question string) (bool, error) {
	ok, err := pterm.DefaultInteractiveConfirm.Show(question)
	if err != nil {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	return ok, nil
}

package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"

	"github.com/mrlokans/fediarchive/internal/config"
	"github.com/mrlokans/fediarchive/internal/database"
	"github.com/mrlokans/fediarchive/internal/database/accounts"
	"github.com/mrlokans/fediarchive/internal/database/imports"
)

// AccountsCommand lists the accounts stored in the local database.
type AccountsCommand struct {
	DatabasePath string
}

func NewAccountsCommand() *AccountsCommand {
	return &AccountsCommand{}
}

func (cmd *AccountsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("accounts", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s accounts [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List imported accounts with their counters and last import.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *AccountsCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	list, err := accounts.NewRepository(db.DB).List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(list) == 0 {
		pterm.Info.Println("No accounts imported yet.")
		return nil
	}

	history := imports.NewRepository(db.DB)
	data := pterm.TableData{
		{"Username", "ID", "Posts", "Likes", "Bookmarks", "Last import"},
	}
	for _, acc := range list {
		last := "-"
		record, err := history.LastImport(acc.ID)
		if err != nil {
			return fmt.Errorf("failed to load import history: %w", err)
		}
		if record != nil {
			last = fmt.Sprintf("%s (%s)", record.ImportedAt.Local().Format("2006-01-02 15:04"), record.Strategy)
		}
		data = append(data, []string{
			"@" + acc.Username,
			acc.ID,
			fmt.Sprint(acc.PostCount),
			fmt.Sprint(acc.LikeCount),
			fmt.Sprint(acc.BookmarkCount),
			last,
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

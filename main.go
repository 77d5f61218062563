package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/fediarchive/internal/cli"
	"github.com/mrlokans/fediarchive/internal/config"
	"github.com/mrlokans/fediarchive/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is implemented by every CLI subcommand.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "import":
		cmd = cli.NewImportCommand()
	case "accounts":
		cmd = cli.NewAccountsCommand()
	case "delete-account":
		cmd = cli.NewDeleteAccountCommand()
	case "version", "--version", "-v":
		fmt.Printf("fediarchive %s (%s)\n", Version, Commit)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  serve            Run the HTTP server (default)")
	fmt.Println("  import           Import an exported account archive")
	fmt.Println("  accounts         List imported accounts")
	fmt.Println("  delete-account   Delete an account and its archive")
	fmt.Println("  version          Print version information")
	fmt.Println("  help             Show this help")
	fmt.Printf("\nRun '%s <command> -h' for command options.\n", os.Args[0])
}

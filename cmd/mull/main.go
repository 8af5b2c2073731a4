package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/mull/internal/agent"
	"github.com/hpungsan/mull/internal/config"
	"github.com/hpungsan/mull/internal/credential"
	"github.com/hpungsan/mull/internal/db"
	"github.com/hpungsan/mull/internal/mailbox"
	"github.com/hpungsan/mull/internal/mcp"
	"github.com/hpungsan/mull/internal/ops"
	"github.com/hpungsan/mull/internal/session"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"list": true, "read": true, "ask": true, "chat": true, "context": true,
	"label": true, "archive": true, "send": true, "stats": true,
	"login": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
                 _ _
   _ __ ___ _  _| | |
  | '_ ` + "`" + ` _ \ || | | |
  |_| |_| |_\_,_|_|_|

  Think about your mail out loud

  Usage: mull <command> [options]
         mull --help

  MCP server mode requires piped input.`)
}

// setupLogging routes slog to stderr. Stdout carries MCP traffic and
// command output.
func setupLogging(cfg *config.Config) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(handler))
}

// openMailbox builds the configured provider. A nil provider with a nil
// error means no mailbox is configured.
func openMailbox(cfg config.MailboxConfig, baseDir string) (mailbox.Provider, error) {
	switch cfg.Kind {
	case "":
		return nil, nil
	case config.MailboxDir:
		dir := cfg.Dir
		if dir == "" {
			dir = filepath.Join(baseDir, "mail")
		}
		box, err := mailbox.NewDir(dir)
		if err != nil {
			return nil, err
		}
		return box, nil
	case config.MailboxIMAP:
		store, err := credential.Open(baseDir)
		if err != nil {
			slog.Warn("keyring unavailable", "error", err)
		}
		password, err := credential.MailboxPassword(store, cfg.Username)
		if err != nil {
			return nil, fmt.Errorf("no password for %s: set %s or run 'mull login': %w",
				cfg.Username, credential.PasswordEnv, err)
		}
		box, err := mailbox.NewIMAP(mailbox.IMAPConfig{
			IMAPHost:       cfg.IMAPHost,
			IMAPPort:       cfg.IMAPPort,
			SMTPHost:       cfg.SMTPHost,
			SMTPPort:       cfg.SMTPPort,
			Username:       cfg.Username,
			Password:       password,
			TLS:            cfg.TLS,
			Folder:         cfg.Folder,
			ArchiveFolders: cfg.ArchiveFolders,
		})
		if err != nil {
			return nil, err
		}
		return box, nil
	default:
		return nil, fmt.Errorf("unknown mailbox kind %q", cfg.Kind)
	}
}

// buildDeps wires the session store, mailbox, agent and ledger. Mailbox
// and agent failures are logged and leave the component unset so the
// operations that need it report NOT_CONFIGURED.
func buildDeps(cfg *config.Config, baseDir string, database *sql.DB) *ops.Deps {
	deps := &ops.Deps{
		Store: session.New(session.Options{
			MaxCache:   cfg.MaxCache,
			MaxHistory: cfg.MaxHistory,
		}),
		DB: database,
	}

	box, err := openMailbox(cfg.Mailbox, baseDir)
	switch {
	case err != nil:
		slog.Warn("mailbox unavailable", "kind", cfg.Mailbox.Kind, "error", err)
	case box != nil:
		deps.Mailbox = box
	}

	if len(cfg.AgentCommand) > 0 {
		cmd, err := agent.NewCommand(cfg.AgentCommand)
		if err != nil {
			slog.Warn("agent unavailable", "error", err)
		} else {
			deps.Agent = cmd
		}
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		slog.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		slog.Warn("unknown types in disabled_types", "types", unknown)
	}
	return deps
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any setup
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, "")
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".mull")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	deps := buildDeps(cfg, baseDir, database)

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(deps, cfg, baseDir)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'mull --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(deps, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

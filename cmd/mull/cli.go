package main

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/mull/internal/config"
	"github.com/hpungsan/mull/internal/credential"
	"github.com/hpungsan/mull/internal/errors"
	"github.com/hpungsan/mull/internal/ops"
	"github.com/hpungsan/mull/internal/web"
)

// maxStdinBytes bounds piped input (message bodies, queries, passwords).
const maxStdinBytes = 1 << 20

// openCredentials opens the credential store; replaced in tests.
var openCredentials = credential.Open

// newCLIApp creates the CLI application with all commands.
func newCLIApp(deps *ops.Deps, cfg *config.Config, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "mull",
		Usage:   "Conversational front-end for your mailbox",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(deps),
			readCmd(deps),
			askCmd(deps),
			chatCmd(deps),
			contextCmd(deps),
			labelCmd(deps),
			archiveCmd(deps),
			sendCmd(deps),
			statsCmd(deps),
			loginCmd(cfg, baseDir),
			serveCmd(deps, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listCmd creates the list command.
func listCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List and digest messages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Provider search query"},
			&cli.StringFlag{Name: "label", Usage: "Only messages carrying this label"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum messages to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, deps, ops.ListInput{
				Query: c.String("query"),
				Label: c.String("label"),
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// readCmd creates the read command.
func readCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Show the full digest of a message",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Read(c.Context, deps, ops.ReadInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// askCmd creates the ask command.
func askCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask the agent a question (query from args or stdin)",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ids", Usage: "Comma-separated message ids to read into context first"},
		},
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			if query == "" && stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				query = text
			}

			if err := readInto(c.Context, deps, parseList(c.String("ids"))); err != nil {
				return outputError(err)
			}

			output, err := ops.Ask(c.Context, deps, ops.AskInput{Query: query})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// chatCmd creates the interactive chat command.
func chatCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk about your mail; one session across turns",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Load messages matching this query first"},
		},
		Action: func(c *cli.Context) error {
			if q := c.String("query"); q != "" {
				if _, err := ops.List(c.Context, deps, ops.ListInput{Query: q}); err != nil {
					return outputError(err)
				}
			}
			return runChat(c.Context, deps, os.Stdin, os.Stdout)
		},
	}
}

// contextCmd creates the context command.
func contextCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "context",
		Usage: "Render the context block for a fresh session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ids", Usage: "Comma-separated message ids to read first"},
			&cli.BoolFlag{Name: "raw", Usage: "Print the block only"},
		},
		Action: func(c *cli.Context) error {
			if err := readInto(c.Context, deps, parseList(c.String("ids"))); err != nil {
				return outputError(err)
			}
			output := ops.Context(deps)
			if c.Bool("raw") {
				_, err := fmt.Fprintln(os.Stdout, output.Context)
				return err
			}
			return outputJSON(output)
		},
	}
}

// labelCmd creates the label command.
func labelCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "label",
		Usage:     "Add or remove labels on a message",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "add", Aliases: []string{"a"}, Usage: "Comma-separated labels to add"},
			&cli.StringFlag{Name: "remove", Aliases: []string{"r"}, Usage: "Comma-separated labels to remove"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Label(c.Context, deps, ops.LabelInput{
				ID:     c.Args().First(),
				Add:    parseList(c.String("add")),
				Remove: parseList(c.String("remove")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// archiveCmd creates the archive command.
func archiveCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "archive",
		Usage:     "Move a message out of the inbox",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Archive(c.Context, deps, ops.ArchiveInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// sendCmd creates the send command.
func sendCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Send a message (reads the body from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Required: true, Usage: "Comma-separated recipients"},
			&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "Subject line"},
			&cli.StringFlag{Name: "in-reply-to", Usage: "Message-ID being answered"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("body must be piped via stdin"))
			}
			body, err := readStdin(maxStdinBytes)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			output, err := ops.Send(c.Context, deps, ops.SendInput{
				To:        parseList(c.String("to")),
				Subject:   c.String("subject"),
				Body:      body,
				InReplyTo: c.String("in-reply-to"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(deps *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Summarize the triage ledger",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "recent", Value: ops.DefaultRecent, Usage: "Recently read messages to include"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(c.Context, deps, ops.StatsInput{Recent: c.Int("recent")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

type loginOutput struct {
	Username string `json:"username"`
	Stored   bool   `json:"stored"`
}

// loginCmd creates the login command.
func loginCmd(cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Store the mailbox password in the keyring (reads it from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account name (defaults to mailbox.username)"},
		},
		Action: func(c *cli.Context) error {
			username := c.String("username")
			if username == "" && cfg != nil {
				username = cfg.Mailbox.Username
			}
			if username == "" {
				return outputError(errors.NewInvalidRequest("username is required"))
			}
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("password must be piped via stdin"))
			}
			password, err := readStdin(maxStdinBytes)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			if password == "" {
				return outputError(errors.NewInvalidRequest("password is required"))
			}

			store, err := openCredentials(baseDir)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := store.Set(credential.PasswordKey(username), password); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(loginOutput{Username: username, Stored: true})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(deps *ops.Deps, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (overrides http_bind)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (overrides http_port)"},
		},
		Action: func(c *cli.Context) error {
			serveCfg := *cfg
			if c.IsSet("bind") {
				serveCfg.HTTPBind = c.String("bind")
			}
			if c.IsSet("port") {
				serveCfg.HTTPPort = c.Int("port")
			}

			srv, err := web.NewServer(deps, &serveCfg, Version)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv)
		},
	}
}

// runChat reads lines from in until EOF or /quit. Slash commands manage
// the session; any other line is asked of the agent.
func runChat(ctx context.Context, deps *ops.Deps, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), ops.MaxQueryChars*4)

	fmt.Fprintln(out, "mull chat. /list [query], /read <id>, /context, /clear, /quit")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		var err error
		switch cmd {
		case "/quit", "/exit":
			return nil
		case "/list":
			var result *ops.ListOutput
			result, err = ops.List(ctx, deps, ops.ListInput{Query: arg})
			if err == nil {
				for _, d := range result.Items {
					fmt.Fprintf(out, "[%s] %s - %s (%s)\n", d.ID, d.Subject, d.From, d.Type)
				}
				if result.Count == 0 {
					fmt.Fprintln(out, "no messages")
				}
			}
		case "/read":
			var d any
			d, err = ops.Read(ctx, deps, ops.ReadInput{ID: arg})
			if err == nil {
				err = writeJSON(out, d)
			}
		case "/context":
			fmt.Fprintln(out, ops.Context(deps).Context)
		case "/clear":
			ops.Clear(deps)
			fmt.Fprintln(out, "cleared")
		default:
			var result *ops.AskOutput
			result, err = ops.Ask(ctx, deps, ops.AskInput{Query: line})
			if err == nil {
				fmt.Fprintln(out, result.Reply)
				for _, ir := range result.Interrupts {
					fmt.Fprintf(out, "(agent requested %s)\n", ir.Kind)
				}
			}
		}
		if err != nil {
			fmt.Fprintf(out, "error: %s\n", errorText(err))
		}
	}
}

// readInto reads each id so its digest is cached and active.
func readInto(ctx context.Context, deps *ops.Deps, ids []string) error {
	for _, id := range ids {
		if _, err := ops.Read(ctx, deps, ops.ReadInput{ID: id}); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	return cli.Exit(errorText(err), 1)
}

func errorText(err error) string {
	var mErr *errors.MullError
	if stderrors.As(err, &mErr) {
		return fmt.Sprintf("[%s] %s", mErr.Code, mErr.Message)
	}
	return err.Error()
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("input exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseList splits a comma-separated string into its non-empty items.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		item := strings.TrimSpace(p)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

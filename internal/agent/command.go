package agent

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/hpungsan/mull/internal/errors"
)

// DefaultTimeout bounds a single agent invocation.
const DefaultTimeout = 2 * time.Minute

const maxStderrChars = 500

// Command runs an external program per prompt. The prompt is written to
// stdin and stdout is parsed with ParseReply.
type Command struct {
	Argv    []string
	Timeout time.Duration
}

// NewCommand returns a Command agent, or a not-configured error when argv
// is empty.
func NewCommand(argv []string) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.NewNotConfigured("agent command")
	}
	return &Command{Argv: argv, Timeout: DefaultTimeout}, nil
}

// Respond runs the command once.
func (c *Command) Respond(ctx context.Context, prompt string) (Reply, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	slog.Debug("agent command finished",
		"command", c.Argv[0],
		"duration", time.Since(start),
		"stdout_bytes", stdout.Len(),
	)
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if r := []rune(msg); len(r) > maxStderrChars {
			msg = string(r[:maxStderrChars])
		}
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return Reply{}, errors.NewAgentFailed(err)
	}

	return ParseReply(stdout.String()), nil
}

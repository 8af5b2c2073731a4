// Package ops implements the user-facing operations shared by the CLI,
// the MCP server and the web transport.
package ops

import (
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/mull/internal/agent"
	"github.com/hpungsan/mull/internal/errors"
	"github.com/hpungsan/mull/internal/mailbox"
	"github.com/hpungsan/mull/internal/session"
)

// Limits on caller-supplied input.
const (
	MaxQueryChars   = 8000
	MaxIDsPerCall   = 50
	MaxLabelsPerOp  = 20
	MaxRecipients   = 50
	DefaultRecent   = 10
	MaxRecentLedger = 100
)

// Deps are the collaborators an operation may need. Mailbox, Agent and DB
// are optional; operations that need a missing one fail with
// NOT_CONFIGURED.
type Deps struct {
	Store   *session.Store
	Mailbox mailbox.Provider
	Agent   agent.Agent
	DB      *sql.DB

	// Now overrides the clock used for ledger timestamps.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) requireMailbox() error {
	if d.Mailbox == nil {
		return errors.NewNotConfigured("mailbox")
	}
	return nil
}

// normalizeIDs trims, drops empties and validates the count.
func normalizeIDs(ids []string) ([]string, error) {
	if len(ids) > MaxIDsPerCall {
		return nil, errors.NewInvalidRequest("too many ids (max 50)")
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

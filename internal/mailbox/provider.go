// Package mailbox talks to the user's mail store. Providers return raw
// messages in the shape the digest pipeline consumes and carry out the
// label, archive and send actions requested through the front-end.
package mailbox

import (
	"context"

	"github.com/hpungsan/mull/internal/digest"
)

// DefaultListLimit is used when ListOptions.Limit is not positive.
const DefaultListLimit = 20

// MaxListLimit caps a single list call.
const MaxListLimit = 100

// InboxLabel is reported for every message that has not been archived.
const InboxLabel = "INBOX"

// ListOptions filters a List call.
type ListOptions struct {
	// Query is a case-insensitive substring matched against sender,
	// subject and body.
	Query string
	// Label restricts results to messages carrying the label.
	Label string
	// Limit is the maximum number of messages returned, newest first.
	Limit int
}

// Outgoing is a message to send.
type Outgoing struct {
	From      string
	To        []string
	Subject   string
	Body      string
	InReplyTo string
}

// Provider is a mail store.
type Provider interface {
	List(ctx context.Context, opts ListOptions) ([]digest.RawMessage, error)
	Fetch(ctx context.Context, id string) (digest.RawMessage, error)
	Send(ctx context.Context, msg Outgoing) (string, error)
	Label(ctx context.Context, id string, add, remove []string) error
	Archive(ctx context.Context, id string) error
}

// NormalizeLimit clamps a requested list size into [1, MaxListLimit].
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

package ops

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hpungsan/mull/internal/db"
	"github.com/hpungsan/mull/internal/digest"
	"github.com/hpungsan/mull/internal/errors"
	"github.com/hpungsan/mull/internal/mailbox"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Query string
	Label string
	Limit int
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []digest.Digest `json:"items"`
	Count int             `json:"count"`
}

// List fetches messages, digests and caches each one, and makes the
// listed messages the active set.
func List(ctx context.Context, deps *Deps, input ListInput) (*ListOutput, error) {
	if err := deps.requireMailbox(); err != nil {
		return nil, err
	}

	msgs, err := deps.Mailbox.List(ctx, mailbox.ListOptions{
		Query: strings.TrimSpace(input.Query),
		Label: strings.TrimSpace(input.Label),
		Limit: mailbox.NormalizeLimit(input.Limit),
	})
	if err != nil {
		return nil, err
	}

	items := make([]digest.Digest, 0, len(msgs))
	ids := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		d := digest.Build(msg)
		deps.Store.CacheDigest(d.ID, d)
		cached, _ := deps.Store.CachedDigest(d.ID)
		items = append(items, cached)
		ids = append(ids, d.ID)
	}
	deps.Store.SetActive(ids)

	slog.Debug("listed messages", "count", len(items), "query", input.Query, "label", input.Label)
	return &ListOutput{Items: items, Count: len(items)}, nil
}

// ReadInput contains parameters for the Read operation.
type ReadInput struct {
	ID string
	// UseCache serves a cached digest instead of re-fetching.
	UseCache bool
}

// Read returns the full digest of one message, caches it and adds it to
// the active set. The read is recorded in the triage ledger when one is
// configured.
func Read(ctx context.Context, deps *Deps, input ReadInput) (*digest.Digest, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}

	if input.UseCache {
		if d, ok := deps.Store.CachedDigest(id); ok {
			deps.Store.AddActive([]string{id})
			return &d, nil
		}
	}

	if err := deps.requireMailbox(); err != nil {
		return nil, err
	}
	msg, err := deps.Mailbox.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	d := digest.Build(msg)
	deps.Store.CacheDigest(id, d)
	deps.Store.AddActive([]string{id})
	d, _ = deps.Store.CachedDigest(id)

	if deps.DB != nil {
		row := db.TriageFromDigest(d, deps.Store.ID(), deps.now().Unix())
		if err := db.RecordTriage(ctx, deps.DB, row); err != nil {
			slog.Warn("failed to record triage", "id", id, "error", err)
		}
	}

	return &d, nil
}

// LabelInput contains parameters for the Label operation.
type LabelInput struct {
	ID     string
	Add    []string
	Remove []string
}

// LabelOutput contains the result of the Label operation.
type LabelOutput struct {
	ID      string   `json:"id"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Label adds and removes labels on a message.
func Label(ctx context.Context, deps *Deps, input LabelInput) (*LabelOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	add := cleanLabels(input.Add)
	remove := cleanLabels(input.Remove)
	if len(add) == 0 && len(remove) == 0 {
		return nil, errors.NewInvalidRequest("add or remove is required")
	}
	if len(add) > MaxLabelsPerOp || len(remove) > MaxLabelsPerOp {
		return nil, errors.NewInvalidRequest("too many labels (max 20)")
	}
	if err := deps.requireMailbox(); err != nil {
		return nil, err
	}

	if err := deps.Mailbox.Label(ctx, id, add, remove); err != nil {
		return nil, err
	}
	return &LabelOutput{ID: id, Added: add, Removed: remove}, nil
}

// ArchiveInput contains parameters for the Archive operation.
type ArchiveInput struct {
	ID string
}

// ArchiveOutput contains the result of the Archive operation.
type ArchiveOutput struct {
	ID       string `json:"id"`
	Archived bool   `json:"archived"`
}

// Archive moves a message out of the inbox.
func Archive(ctx context.Context, deps *Deps, input ArchiveInput) (*ArchiveOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	if err := deps.requireMailbox(); err != nil {
		return nil, err
	}

	if err := deps.Mailbox.Archive(ctx, id); err != nil {
		return nil, err
	}
	return &ArchiveOutput{ID: id, Archived: true}, nil
}

// SendInput contains parameters for the Send operation.
type SendInput struct {
	To        []string
	Subject   string
	Body      string
	InReplyTo string
}

// SendOutput contains the result of the Send operation.
type SendOutput struct {
	MessageID string `json:"message_id"`
}

// Send delivers a new message or a reply.
func Send(ctx context.Context, deps *Deps, input SendInput) (*SendOutput, error) {
	to := cleanLabels(input.To)
	if len(to) == 0 {
		return nil, errors.NewInvalidRequest("to is required")
	}
	if len(to) > MaxRecipients {
		return nil, errors.NewInvalidRequest("too many recipients (max 50)")
	}
	if strings.TrimSpace(input.Subject) == "" && strings.TrimSpace(input.Body) == "" {
		return nil, errors.NewInvalidRequest("subject or body is required")
	}
	if err := deps.requireMailbox(); err != nil {
		return nil, err
	}

	id, err := deps.Mailbox.Send(ctx, mailbox.Outgoing{
		To:        to,
		Subject:   input.Subject,
		Body:      input.Body,
		InReplyTo: strings.TrimSpace(input.InReplyTo),
	})
	if err != nil {
		return nil, err
	}
	return &SendOutput{MessageID: id}, nil
}

// cleanLabels trims entries and drops empties and duplicates.
func cleanLabels(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

package mailbox

import (
	"context"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/mull/internal/digest"
	"github.com/hpungsan/mull/internal/errors"
)

const (
	emlExt      = ".eml"
	labelsFile  = "labels.json"
	archiveDir  = "archive"
	sentDir     = "sent"
	archivedTag = "ARCHIVED"
)

// Dir is a mailbox backed by a directory of .eml files. The file stem is
// the message id. Labels live in a labels.json sidecar, archived messages
// are moved into archive/ and sent messages are written to sent/.
type Dir struct {
	root string
	now  func() time.Time

	mu sync.Mutex // guards labels.json and file moves
}

// NewDir opens (creating if needed) a directory mailbox.
func NewDir(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.NewNotConfigured("mailbox dir")
	}
	for _, sub := range []string{"", archiveDir, sentDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0700); err != nil {
			return nil, fmt.Errorf("creating mailbox dir: %w", err)
		}
	}
	return &Dir{root: root, now: time.Now}, nil
}

// Root returns the directory the mailbox lives in.
func (d *Dir) Root() string {
	return d.root
}

// List returns inbox messages, newest first.
func (d *Dir) List(ctx context.Context, opts ListOptions) ([]digest.RawMessage, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, errors.NewMailboxUnavailable("list", err)
	}

	d.mu.Lock()
	labels, err := d.loadLabels()
	d.mu.Unlock()
	if err != nil {
		return nil, errors.NewMailboxUnavailable("list", err)
	}

	query := strings.ToLower(strings.TrimSpace(opts.Query))
	var msgs []digest.RawMessage
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || filepath.Ext(e.Name()) != emlExt {
			continue
		}
		id := strings.TrimSuffix(e.Name(), emlExt)
		msg, err := d.read(filepath.Join(d.root, e.Name()), id)
		if err != nil {
			slog.Warn("skipping unreadable message", "id", id, "error", err)
			continue
		}
		msg.LabelIDs = append([]string{InboxLabel}, labels[id]...)

		if opts.Label != "" && !slices.Contains(msg.LabelIDs, opts.Label) {
			continue
		}
		if query != "" && !matchesQuery(msg, query) {
			continue
		}
		msgs = append(msgs, msg)
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].InternalDate != msgs[j].InternalDate {
			return msgs[i].InternalDate > msgs[j].InternalDate
		}
		return msgs[i].ID < msgs[j].ID
	})

	if limit := NormalizeLimit(opts.Limit); len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// Fetch returns one message from the inbox or the archive.
func (d *Dir) Fetch(ctx context.Context, id string) (digest.RawMessage, error) {
	if err := validID(id); err != nil {
		return digest.RawMessage{}, err
	}
	if err := ctx.Err(); err != nil {
		return digest.RawMessage{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	labels, err := d.loadLabels()
	if err != nil {
		return digest.RawMessage{}, errors.NewMailboxUnavailable("fetch", err)
	}

	path := filepath.Join(d.root, id+emlExt)
	base := []string{InboxLabel}
	if _, err := os.Stat(path); stderrors.Is(err, os.ErrNotExist) {
		path = filepath.Join(d.root, archiveDir, id+emlExt)
		base = []string{archivedTag}
	}

	msg, err := d.read(path, id)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return digest.RawMessage{}, errors.NewNotFound(id)
		}
		return digest.RawMessage{}, errors.NewMailboxUnavailable("fetch", err)
	}
	msg.LabelIDs = append(base, labels[id]...)
	return msg, nil
}

// Send writes the composed message into sent/ and returns its id.
func (d *Dir) Send(ctx context.Context, out Outgoing) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	now := d.now()
	raw, _, err := Compose(out, now)
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}

	entropy := ulid.Monotonic(rand.Reader, 0)
	id := strings.ToLower(ulid.MustNew(ulid.Timestamp(now), entropy).String())
	path := filepath.Join(d.root, sentDir, id+emlExt)
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return "", errors.NewMailboxUnavailable("send", err)
	}
	return id, nil
}

// Label adds and removes user labels on a message.
func (d *Dir) Label(ctx context.Context, id string, add, remove []string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.exists(id) {
		return errors.NewNotFound(id)
	}

	labels, err := d.loadLabels()
	if err != nil {
		return errors.NewMailboxUnavailable("label", err)
	}

	current := labels[id]
	for _, l := range add {
		l = strings.TrimSpace(l)
		if l != "" && !slices.Contains(current, l) {
			current = append(current, l)
		}
	}
	current = slices.DeleteFunc(current, func(l string) bool {
		return slices.Contains(remove, l)
	})
	if len(current) == 0 {
		delete(labels, id)
	} else {
		labels[id] = current
	}

	if err := d.saveLabels(labels); err != nil {
		return errors.NewMailboxUnavailable("label", err)
	}
	return nil
}

// Archive moves a message out of the inbox.
func (d *Dir) Archive(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	src := filepath.Join(d.root, id+emlExt)
	dst := filepath.Join(d.root, archiveDir, id+emlExt)
	if err := os.Rename(src, dst); err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return errors.NewNotFound(id)
		}
		return errors.NewMailboxUnavailable("archive", err)
	}
	return nil
}

func (d *Dir) read(path, id string) (digest.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return digest.RawMessage{}, err
	}
	msg, err := ParseMessage(id, raw)
	if err != nil {
		return digest.RawMessage{}, err
	}
	if msg.InternalDate == 0 {
		if info, err := os.Stat(path); err == nil {
			msg.InternalDate = info.ModTime().UnixMilli()
		}
	}
	return msg, nil
}

func (d *Dir) exists(id string) bool {
	for _, p := range []string{
		filepath.Join(d.root, id+emlExt),
		filepath.Join(d.root, archiveDir, id+emlExt),
	} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// loadLabels reads the sidecar. Caller holds d.mu.
func (d *Dir) loadLabels() (map[string][]string, error) {
	labels := map[string][]string{}
	data, err := os.ReadFile(filepath.Join(d.root, labelsFile))
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return labels, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", labelsFile, err)
	}
	return labels, nil
}

// saveLabels writes the sidecar atomically. Caller holds d.mu.
func (d *Dir) saveLabels(labels map[string][]string) error {
	data, err := json.MarshalIndent(labels, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(d.root, labelsFile+".tmp")
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(d.root, labelsFile))
}

func matchesQuery(msg digest.RawMessage, query string) bool {
	for _, field := range []string{msg.Headers.From, msg.Headers.Subject, msg.Body} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// validID rejects ids that could escape the mailbox directory.
func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewInvalidRequest("id is required")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid message id: %q", id))
	}
	return nil
}

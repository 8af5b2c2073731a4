package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/hpungsan/mull/internal/digest"
	"github.com/hpungsan/mull/internal/errors"
)

// DefaultArchiveFolders are tried in order when no archive folders are
// configured.
var DefaultArchiveFolders = []string{
	"Archive", "[Gmail]/All Mail", "Archives", "INBOX.Archive",
}

// IMAPConfig holds connection settings for IMAP and the SMTP relay.
type IMAPConfig struct {
	IMAPHost       string
	IMAPPort       string
	SMTPHost       string
	SMTPPort       string
	Username       string
	Password       string
	TLS            bool
	Folder         string
	ArchiveFolders []string
}

// IMAP is a mailbox on an IMAP server. Message ids are UIDs within the
// configured folder. Every call opens its own connection.
type IMAP struct {
	cfg IMAPConfig
}

// NewIMAP validates the settings and returns a provider.
func NewIMAP(cfg IMAPConfig) (*IMAP, error) {
	if cfg.IMAPHost == "" || cfg.Username == "" {
		return nil, errors.NewNotConfigured("imap mailbox")
	}
	if cfg.IMAPPort == "" {
		cfg.IMAPPort = "993"
	}
	if cfg.SMTPPort == "" {
		cfg.SMTPPort = "587"
	}
	if cfg.Folder == "" {
		cfg.Folder = InboxLabel
	}
	if len(cfg.ArchiveFolders) == 0 {
		cfg.ArchiveFolders = DefaultArchiveFolders
	}
	return &IMAP{cfg: cfg}, nil
}

// connect dials, authenticates and selects the configured folder. The
// caller must log out the returned client.
func (m *IMAP) connect(ctx context.Context, op string) (*imapclient.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	addr := m.cfg.IMAPHost + ":" + m.cfg.IMAPPort

	var client *imapclient.Client
	var err error
	if m.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, errors.NewMailboxUnavailable(op, fmt.Errorf("connecting to IMAP %s: %w", addr, err))
	}

	if err := client.Login(m.cfg.Username, m.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, errors.NewMailboxUnavailable(op, fmt.Errorf("authentication failed for %s: %w", m.cfg.Username, err))
	}

	if _, err := client.Select(m.cfg.Folder, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, errors.NewMailboxUnavailable(op, fmt.Errorf("selecting %s: %w", m.cfg.Folder, err))
	}
	return client, nil
}

// List searches the folder and fetches the newest matching messages.
func (m *IMAP) List(ctx context.Context, opts ListOptions) ([]digest.RawMessage, error) {
	client, err := m.connect(ctx, "list")
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	criteria := &imap.SearchCriteria{}
	if q := strings.TrimSpace(opts.Query); q != "" {
		criteria.Text = []string{q}
	}
	if opts.Label != "" && opts.Label != InboxLabel {
		criteria.Flag = []imap.Flag{imap.Flag(opts.Label)}
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, errors.NewMailboxUnavailable("list", fmt.Errorf("searching messages: %w", err))
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if limit := NormalizeLimit(opts.Limit); len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	msgs, err := m.fetch(client, imap.UIDSetNum(uids...))
	if err != nil {
		return msgs, errors.NewMailboxUnavailable("list", err)
	}

	slices.SortStableFunc(msgs, func(a, b digest.RawMessage) int {
		switch {
		case a.InternalDate > b.InternalDate:
			return -1
		case a.InternalDate < b.InternalDate:
			return 1
		}
		return 0
	})
	return msgs, nil
}

// Fetch returns a single message by UID.
func (m *IMAP) Fetch(ctx context.Context, id string) (digest.RawMessage, error) {
	uid, err := parseUID(id)
	if err != nil {
		return digest.RawMessage{}, err
	}

	client, err := m.connect(ctx, "fetch")
	if err != nil {
		return digest.RawMessage{}, err
	}
	defer func() { _ = client.Logout().Wait() }()

	msgs, err := m.fetch(client, imap.UIDSetNum(uid))
	if err != nil {
		return digest.RawMessage{}, errors.NewMailboxUnavailable("fetch", err)
	}
	if len(msgs) == 0 {
		return digest.RawMessage{}, errors.NewNotFound(id)
	}
	return msgs[0], nil
}

func (m *IMAP) fetch(client *imapclient.Client, set imap.UIDSet) ([]digest.RawMessage, error) {
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Flags:        true,
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(set, fetchOpts)
	defer fetchCmd.Close()

	var msgs []digest.RawMessage
	for {
		fm := fetchCmd.Next()
		if fm == nil {
			break
		}
		buf, err := fm.Collect()
		if err != nil {
			slog.Warn("skipping message", "error", err)
			continue
		}

		id := strconv.FormatUint(uint64(buf.UID), 10)
		msg, err := ParseMessage(id, buf.FindBodySection(bodySection))
		if err != nil {
			slog.Warn("skipping unparsable message", "id", id, "error", err)
			continue
		}
		if msg.InternalDate == 0 && !buf.InternalDate.IsZero() {
			msg.InternalDate = buf.InternalDate.UnixMilli()
		}
		msg.LabelIDs = []string{m.cfg.Folder}
		for _, f := range buf.Flags {
			msg.LabelIDs = append(msg.LabelIDs, string(f))
		}
		msgs = append(msgs, msg)
	}

	if err := fetchCmd.Close(); err != nil {
		return msgs, fmt.Errorf("fetching messages: %w", err)
	}
	return msgs, nil
}

// Label maps labels onto IMAP keywords.
func (m *IMAP) Label(ctx context.Context, id string, add, remove []string) error {
	uid, err := parseUID(id)
	if err != nil {
		return err
	}

	client, err := m.connect(ctx, "label")
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	set := imap.UIDSetNum(uid)
	for _, change := range []struct {
		op     imap.StoreFlagsOp
		labels []string
	}{
		{imap.StoreFlagsAdd, add},
		{imap.StoreFlagsDel, remove},
	} {
		if len(change.labels) == 0 {
			continue
		}
		flags := make([]imap.Flag, 0, len(change.labels))
		for _, l := range change.labels {
			flags = append(flags, imap.Flag(l))
		}
		storeCmd := client.Store(set, &imap.StoreFlags{
			Op:     change.op,
			Silent: true,
			Flags:  flags,
		}, nil)
		if err := storeCmd.Close(); err != nil {
			return errors.NewMailboxUnavailable("label", err)
		}
	}
	return nil
}

// Archive moves the message to the first archive folder the server
// accepts, falling back to flagging it deleted.
func (m *IMAP) Archive(ctx context.Context, id string) error {
	uid, err := parseUID(id)
	if err != nil {
		return err
	}

	client, err := m.connect(ctx, "archive")
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	set := imap.UIDSetNum(uid)
	for _, folder := range m.cfg.ArchiveFolders {
		if _, err := client.Move(set, folder).Wait(); err == nil {
			return nil
		}
	}

	slog.Debug("no archive folder accepted move, flagging deleted", "id", id)
	storeCmd := client.Store(set, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return errors.NewMailboxUnavailable("archive", err)
	}
	return nil
}

// Send relays the message through the configured SMTP server.
func (m *IMAP) Send(ctx context.Context, out Outgoing) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.cfg.SMTPHost == "" {
		return "", errors.NewNotConfigured("smtp relay")
	}
	if out.From == "" {
		out.From = m.cfg.Username
	}
	raw, messageID, err := Compose(out, timeNow())
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}
	relay := smtpRelay{
		host:     m.cfg.SMTPHost,
		port:     m.cfg.SMTPPort,
		username: m.cfg.Username,
		password: m.cfg.Password,
		tls:      m.cfg.TLS,
	}
	if err := relay.send(out.From, out.To, raw); err != nil {
		return "", errors.NewMailboxUnavailable("send", err)
	}
	return messageID, nil
}

func parseUID(id string) (imap.UID, error) {
	uid, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
	if err != nil || uid == 0 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid message id: %q", id))
	}
	return imap.UID(uid), nil
}

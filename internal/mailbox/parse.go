package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/hpungsan/mull/internal/digest"
)

// SnippetChars is the length of the snippet derived from the body.
const SnippetChars = 200

// ParseMessage parses an RFC 5322 message into a RawMessage.
// The text/plain part is preferred; an HTML-only message is converted to
// markdown so the cleaner sees plain text.
func ParseMessage(id string, raw []byte) (digest.RawMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return digest.RawMessage{}, fmt.Errorf("parsing message %s: %w", id, err)
	}
	defer mr.Close()

	h := mr.Header
	msg := digest.RawMessage{ID: id}

	msg.Headers.From = formatAddresses(h, "From")
	msg.Headers.To = formatAddresses(h, "To")
	if subject, err := h.Subject(); err == nil {
		msg.Headers.Subject = subject
	} else {
		msg.Headers.Subject = h.Get("Subject")
	}
	if date, err := h.Date(); err == nil && !date.IsZero() {
		msg.Headers.Date = date.Format(time.RFC1123Z)
		msg.InternalDate = date.UnixMilli()
	} else {
		msg.Headers.Date = h.Get("Date")
	}
	msg.ThreadID = threadID(h)

	var text, html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := inline.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case text == "" && (contentType == "" || strings.HasPrefix(contentType, "text/plain")):
			text = string(body)
		case html == "" && strings.HasPrefix(contentType, "text/html"):
			html = string(body)
		}
	}

	if text == "" && html != "" {
		text = htmlToText(html)
	}
	msg.Body = text
	msg.Snippet = snippet(text)

	return msg, nil
}

func htmlToText(html string) string {
	converter := md.NewConverter("", true, nil)
	out, err := converter.ConvertString(html)
	if err != nil {
		return html
	}
	return out
}

func snippet(body string) string {
	flat := strings.Join(strings.Fields(body), " ")
	runes := []rune(flat)
	if len(runes) > SnippetChars {
		return string(runes[:SnippetChars])
	}
	return flat
}

func formatAddresses(h mail.Header, key string) string {
	list, err := h.AddressList(key)
	if err != nil || len(list) == 0 {
		return strings.TrimSpace(h.Get(key))
	}
	parts := make([]string, 0, len(list))
	for _, a := range list {
		if a.Name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.Name, a.Address))
		} else {
			parts = append(parts, a.Address)
		}
	}
	return strings.Join(parts, ", ")
}

// threadID is the conversation root: the first References id, else
// In-Reply-To, else the message's own Message-ID.
func threadID(h mail.Header) string {
	if refs, err := h.MsgIDList("References"); err == nil && len(refs) > 0 {
		return refs[0]
	}
	if parent, err := h.MsgIDList("In-Reply-To"); err == nil && len(parent) > 0 {
		return parent[0]
	}
	if id, err := h.MessageID(); err == nil {
		return id
	}
	return ""
}

// Compose renders an outgoing message as RFC 5322 bytes and returns its
// Message-ID.
func Compose(out Outgoing, now time.Time) ([]byte, string, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetSubject(out.Subject)
	if out.From != "" {
		from, err := mail.ParseAddress(out.From)
		if err != nil {
			return nil, "", fmt.Errorf("invalid from address %q: %w", out.From, err)
		}
		h.SetAddressList("From", []*mail.Address{from})
	}
	to := make([]*mail.Address, 0, len(out.To))
	for _, addr := range out.To {
		a, err := mail.ParseAddress(addr)
		if err != nil {
			return nil, "", fmt.Errorf("invalid recipient %q: %w", addr, err)
		}
		to = append(to, a)
	}
	h.SetAddressList("To", to)
	if out.InReplyTo != "" {
		parent := strings.Trim(out.InReplyTo, "<>")
		h.SetMsgIDList("In-Reply-To", []string{parent})
		h.SetMsgIDList("References", []string{parent})
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, "", fmt.Errorf("generating message id: %w", err)
	}
	messageID, _ := h.MessageID()
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, "", fmt.Errorf("composing message: %w", err)
	}
	if _, err := io.WriteString(w, out.Body); err != nil {
		return nil, "", fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing message: %w", err)
	}
	return buf.Bytes(), messageID, nil
}

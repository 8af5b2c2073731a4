package web

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/mull/internal/errors"
	"github.com/hpungsan/mull/internal/ops"
	"github.com/hpungsan/mull/internal/session"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	deps     *ops.Deps
	renderer *Renderer
}

// HandleInbox handles GET /emails: list messages and make them the
// active set.
func (h *Handlers) HandleInbox(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	label := r.URL.Query().Get("label")

	result, err := ops.List(r.Context(), h.deps, ops.ListInput{
		Query: query,
		Label: label,
		Limit: parseIntParam(r, "limit", 20),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "inbox", InboxPageData{
		PageData: PageData{
			Title:   "Inbox",
			Version: h.renderer.version,
			Nav:     "emails",
		},
		Items: result.Items,
		Query: query,
		Label: label,
	})
}

// HandleMessage handles GET /emails/{id}: show one digest.
func (h *Handlers) HandleMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("message ID is required"))
		return
	}

	d, err := ops.Read(r.Context(), h.deps, ops.ReadInput{
		ID:       id,
		UseCache: parseBoolParam(r, "cached"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "message", MessagePageData{
		PageData: PageData{
			Title:   d.Subject,
			Version: h.renderer.version,
			Nav:     "emails",
		},
		Digest: d,
	})
}

// HandleArchive handles POST /emails/{id}/archive.
func (h *Handlers) HandleArchive(w http.ResponseWriter, r *http.Request) {
	if _, err := ops.Archive(r.Context(), h.deps, ops.ArchiveInput{ID: r.PathValue("id")}); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/emails")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/emails", http.StatusFound)
}

// HandleChat handles GET /chat: the conversation and its context block.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	h.renderChat(w, r, nil)
}

// HandleAsk handles POST /chat: ask the agent and show the updated
// conversation.
func (h *Handlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := ops.Ask(r.Context(), h.deps, ops.AskInput{Query: r.FormValue("q")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderChat(w, r, result)
}

// HandleClear handles POST /chat/clear.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	ops.Clear(h.deps)
	http.Redirect(w, r, "/chat", http.StatusFound)
}

func (h *Handlers) renderChat(w http.ResponseWriter, r *http.Request, asked *ops.AskOutput) {
	history := h.deps.Store.History()
	turns := make([]ChatTurn, 0, len(history))
	for _, t := range history {
		turns = append(turns, ChatTurn{
			Role: string(t.Role),
			HTML: renderTurn(t),
			At:   t.Timestamp,
		})
	}

	data := ChatPageData{
		PageData: PageData{
			Title:   "Chat",
			Version: h.renderer.version,
			Nav:     "chat",
		},
		Turns:      turns,
		Context:    ops.Context(h.deps),
		AskEnabled: h.deps.Agent != nil,
	}
	if asked != nil {
		for _, in := range asked.Interrupts {
			data.Interrupts = append(data.Interrupts, in.Kind)
		}
	}
	h.renderer.renderPage(w, r, "chat", data)
}

// renderTurn renders agent replies as markdown; user text is escaped.
func renderTurn(t session.Turn) template.HTML {
	if t.Role == session.RoleAgent {
		return renderMarkdown(t.Content)
	}
	return template.HTML("<p>" + template.HTMLEscapeString(t.Content) + "</p>")
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := strings.ToLower(r.URL.Query().Get(name))
	return s == "true" || s == "1"
}

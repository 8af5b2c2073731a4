package web

import (
	"encoding/json"
	"net/http"

	"github.com/hpungsan/mull/internal/errors"
	"github.com/hpungsan/mull/internal/ops"
)

// maxAPIBody bounds JSON request bodies.
const maxAPIBody = 64 << 10

// APIListEmails handles GET /api/emails.
func (h *Handlers) APIListEmails(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(r.Context(), h.deps, ops.ListInput{
		Query: r.URL.Query().Get("q"),
		Label: r.URL.Query().Get("label"),
		Limit: parseIntParam(r, "limit", 20),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIReadEmail handles GET /api/emails/{id}.
func (h *Handlers) APIReadEmail(w http.ResponseWriter, r *http.Request) {
	d, err := ops.Read(r.Context(), h.deps, ops.ReadInput{
		ID:       r.PathValue("id"),
		UseCache: parseBoolParam(r, "cached"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, d)
}

// APIContext handles GET /api/context.
func (h *Handlers) APIContext(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.Context(h.deps))
}

type askRequest struct {
	Query string `json:"query"`
}

// APIAsk handles POST /api/ask.
func (h *Handlers) APIAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBody))
	if err := dec.Decode(&req); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	result, err := ops.Ask(r.Context(), h.deps, ops.AskInput{Query: req.Query})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIClear handles POST /api/clear.
func (h *Handlers) APIClear(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.Clear(h.deps))
}

// APIStats handles GET /api/stats.
func (h *Handlers) APIStats(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Stats(r.Context(), h.deps, ops.StatsInput{Recent: parseIntParam(r, "recent", 0)})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

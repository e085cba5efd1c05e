// internal/search/handler.go
//
// HTTP surface of the audit search form.
//
// Context
// -------
// Routes mounted by cmd/web:
//
//	GET /search                      – HTML form; bound when a query is present
//	GET /api/search                  – same validation, JSON in and out
//	GET /api/sub-agencies?agency=NN  – choices for the dependent select
//	GET /api/listings?agency=NN      – every listing under a prefix, by title
//	GET /api/listings/{number}       – one assistance listing as JSON
//
// Field errors are user errors: 400 with the form re-rendered and the raw
// values echoed.  Listing-store failures never produce a partial form; they
// answer 503 and are logged at error level.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/distiller/internal/form"
	"github.com/yanizio/distiller/internal/listing"
	"github.com/yanizio/distiller/internal/logger"
)

// ListingSource fetches programs.  *listing.Repository satisfies it.
type ListingSource interface {
	ForPrefix(ctx context.Context, prefix string) ([]listing.Record, error)
	ByProgramNumber(ctx context.Context, number string) (*listing.Record, error)
}

// Handler serves the search routes.
type Handler struct {
	validator *Validator
	listings  ListingSource
	now       func() time.Time
}

// NewHandler wires the routes to v and listings.  now defaults to time.Now.
func NewHandler(v *Validator, listings ListingSource, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{validator: v, listings: listings, now: now}
}

// Routes returns a router with every search route mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/search", h.page)
	r.Get("/api/search", h.apiSearch)
	r.Get("/api/sub-agencies", h.apiSubAgencies)
	r.Get("/api/listings", h.apiListings)
	r.Get("/api/listings/{programNumber}", h.apiListing)
	return r
}

//
// HTML
//

var pageTmpl = template.Must(template.New("search").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
  <h1>{{.Title}}</h1>
  {{if .Unavailable}}<p class="alert">Search is temporarily unavailable.  Please try again later.</p>
  {{else}}{{.Form}}
  {{with .Filter}}<section class="criteria">
    <h2>Search criteria</h2>
    <p><a href="?{{$.Query}}">Permalink</a></p>
  </section>{{end}}{{end}}
</body>
</html>`))

type pageData struct {
	Title       string
	Form        template.HTML
	Filter      *Filter
	Query       template.URL // already encoded, so the query part is not escaped again
	Unavailable bool
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		b   *Bound
		err error
	)
	if len(q) == 0 {
		b, err = h.validator.Unbound(ctx, h.now())
	} else {
		b, err = h.validator.Validate(ctx, q, h.now())
	}
	if err != nil {
		logger.FromContext(ctx).Errorw("search form unavailable", "err", err)
		h.renderPage(w, r, http.StatusServiceUnavailable, pageData{Title: "Search audits", Unavailable: true})
		return
	}

	markup, err := form.Render(b.Form, form.RenderOptions{Values: b.Raw, Errors: b.Errors, Submit: "Search"})
	if err != nil {
		logger.FromContext(ctx).Errorw("search form render failed", "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	data := pageData{Title: b.Form.Title, Form: markup}
	switch {
	case b.Valid():
		data.Filter = b.Filter
		data.Query = template.URL(b.Filter.Values().Encode())
	case len(q) > 0:
		status = http.StatusBadRequest
		logger.FromContext(ctx).Debugw("search rejected", "fields", b.Errors.Fields())
	}
	h.renderPage(w, r, status, data)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, data); err != nil {
		logger.FromContext(r.Context()).Errorw("search page render failed", "err", err)
	}
}

//
// JSON
//

func (h *Handler) apiSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := h.validator.Validate(ctx, r.URL.Query(), h.now())
	if err != nil {
		logger.FromContext(ctx).Errorw("search api unavailable", "err", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"error": ErrSearchUnavailable.Error()})
		return
	}
	if !b.Valid() {
		writeJSON(w, r, http.StatusBadRequest, map[string]any{"errors": b.Errors})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"filter": b.Filter})
}

func (h *Handler) apiSubAgencies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prefix := r.URL.Query().Get(FieldAgency)
	if !h.validator.catalog.Contains(prefix) {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": form.ChoiceMsg(prefix)})
		return
	}

	subs, err := h.validator.Resolver().Resolve(ctx, prefix)
	if err != nil {
		logger.FromContext(ctx).Errorw("sub-agency lookup failed", "agency", prefix, "err", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"error": ErrSearchUnavailable.Error()})
		return
	}
	names := []string{}
	for _, a := range h.validator.catalog.Lookup(prefix) {
		names = append(names, a.Name)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"agency":   subs.Prefix,
		"names":    names,
		"choices":  subs.Choices,
		"disabled": subs.Disabled,
	})
}

func (h *Handler) apiListings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prefix := r.URL.Query().Get(FieldAgency)
	if prefix == "" || !h.validator.catalog.Contains(prefix) {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": form.ChoiceMsg(prefix)})
		return
	}

	recs, err := h.listings.ForPrefix(ctx, prefix)
	if err != nil {
		logger.FromContext(ctx).Errorw("listing scan failed", "agency", prefix, "err", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"error": ErrSearchUnavailable.Error()})
		return
	}
	if recs == nil {
		recs = []listing.Record{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"agency": prefix, "listings": recs})
}

func (h *Handler) apiListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number := chi.URLParam(r, "programNumber")
	if !listing.ValidProgramNumber(number) {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "malformed program number"})
		return
	}

	rec, err := h.listings.ByProgramNumber(ctx, number)
	switch {
	case errors.Is(err, listing.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "not found"})
	case err != nil:
		logger.FromContext(ctx).Errorw("listing lookup failed", "program_number", number, "err", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"error": ErrSearchUnavailable.Error()})
	default:
		writeJSON(w, r, http.StatusOK, rec)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warnw("json encode failed", "err", err)
	}
}

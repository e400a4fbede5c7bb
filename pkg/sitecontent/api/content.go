package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/refenti-content/pkg/sitecontent"
	"github.com/tendant/refenti-content/pkg/sitecontent/listcache"
)

// Public reads

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	serveList(h, w, r, sitecontent.KindProjects, h.service.ListProjects)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	serveOne(h, w, r, h.service.GetProject)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	serveList(h, w, r, sitecontent.KindEvents, h.service.ListEvents)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	serveOne(h, w, r, h.service.GetEvent)
}

func (h *Handler) ListNews(w http.ResponseWriter, r *http.Request) {
	serveList(h, w, r, sitecontent.KindNews, h.service.ListNews)
}

func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	serveOne(h, w, r, h.service.GetNews)
}

// SubmitInquiry stores a contact form submission
func (h *Handler) SubmitInquiry(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.SubmitInquiryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, h.logger, badRequest("body", "Invalid JSON body"))
		return
	}

	inquiry, err := h.service.SubmitInquiry(r.Context(), req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Inquiry received", "inquiry_id", inquiry.ID, "type", inquiry.Type)
	renderData(w, r, http.StatusCreated, inquiry)
}

// Admin writes

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, sitecontent.KindProjects, h.service.CreateProject)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	update(h, w, r, sitecontent.KindProjects, h.service.UpdateProject, func(p *sitecontent.Project, id string) { p.ID = id })
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	lifecycleDelete(h, w, r, sitecontent.KindProjects, h.service.DeleteProject)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, sitecontent.KindEvents, h.service.CreateEvent)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	update(h, w, r, sitecontent.KindEvents, h.service.UpdateEvent, func(e *sitecontent.EventItem, id string) { e.ID = id })
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	lifecycleDelete(h, w, r, sitecontent.KindEvents, h.service.DeleteEvent)
}

// SetFeaturedRequest is the body of PUT /events/{id}/featured
type SetFeaturedRequest struct {
	Featured *bool `json:"isFeatured"`
}

func (h *Handler) SetEventFeatured(w http.ResponseWriter, r *http.Request) {
	var req SetFeaturedRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.Featured == nil {
		renderError(w, r, h.logger, badRequest("isFeatured", "isFeatured is required"))
		return
	}

	event, err := h.service.SetEventFeatured(r.Context(), chi.URLParam(r, "id"), *req.Featured)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.invalidate(r.Context(), sitecontent.KindEvents)
	renderData(w, r, http.StatusOK, event)
}

func (h *Handler) ToggleEventFeatured(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.ToggleEventFeatured(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.invalidate(r.Context(), sitecontent.KindEvents)
	renderData(w, r, http.StatusOK, event)
}

func (h *Handler) CreateNews(w http.ResponseWriter, r *http.Request) {
	create(h, w, r, sitecontent.KindNews, h.service.CreateNews)
}

func (h *Handler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	update(h, w, r, sitecontent.KindNews, h.service.UpdateNews, func(n *sitecontent.NewsItem, id string) { n.ID = id })
}

func (h *Handler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	lifecycleDelete(h, w, r, sitecontent.KindNews, h.service.DeleteNews)
}

func (h *Handler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	inquiries, err := h.service.ListInquiries(r.Context())
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	renderData(w, r, http.StatusOK, inquiries)
}

func (h *Handler) DeleteInquiry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteInquiry(r.Context(), id); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	renderData(w, r, http.StatusOK, map[string]string{"id": id})
}

// InvalidateCacheRequest names the kinds to drop; empty means all
type InvalidateCacheRequest struct {
	Kinds []string `json:"kinds"`
}

func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req InvalidateCacheRequest
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			renderError(w, r, h.logger, badRequest("body", "Invalid JSON body"))
			return
		}
	}

	kinds := make([]sitecontent.AssetKind, 0, len(req.Kinds))
	for _, raw := range req.Kinds {
		kind, err := sitecontent.ParseAssetKind(raw)
		if err != nil {
			renderError(w, r, h.logger, err)
			return
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		kinds = listcache.Kinds
	}

	if err := h.cache.Invalidate(r.Context(), kinds...); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	renderData(w, r, http.StatusOK, map[string]interface{}{"invalidated": kinds})
}

// invalidate drops the cached list of kind after a write. A failure leaves
// a stale list until the next invalidation, so it is only logged.
func (h *Handler) invalidate(ctx context.Context, kind sitecontent.AssetKind) {
	if err := h.cache.Invalidate(ctx, kind); err != nil {
		h.logger.Warn("Failed to invalidate list cache", "kind", kind, "error", err)
	}
}

func serveList[T any](h *Handler, w http.ResponseWriter, r *http.Request, kind sitecontent.AssetKind, fetch func(context.Context) ([]*T, error)) {
	items, err := listcache.Load(r.Context(), h.cache, h.logger, kind, fetch)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []*T{}
	}
	renderData(w, r, http.StatusOK, items)
}

func serveOne[T any](h *Handler, w http.ResponseWriter, r *http.Request, get func(context.Context, string) (*T, error)) {
	item, err := get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	renderData(w, r, http.StatusOK, item)
}

func create[T any](h *Handler, w http.ResponseWriter, r *http.Request, kind sitecontent.AssetKind, save func(context.Context, *T) (*T, error)) {
	record := new(T)
	if err := render.DecodeJSON(r.Body, record); err != nil {
		renderError(w, r, h.logger, badRequest("body", "Invalid JSON body"))
		return
	}

	created, err := save(r.Context(), record)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.invalidate(r.Context(), kind)
	renderData(w, r, http.StatusCreated, created)
}

func update[T any](h *Handler, w http.ResponseWriter, r *http.Request, kind sitecontent.AssetKind, save func(context.Context, *T) (*T, error), setID func(*T, string)) {
	record := new(T)
	if err := render.DecodeJSON(r.Body, record); err != nil {
		renderError(w, r, h.logger, badRequest("body", "Invalid JSON body"))
		return
	}
	setID(record, chi.URLParam(r, "id"))

	updated, err := save(r.Context(), record)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.invalidate(r.Context(), kind)
	renderData(w, r, http.StatusOK, updated)
}

func lifecycleDelete(h *Handler, w http.ResponseWriter, r *http.Request, kind sitecontent.AssetKind, del func(context.Context, string) (*sitecontent.DeleteReport, error)) {
	report, err := del(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.invalidate(r.Context(), kind)
	if len(report.Warnings) > 0 {
		h.logger.Warn("Deleted with asset cleanup warnings", "kind", kind, "id", report.ID,
			"warnings", strings.Join(report.WarningMessages(), "; "))
	}
	renderData(w, r, http.StatusOK, newDeleteResponse(report))
}

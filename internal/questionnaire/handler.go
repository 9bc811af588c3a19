package questionnaire

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"formlens/internal/app/apiresp"
	"formlens/internal/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type questionnaireRequest struct {
	Title        string `json:"title"`
	Thumb        string `json:"thumb"`
	Tags         string `json:"tags"`
	Summary      string `json:"summary"`
	Description  string `json:"description"`
	IsCollecting *bool  `json:"is_collecting"`
	IsPublic     *bool  `json:"is_public"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req questionnaireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	var authorID *int64
	if user, ok := auth.CurrentUser(r.Context()); ok {
		authorID = &user.ID
	}

	created, err := h.svc.Create(r.Context(), CreateInput{
		AuthorID:     authorID,
		Title:        req.Title,
		Thumb:        req.Thumb,
		Tags:         req.Tags,
		Summary:      req.Summary,
		Description:  req.Description,
		IsCollecting: req.IsCollecting,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, created)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), r.URL.Query().Get("tag"), r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, q)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid questionnaire id")
		return
	}

	var req questionnaireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.svc.Update(r.Context(), UpdateInput{
		ID:           id,
		Title:        req.Title,
		Thumb:        req.Thumb,
		Tags:         req.Tags,
		Summary:      req.Summary,
		Description:  req.Description,
		IsCollecting: req.IsCollecting,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid questionnaire id")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) ViewHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid questionnaire id")
		return
	}
	items, err := h.svc.ViewHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrTitleTaken):
		apiresp.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}

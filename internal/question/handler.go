package question

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"formlens/internal/app/apiresp"
	"formlens/internal/auth"
)

type Handler struct {
	svc questionService
}

type questionService interface {
	Create(ctx context.Context, in CreateQuestionInput) (*Question, error)
	Get(ctx context.Context, id int64) (*Question, error)
	ListByQuestionnaire(ctx context.Context, questionnaireID int64) ([]Question, error)
	Update(ctx context.Context, in UpdateQuestionInput) (*Question, error)
	Delete(ctx context.Context, id int64) error
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type questionRequest struct {
	Questionnaire int64           `json:"questionnaire"`
	Type          string          `json:"type"`
	Label         string          `json:"label"`
	Sequence      int             `json:"sequence"`
	Detail        json.RawMessage `json:"question_detail"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := ParseDetail(req.Type, req.Detail)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var createdBy *int64
	if user, ok := auth.CurrentUser(r.Context()); ok {
		createdBy = &user.ID
	}

	created, err := h.svc.Create(r.Context(), CreateQuestionInput{
		QuestionnaireID: req.Questionnaire,
		Type:            req.Type,
		Label:           req.Label,
		Sequence:        req.Sequence,
		Detail:          detail,
		CreatedBy:       createdBy,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, created)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid question id")
		return
	}
	q, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, q)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	questionnaireID, err := strconv.ParseInt(r.URL.Query().Get("questionnaire"), 10, 64)
	if err != nil || questionnaireID <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "questionnaire query parameter is required")
		return
	}
	items, err := h.svc.ListByQuestionnaire(r.Context(), questionnaireID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid question id")
		return
	}

	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := ParseDetail(req.Type, req.Detail)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var updatedBy *int64
	if user, ok := auth.CurrentUser(r.Context()); ok {
		updatedBy = &user.ID
	}

	updated, err := h.svc.Update(r.Context(), UpdateQuestionInput{
		ID:        id,
		Type:      req.Type,
		Label:     req.Label,
		Sequence:  req.Sequence,
		Detail:    detail,
		UpdatedBy: updatedBy,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid question id")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrQuestionNotFound), errors.Is(err, ErrQuestionnaireNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownType):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}

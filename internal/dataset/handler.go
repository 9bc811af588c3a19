package dataset

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"formlens/internal/app/apiresp"
	"formlens/internal/auth"
	"formlens/internal/question"
	"formlens/internal/questionnaire"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type answerEntry struct {
	QuestionKey string  `json:"question_key"`
	Value       *string `json:"value"`
}

type submitRequest struct {
	Questionnaire int64         `json:"questionnaire"`
	Answers       []answerEntry `json:"answers"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Questionnaire <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "questionnaire is required")
		return
	}

	entries := make([]NewAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		entries = append(entries, NewAnswer{QuestionKey: a.QuestionKey, Value: a.Value})
	}

	var answerBy *int64
	if user, ok := auth.CurrentUser(r.Context()); ok {
		answerBy = &user.ID
	}

	stored, err := h.svc.SubmitBatch(r.Context(), req.Questionnaire, entries, answerBy)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, stored)
}

func (h *Handler) UpdateValues(w http.ResponseWriter, r *http.Request) {
	var updates []ValueUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.svc.UpdateValues(r.Context(), updates)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, updated)
}

func (h *Handler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil || code < 1 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid batch code")
		return
	}
	questionnaireID, err := strconv.ParseInt(r.URL.Query().Get("questionnaire"), 10, 64)
	if err != nil || questionnaireID <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "questionnaire query parameter is required")
		return
	}
	if err := h.svc.DeleteBatch(r.Context(), questionnaireID, code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetDataset(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, view)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "slug query parameter is required")
		return
	}
	name, content, err := h.svc.ExportXLSX(r.Context(), slug)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(content)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, questionnaire.ErrNotFound), errors.Is(err, question.ErrQuestionNotFound), errors.Is(err, ErrAnswerNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotEnoughAnswers), errors.Is(err, ErrUnknownQuestion), errors.Is(err, ErrInvalidInput):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotCollecting):
		apiresp.WriteError(w, r, http.StatusConflict, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}

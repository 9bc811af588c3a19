package upload

import (
	"errors"
	"net/http"
	"strconv"

	"formlens/internal/app/apiresp"
	"formlens/internal/auth"
	"formlens/internal/dataset"
	"formlens/internal/question"
	"formlens/internal/questionnaire"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateQuestions(w http.ResponseWriter, r *http.Request) {
	questionnaireID, grid, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	created, err := h.svc.BuildSchemaFromSheet(r.Context(), questionnaireID, grid, actingUserID(r))
	if err != nil {
		writeImportError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, created)
}

func (h *Handler) CreateAnswers(w http.ResponseWriter, r *http.Request) {
	questionnaireID, grid, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	report, err := h.svc.ImportAnswersFromSheet(r.Context(), questionnaireID, grid, actingUserID(r))
	if err != nil {
		writeImportError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, report)
}

func (h *Handler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	questionnaireID, grid, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.svc.ImportDatasetFromSheet(r.Context(), questionnaireID, grid, actingUserID(r))
	if err != nil {
		writeImportError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, result)
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (int64, Grid, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid multipart form")
		return 0, Grid{}, false
	}

	questionnaireID, err := strconv.ParseInt(r.FormValue("questionnaire"), 10, 64)
	if err != nil || questionnaireID <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "questionnaire form field is required")
		return 0, Grid{}, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "file form field is required")
		return 0, Grid{}, false
	}
	defer func() { _ = file.Close() }()

	grid, err := ReadGrid(file)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "could not read workbook: "+err.Error())
		return 0, Grid{}, false
	}
	return questionnaireID, grid, true
}

func actingUserID(r *http.Request) *int64 {
	if user, ok := auth.CurrentUser(r.Context()); ok {
		return &user.ID
	}
	return nil
}

func writeImportError(w http.ResponseWriter, r *http.Request, err error) {
	var mismatch *StructuralMismatchError
	var column *ColumnError
	switch {
	case errors.As(err, &mismatch), errors.As(err, &column):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, dataset.ErrNotEnoughAnswers):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, questionnaire.ErrNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, question.ErrInvalidInput), errors.Is(err, question.ErrUnknownType):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}

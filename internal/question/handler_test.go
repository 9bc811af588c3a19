package question

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"formlens/internal/auth"
)

type mockQuestionService struct {
	createFn func(ctx context.Context, in CreateQuestionInput) (*Question, error)
	getFn    func(ctx context.Context, id int64) (*Question, error)
	listFn   func(ctx context.Context, questionnaireID int64) ([]Question, error)
	updateFn func(ctx context.Context, in UpdateQuestionInput) (*Question, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockQuestionService) Create(ctx context.Context, in CreateQuestionInput) (*Question, error) {
	if m.createFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.createFn(ctx, in)
}

func (m *mockQuestionService) Get(ctx context.Context, id int64) (*Question, error) {
	if m.getFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.getFn(ctx, id)
}

func (m *mockQuestionService) ListByQuestionnaire(ctx context.Context, questionnaireID int64) ([]Question, error) {
	if m.listFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listFn(ctx, questionnaireID)
}

func (m *mockQuestionService) Update(ctx context.Context, in UpdateQuestionInput) (*Question, error) {
	if m.updateFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.updateFn(ctx, in)
}

func (m *mockQuestionService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn == nil {
		return errors.New("not implemented")
	}
	return m.deleteFn(ctx, id)
}

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/questions", h.Create)
	r.Get("/questions", h.List)
	r.Get("/questions/{id}", h.Get)
	r.Put("/questions/{id}", h.Update)
	r.Delete("/questions/{id}", h.Delete)
	return r
}

func TestHandlerCreateQuestion(t *testing.T) {
	var gotInput CreateQuestionInput
	mock := &mockQuestionService{
		createFn: func(ctx context.Context, in CreateQuestionInput) (*Question, error) {
			gotInput = in
			q := Question{ID: 7, QuestionnaireID: in.QuestionnaireID, Type: in.Type, Label: in.Label, Sequence: in.Sequence, Detail: in.Detail}
			return &q, nil
		},
	}
	h := &Handler{svc: mock}

	body := `{"questionnaire":3,"type":"SelectType","label":"Favorite color","sequence":1,"question_detail":{"options":[{"value":"red"},{"value":"blue"}]}}`
	req := httptest.NewRequest(http.MethodPost, "/questions", bytes.NewBufferString(body))
	user := &auth.User{ID: 42, Username: "writer"}
	req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	w := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotInput.QuestionnaireID != 3 || gotInput.Type != TypeSelect || gotInput.Sequence != 1 {
		t.Fatalf("input = %+v", gotInput)
	}
	if gotInput.CreatedBy == nil || *gotInput.CreatedBy != 42 {
		t.Fatalf("created_by = %v, want 42", gotInput.CreatedBy)
	}
	detail, ok := gotInput.Detail.(SelectDetail)
	if !ok || len(detail.Options) != 2 {
		t.Fatalf("detail = %+v", gotInput.Detail)
	}

	var envelope struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil || !envelope.OK {
		t.Fatalf("response envelope = %s", w.Body.String())
	}
}

func TestHandlerCreateQuestionRejectsUnknownType(t *testing.T) {
	h := &Handler{svc: &mockQuestionService{}}

	body := `{"questionnaire":3,"type":"RatingType","label":"x","sequence":1}`
	req := httptest.NewRequest(http.MethodPost, "/questions", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandlerGetQuestionNotFound(t *testing.T) {
	h := &Handler{svc: &mockQuestionService{
		getFn: func(ctx context.Context, id int64) (*Question, error) {
			return nil, ErrQuestionNotFound
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/questions/99", nil)
	w := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandlerListRequiresQuestionnaireParam(t *testing.T) {
	h := &Handler{svc: &mockQuestionService{}}

	req := httptest.NewRequest(http.MethodGet, "/questions", nil)
	w := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandlerDeleteQuestion(t *testing.T) {
	var deleted int64
	h := &Handler{svc: &mockQuestionService{
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}}

	req := httptest.NewRequest(http.MethodDelete, "/questions/12", nil)
	w := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if deleted != 12 {
		t.Fatalf("deleted id = %d, want 12", deleted)
	}
}

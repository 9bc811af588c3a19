package app

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"formlens/internal/auth"
	"formlens/internal/dataset"
	"formlens/internal/question"
	"formlens/internal/questionnaire"
	"formlens/internal/upload"
)

func NewRouter(cfg Config, database *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	authSvc := auth.NewService(database, auth.ServiceConfig{
		SessionTTL: time.Duration(cfg.SessionTTLHours) * time.Hour,
	})
	authHandler := auth.NewHandler(authSvc)

	questionnaireSvc := questionnaire.NewService(database)
	questionnaireHandler := questionnaire.NewHandler(questionnaireSvc)

	questionSvc := question.NewService(database)
	questionHandler := question.NewHandler(questionSvc)

	datasetSvc := dataset.NewService(database, questionSvc, questionnaireSvc)
	datasetHandler := dataset.NewHandler(datasetSvc)

	uploadSvc := upload.NewService(questionSvc, questionnaireSvc, datasetSvc, upload.Thresholds{
		MeanFrequencyMax:      cfg.ClassifierMeanFrequencyMax,
		NearDuplicateRatioMin: cfg.ClassifierNearDuplicateMin,
		MeanSimilarityMin:     cfg.ClassifierMeanSimilarityMin,
		NearDuplicateEpsilon:  cfg.ClassifierNearDuplicateEpsilon,
	})
	uploadHandler := upload.NewHandler(uploadSvc)

	authLimiter := NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(CSRFMiddleware(cfg.CSRFEnforced))

		api.Group(func(pub chi.Router) {
			pub.Use(RateLimitMiddleware(authLimiter))
			pub.Post("/auth/register", authHandler.Register)
			pub.Post("/auth/login", authHandler.Login)
		})

		api.Get("/questionnaires", questionnaireHandler.List)
		api.Get("/questionnaires/{slug}", questionnaireHandler.GetBySlug)

		// Answer submission accepts anonymous respondents.
		api.With(authHandler.OptionalAuth).Post("/answers", datasetHandler.Submit)

		api.Get("/datasets/{slug}", datasetHandler.GetDataset)
		api.Get("/datasets/download", datasetHandler.Download)

		api.Group(func(secure chi.Router) {
			secure.Use(authHandler.RequireAuth)
			secure.Get("/auth/me", authHandler.Me)
			secure.Post("/auth/logout", authHandler.Logout)

			secure.Post("/questionnaires", questionnaireHandler.Create)
			secure.Put("/questionnaires/{id}", questionnaireHandler.Update)
			secure.Delete("/questionnaires/{id}", questionnaireHandler.Delete)
			secure.Get("/questionnaires/{id}/views", questionnaireHandler.ViewHistory)

			secure.Get("/questions", questionHandler.List)
			secure.Post("/questions", questionHandler.Create)
			secure.Get("/questions/{id}", questionHandler.Get)
			secure.Put("/questions/{id}", questionHandler.Update)
			secure.Delete("/questions/{id}", questionHandler.Delete)

			secure.Patch("/answers", datasetHandler.UpdateValues)
			secure.Delete("/answers/{code}", datasetHandler.DeleteBatch)

			secure.Post("/upload/question", uploadHandler.CreateQuestions)
			secure.Post("/upload/answer", uploadHandler.CreateAnswers)
			secure.Post("/upload/datasets", uploadHandler.CreateDataset)
		})
	})

	return r
}

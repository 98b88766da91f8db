package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"quiz-insights-service/internal/app"
	"quiz-insights-service/internal/domain"
)

// API serves the JSON endpoints of the quiz service.
type API struct {
	quizzes     *app.QuizService
	submissions *app.SubmissionService
	reports     app.ReportLoader
	logger      logrus.FieldLogger
}

type trendingQuiz struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedOn   time.Time `json:"createdOn"`
	Impressions int64     `json:"impressions"`
}

type questionsBody struct {
	Questions []app.QuestionDraft `json:"questions"`
}

type questionUpdatesBody struct {
	Questions []app.QuestionUpdate `json:"questions"`
}

func (a *API) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req app.SubmitRequest
	if !a.decode(w, r, &req) {
		return
	}
	req.UserID = subject(r)
	submission, err := a.submissions.Submit(r.Context(), req)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.JSON(w, r, submission)
}

func (a *API) QuizAnalysis(w http.ResponseWriter, r *http.Request) {
	report, err := a.reports.LoadReport(r.Context(), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.JSON(w, r, report)
}

func (a *API) Trending(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.quizzes.Trending(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	out := make([]trendingQuiz, len(quizzes))
	for i, q := range quizzes {
		out[i] = trendingQuiz{ID: q.ID, Name: q.Name, CreatedOn: q.CreatedOn, Impressions: q.Impressions}
	}
	render.JSON(w, r, map[string]any{"quizzes": out})
}

func (a *API) TotalImpressions(w http.ResponseWriter, r *http.Request) {
	total, err := a.quizzes.TotalImpressions(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.JSON(w, r, map[string]int64{"totalImpressions": total})
}

func (a *API) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.quizzes.GetQuiz(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.JSON(w, r, quiz)
}

func (a *API) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := a.quizzes.DeleteQuiz(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.quizzes.ListQuizzes(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.JSON(w, r, map[string]any{"quizzes": quizzes})
}

func (a *API) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var draft app.QuizDraft
	if !a.decode(w, r, &draft) {
		return
	}
	quiz, err := a.quizzes.CreateQuiz(r.Context(), chi.URLParam(r, "userId"), draft)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, quiz)
}

func (a *API) QuestionsInUserQuizzes(w http.ResponseWriter, r *http.Request) {
	questions, err := a.quizzes.QuestionsInUserQuizzes(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.JSON(w, r, map[string]any{"questions": questions})
}

func (a *API) RecordImpression(w http.ResponseWriter, r *http.Request) {
	impressions, err := a.quizzes.RecordImpression(r.Context(), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.JSON(w, r, map[string]int64{"impressions": impressions})
}

func (a *API) QuestionsByCreator(w http.ResponseWriter, r *http.Request) {
	questions, err := a.quizzes.QuestionsByCreator(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.JSON(w, r, map[string]any{"questions": questions})
}

func (a *API) AttachQuestions(w http.ResponseWriter, r *http.Request) {
	var body questionsBody
	if !a.decode(w, r, &body) {
		return
	}
	quiz, err := a.quizzes.AttachQuestions(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "quizId"), body.Questions)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, quiz)
}

func (a *API) QuizQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := a.quizzes.QuizQuestions(r.Context(), chi.URLParam(r, "quizId"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.JSON(w, r, map[string]any{"questions": questions})
}

func (a *API) UpdateQuizQuestions(w http.ResponseWriter, r *http.Request) {
	var body questionUpdatesBody
	if !a.decode(w, r, &body) {
		return
	}
	questions, err := a.quizzes.UpdateQuizQuestions(r.Context(), chi.URLParam(r, "quizId"), body.Questions)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	render.JSON(w, r, map[string]any{"questions": questions})
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		writeError(w, r, a.logger, fmt.Errorf("%w: decode body: %v", domain.ErrInvalidInput, err))
		return false
	}
	return true
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/sirupsen/logrus"

	"quiz-insights-service/internal/app"
)

// Services groups the use cases exposed over HTTP.
type Services struct {
	Quizzes     *app.QuizService
	Submissions *app.SubmissionService
	Reports     app.ReportLoader
	Feed        *app.Feed
}

// NewRouter wires every route. Routes that act on behalf of a user require a
// bearer token signed by auth; routes scoped to {userId} also require the
// token subject to be that user.
func NewRouter(services Services, auth *jwtauth.JWTAuth, logger logrus.FieldLogger) http.Handler {
	api := &API{quizzes: services.Quizzes, submissions: services.Submissions, reports: services.Reports, logger: logger}
	ws := NewWSHandler(services.Reports, services.Feed, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(logger), middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/quizzes", func(r chi.Router) {
		r.Get("/quiz-analysis/{quizId}", api.QuizAnalysis)
		r.Get("/quiz-analysis/{quizId}/live", ws.ServeWS)
		r.Get("/total-impressions/{userId}", api.TotalImpressions)
		r.Get("/quiz/{userId}/{quizId}/impression", api.RecordImpression)
		r.Get("/{id}", api.GetQuiz)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(auth), authenticate(logger))
			r.Post("/submit-quiz", api.SubmitQuiz)
			r.Delete("/{id}", api.DeleteQuiz)

			r.Route("/user/{userId}", func(r chi.Router) {
				r.Use(sameUser)
				r.Get("/trending", api.Trending)
				r.Get("/quizzes", api.ListQuizzes)
				r.Post("/quizzes", api.CreateQuiz)
				r.Get("/quizzes/question", api.QuestionsInUserQuizzes)
			})
		})
	})

	r.Route("/questions/user/{userId}", func(r chi.Router) {
		r.Use(jwtauth.Verifier(auth), authenticate(logger), sameUser)
		r.Get("/question", api.QuestionsByCreator)
		r.Post("/{quizId}/question", api.AttachQuestions)
		r.Get("/{quizId}/question", api.QuizQuestions)
		r.Put("/{quizId}/questions", api.UpdateQuizQuestions)
	})

	return r
}

// authenticate rejects requests whose token failed verification or carries no subject.
func authenticate(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil || token.Subject() == "" {
				logger.WithField("request_id", middleware.GetReqID(r.Context())).Debugf("unauthorized: %v", err)
				writeStatus(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sameUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "userId") != subject(r) {
			writeStatus(w, r, http.StatusForbidden, "token does not belong to this user")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// subject returns the user id of the verified bearer token.
func subject(r *http.Request) string {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return ""
	}
	return token.Subject()
}

func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			}).Info("request")
		})
	}
}

// NewTokenAuth returns the HS256 signer and verifier for bearer tokens.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// IssueToken signs a token whose subject is userID.
func IssueToken(auth *jwtauth.JWTAuth, userID string, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{"sub": userID}
	jwtauth.SetIssuedNow(claims)
	if ttl > 0 {
		jwtauth.SetExpiryIn(claims, ttl)
	}
	_, token, err := auth.Encode(claims)
	return token, err
}

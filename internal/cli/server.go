package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quiz-insights-service/internal/app"
	"quiz-insights-service/internal/config"
	"quiz-insights-service/internal/domain"
	"quiz-insights-service/internal/infra/memory"
	"quiz-insights-service/internal/infra/postgres"
	rediscache "quiz-insights-service/internal/infra/redis"
	"quiz-insights-service/internal/logging"
	transport "quiz-insights-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type stores struct {
	quizzes   app.QuizRepository
	questions app.QuestionRepository
	responses app.ResponseRepository
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret is empty; tokens are signed with an empty key")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var st stores
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		st = stores{
			quizzes:   postgres.NewQuizStore(pool),
			questions: postgres.NewQuestionStore(pool),
			responses: postgres.NewResponseStore(pool),
		}
	} else {
		logger.Info("postgres url not configured, using in-memory store")
		db := memory.NewDB()
		st = stores{
			quizzes:   memory.NewQuizStore(db),
			questions: memory.NewQuestionStore(db),
			responses: memory.NewResponseStore(db),
		}
	}

	analytics := app.NewAnalyticsService(st.quizzes, st.questions, st.responses, app.WithLogger(logger))
	cacheTTL := config.TTLDuration(cfg.Analytics.CacheTTL, time.Minute)
	var reports app.ReportCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		reports = rediscache.NewReportCache(redisClient, analytics, cacheTTL)
	} else {
		reports = memory.NewReportCache(analytics, cacheTTL)
	}

	feed := app.NewFeed()
	quizzes := app.NewQuizService(st.quizzes, st.questions, app.WithLogger(logger), app.WithReportCache(reports))
	submissions := app.NewSubmissionService(st.quizzes, st.questions, st.responses,
		app.WithLogger(logger), app.WithReportCache(reports), app.WithFeed(feed))

	if cfg.Postgres.URL == "" {
		seedDemo(ctx, quizzes, logger)
	}

	router := transport.NewRouter(transport.Services{
		Quizzes:     quizzes,
		Submissions: submissions,
		Reports:     reports,
		Feed:        feed,
	}, transport.NewTokenAuth(cfg.Auth.JWTSecret), logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Infof("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// demoUser owns the sample quizzes created when running without Postgres.
const demoUser = "00000000-0000-4000-8000-000000000001"

func seedDemo(ctx context.Context, quizzes *app.QuizService, logger logrus.FieldLogger) {
	correct := 2
	drafts := []app.QuizDraft{
		{
			Name: "Arithmetic warm-up",
			Type: domain.QuizTypeQnA,
			Questions: []app.QuestionDraft{{
				Prompt:        "What is 2 + 2?",
				Options:       []app.OptionDraft{{Text: "3"}, {Text: "4"}, {Text: "5"}},
				CorrectAnswer: &correct,
				Timer:         domain.Timer10,
			}},
		},
		{
			Name: "Favourite language",
			Type: domain.QuizTypePoll,
			Questions: []app.QuestionDraft{{
				Prompt:  "Which language do you reach for first?",
				Options: []app.OptionDraft{{Text: "Go"}, {Text: "Rust"}, {Text: "Python"}},
			}},
		},
	}
	for _, draft := range drafts {
		quiz, err := quizzes.CreateQuiz(ctx, demoUser, draft)
		if err != nil {
			logger.WithError(err).Warn("seed demo quiz")
			continue
		}
		logger.WithFields(logrus.Fields{"quiz_id": quiz.ID, "creator": demoUser}).Infof("seeded %q", quiz.Name)
	}
}

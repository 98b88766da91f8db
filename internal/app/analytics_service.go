package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"quiz-insights-service/internal/domain"
)

// AnalyticsService folds question counters and recorded responses into reports.
// It implements ReportLoader and is usually wrapped by a ReportCache.
type AnalyticsService struct {
	quizzes   QuizRepository
	questions QuestionRepository
	responses ResponseRepository
	opts      options
}

func NewAnalyticsService(quizzes QuizRepository, questions QuestionRepository, responses ResponseRepository, opts ...Option) *AnalyticsService {
	return &AnalyticsService{quizzes: quizzes, questions: questions, responses: responses, opts: buildOptions(opts)}
}

// LoadReport computes the analytics of a quiz. Q&A totals come from the live
// question counters; poll tallies are rebuilt from the recorded responses.
func (s *AnalyticsService) LoadReport(ctx context.Context, quizID string) (domain.AnalyticsReport, error) {
	if err := checkID("quiz id", quizID); err != nil {
		return domain.AnalyticsReport{}, err
	}
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return domain.AnalyticsReport{}, err
	}

	report := domain.AnalyticsReport{
		QuizID: quiz.ID,
		Analytics: domain.Analytics{
			PollResponses: map[string]domain.PollTally{},
			QuizName:      quiz.Name,
			CreatedOn:     quiz.CreatedOn,
			Impressions:   quiz.Impressions,
		},
		Questions: []domain.Question{},
	}

	switch quiz.Type {
	case domain.QuizTypeQnA:
		err = s.qnaAnalytics(ctx, quiz, &report)
	case domain.QuizTypePoll:
		err = s.pollAnalytics(ctx, quiz, &report)
	}
	if err != nil {
		return domain.AnalyticsReport{}, err
	}
	return report, nil
}

func (s *AnalyticsService) qnaAnalytics(ctx context.Context, quiz domain.Quiz, report *domain.AnalyticsReport) error {
	for _, questionID := range quiz.Questions {
		question, err := s.questions.FindByID(ctx, questionID)
		if isQuestionMissing(err) {
			continue
		}
		if err != nil {
			return err
		}
		report.Analytics.TotalAttempts += question.TotalAttempts
		report.Analytics.CorrectAttempts += question.CorrectAttempts
		report.Analytics.IncorrectAttempts += question.IncorrectAttempts
		report.Questions = append(report.Questions, question)
	}
	return nil
}

func (s *AnalyticsService) pollAnalytics(ctx context.Context, quiz domain.Quiz, report *domain.AnalyticsReport) error {
	var questions []domain.Question
	if len(quiz.Questions) > 0 {
		var err error
		questions, err = s.questions.FindMany(ctx, quiz.Questions)
		if err != nil {
			return err
		}
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions found for quiz %s", domain.ErrNoData, quiz.ID)
	}

	responses, err := s.responses.FindByQuiz(ctx, quiz.ID)
	if err != nil {
		return err
	}
	if len(responses) == 0 {
		return fmt.Errorf("%w: no responses found for quiz %s", domain.ErrNoData, quiz.ID)
	}

	tallies := report.Analytics.PollResponses
	for _, q := range questions {
		tallies[q.ID] = domain.PollTally{QuestionText: q.Prompt, Options: map[string]int{}}
	}

	orphaned := 0
	for _, response := range responses {
		for _, sel := range response.Selections {
			if sel.OptionIndex < 1 {
				continue
			}
			tally, ok := tallies[sel.QuestionID]
			if !ok {
				orphaned++
				continue
			}
			tally.Options[strconv.Itoa(sel.OptionIndex)]++
		}
	}
	if orphaned > 0 {
		s.opts.logger.WithFields(logrus.Fields{
			"quiz_id":    quiz.ID,
			"selections": orphaned,
		}).Warn("responses reference questions that are no longer part of the quiz")
	}

	report.Questions = questions
	return nil
}

package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"quiz-insights-service/internal/domain"
)

const (
	qnaProcessedMessage  = "Q&A quiz processed"
	pollProcessedMessage = "Poll quiz processed"
)

// SubmitRequest is one user's positional answers to a quiz.
// Answers[i] is the 1-based option chosen for the i-th question of the quiz.
type SubmitRequest struct {
	UserID  string `json:"userId" validate:"required"`
	QuizID  string `json:"quizId" validate:"required"`
	Answers []int  `json:"answers" validate:"required"`
}

// SubmissionService scores submissions, updates question counters and records responses.
type SubmissionService struct {
	quizzes   QuizRepository
	questions QuestionRepository
	responses ResponseRepository
	opts      options
}

func NewSubmissionService(quizzes QuizRepository, questions QuestionRepository, responses ResponseRepository, opts ...Option) *SubmissionService {
	return &SubmissionService{quizzes: quizzes, questions: questions, responses: responses, opts: buildOptions(opts)}
}

// Submit scores req against the quiz. Every question's counters change exactly once.
// Positions whose question no longer resolves are skipped.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (domain.Submission, error) {
	if err := validateStruct(req); err != nil {
		return domain.Submission{}, err
	}
	if err := checkID("user id", req.UserID); err != nil {
		return domain.Submission{}, err
	}
	if err := checkID("quiz id", req.QuizID); err != nil {
		return domain.Submission{}, err
	}

	quiz, err := s.quizzes.FindByID(ctx, req.QuizID)
	if err != nil {
		return domain.Submission{}, err
	}
	if !quiz.Type.Valid() {
		return domain.Submission{}, fmt.Errorf("%w: %q", domain.ErrInvalidQuizType, quiz.Type)
	}

	var (
		outcome    = domain.Outcome{Kind: quiz.Type, Success: true}
		scored     = make([]domain.Question, 0, len(quiz.Questions))
		selections = make([]domain.Selection, 0, len(quiz.Questions))
	)
	switch quiz.Type {
	case domain.QuizTypeQnA:
		outcome.Message = qnaProcessedMessage
	case domain.QuizTypePoll:
		outcome.Message = pollProcessedMessage
		outcome.SelectedOptions = make([]int, 0, len(quiz.Questions))
	}

	for i, questionID := range quiz.Questions {
		question, err := s.questions.FindByID(ctx, questionID)
		if isQuestionMissing(err) {
			continue
		}
		if err != nil {
			return domain.Submission{}, err
		}
		if quiz.Type == domain.QuizTypeQnA && question.QuizType != domain.QuizTypeQnA {
			continue
		}

		answer := answerAt(req.Answers, i)
		delta, ok := domain.Score(question, answer)
		if ok {
			updated, err := s.apply(ctx, question.ID, delta)
			if isQuestionMissing(err) {
				continue
			}
			if err != nil {
				return domain.Submission{}, err
			}
			question = updated
		}

		if qna, isQna := delta.(domain.QnaDelta); isQna && quiz.Type == domain.QuizTypeQnA {
			if qna.Correct {
				outcome.CorrectAttempts++
			} else {
				outcome.IncorrectAttempts++
			}
		}
		if quiz.Type == domain.QuizTypePoll {
			outcome.SelectedOptions = append(outcome.SelectedOptions, answer)
		}
		// Answers that changed no counter are kept as "no selection" so analytics agree with the counters.
		selected := answer
		if !ok {
			selected = 0
		}
		scored = append(scored, question)
		selections = append(selections, domain.Selection{QuestionID: question.ID, OptionIndex: selected})
	}

	questionIDs := make([]string, len(scored))
	for i, q := range scored {
		questionIDs[i] = q.ID
	}
	response, err := s.responses.Record(ctx, domain.QuizResponse{
		ID:            s.opts.newID(),
		UserID:        req.UserID,
		QuizID:        quiz.ID,
		Answers:       req.Answers,
		Selections:    selections,
		Result:        outcome,
		QuestionIDs:   questionIDs,
		QuizName:      quiz.Name,
		Impressions:   quiz.Impressions,
		QuizCreatedOn: quiz.CreatedOn,
		SubmittedAt:   s.opts.now().UTC(),
	})
	if err != nil {
		return domain.Submission{}, fmt.Errorf("record response: %w", err)
	}
	s.announce(ctx, response)

	return domain.Submission{
		Result:      outcome,
		Questions:   scored,
		QuizName:    quiz.Name,
		Impressions: quiz.Impressions,
		CreatedOn:   quiz.CreatedOn,
		QuizID:      quiz.ID,
		Answers:     req.Answers,
	}, nil
}

func (s *SubmissionService) apply(ctx context.Context, questionID string, delta domain.CounterDelta) (domain.Question, error) {
	switch d := delta.(type) {
	case domain.QnaDelta:
		return s.questions.IncrementAttempts(ctx, questionID, d.Correct)
	case domain.PollDelta:
		return s.questions.IncrementOption(ctx, questionID, d.OptionIndex)
	}
	return domain.Question{}, fmt.Errorf("unsupported counter delta %T", delta)
}

// announce drops the cached report of the quiz and notifies live subscribers.
func (s *SubmissionService) announce(ctx context.Context, response domain.QuizResponse) {
	if s.opts.cache != nil {
		if err := s.opts.cache.Invalidate(ctx, response.QuizID); err != nil {
			s.opts.logger.WithError(err).WithField("quiz_id", response.QuizID).Warn("failed to invalidate analytics cache")
		}
	}
	if s.opts.feed != nil {
		s.opts.feed.Publish(domain.SubmissionEvent{
			QuizID:      response.QuizID,
			UserID:      response.UserID,
			ResponseID:  response.ID,
			SubmittedAt: response.SubmittedAt,
		})
	}
	s.opts.logger.WithFields(logrus.Fields{
		"quiz_id":     response.QuizID,
		"user_id":     response.UserID,
		"response_id": response.ID,
	}).Debug("submission recorded")
}

// answerAt treats positions past the end of answers as unanswered (0).
func answerAt(answers []int, i int) int {
	if i < len(answers) {
		return answers[i]
	}
	return 0
}

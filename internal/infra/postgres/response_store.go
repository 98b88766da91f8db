package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-insights-service/internal/domain"
)

const responseColumns = `id, user_id, quiz_id, answers, selections, result, question_ids,
	quiz_name, impressions, quiz_created_on, submitted_at`

// ResponseStore implements app.ResponseRepository. Rows are only ever inserted.
type ResponseStore struct {
	pool *pgxpool.Pool
}

func NewResponseStore(pool *pgxpool.Pool) *ResponseStore {
	return &ResponseStore{pool: pool}
}

func (s *ResponseStore) Record(ctx context.Context, response domain.QuizResponse) (domain.QuizResponse, error) {
	answers, err := json.Marshal(nonNilInts(response.Answers))
	if err != nil {
		return domain.QuizResponse{}, fmt.Errorf("encode answers: %w", err)
	}
	selections := response.Selections
	if selections == nil {
		selections = []domain.Selection{}
	}
	rawSelections, err := json.Marshal(selections)
	if err != nil {
		return domain.QuizResponse{}, fmt.Errorf("encode selections: %w", err)
	}
	result, err := json.Marshal(storedOutcome(response.Result))
	if err != nil {
		return domain.QuizResponse{}, fmt.Errorf("encode result: %w", err)
	}
	questionIDs := response.QuestionIDs
	if questionIDs == nil {
		questionIDs = []string{}
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO quiz_responses (id, user_id, quiz_id, answers, selections, result, question_ids,
			quiz_name, impressions, quiz_created_on, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+responseColumns,
		response.ID, response.UserID, response.QuizID, answers, rawSelections, result, questionIDs,
		response.QuizName, response.Impressions, response.QuizCreatedOn, response.SubmittedAt)
	recorded, err := scanResponse(row)
	return recorded, translate("record response", err, domain.ErrQuizNotFound)
}

func (s *ResponseStore) FindByQuiz(ctx context.Context, quizID string) ([]domain.QuizResponse, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+responseColumns+` FROM quiz_responses WHERE quiz_id = $1 ORDER BY submitted_at`, quizID)
	if err != nil {
		return nil, translate("list responses", err, domain.ErrQuizNotFound)
	}
	defer rows.Close()

	responses := make([]domain.QuizResponse, 0)
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, translate("list responses", err, domain.ErrQuizNotFound)
		}
		responses = append(responses, response)
	}
	return responses, translate("list responses", rows.Err(), domain.ErrQuizNotFound)
}

// storedOutcome keeps every counter of an outcome so it can be read back
// regardless of the kind-specific JSON shape used on the wire.
type storedOutcome domain.Outcome

func scanResponse(row rowScanner) (domain.QuizResponse, error) {
	var (
		response                    domain.QuizResponse
		answers, selections, result []byte
	)
	if err := row.Scan(
		&response.ID, &response.UserID, &response.QuizID, &answers, &selections, &result, &response.QuestionIDs,
		&response.QuizName, &response.Impressions, &response.QuizCreatedOn, &response.SubmittedAt,
	); err != nil {
		return domain.QuizResponse{}, err
	}
	if err := json.Unmarshal(answers, &response.Answers); err != nil {
		return domain.QuizResponse{}, fmt.Errorf("decode answers of %s: %w", response.ID, err)
	}
	if err := json.Unmarshal(selections, &response.Selections); err != nil {
		return domain.QuizResponse{}, fmt.Errorf("decode selections of %s: %w", response.ID, err)
	}
	var outcome storedOutcome
	if err := json.Unmarshal(result, &outcome); err != nil {
		return domain.QuizResponse{}, fmt.Errorf("decode result of %s: %w", response.ID, err)
	}
	response.Result = domain.Outcome(outcome)
	return response, nil
}

func nonNilInts(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}

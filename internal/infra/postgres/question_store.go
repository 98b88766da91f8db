package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-insights-service/internal/domain"
)

const questionColumns = `id, quiz_id, creator_id, prompt, quiz_type, correct_answer, timer,
	options, option_attempts, total_attempts, correct_attempts, incorrect_attempts, created_at`

// storedOption is the jsonb form of an option. Selection counts live in option_attempts
// so they can be incremented in place.
type storedOption struct {
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
}

// QuestionStore implements app.QuestionRepository on the questions table.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) Create(ctx context.Context, question domain.Question) (domain.Question, error) {
	options, attempts, err := encodeOptions(question.Options)
	if err != nil {
		return domain.Question{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO questions (id, quiz_id, creator_id, prompt, quiz_type, correct_answer, timer,
			options, option_attempts, total_attempts, correct_attempts, incorrect_attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+questionColumns,
		question.ID, question.QuizID, question.Creator, question.Prompt, string(question.QuizType),
		correctAnswerParam(question.CorrectAnswer), string(question.Timer), options, attempts,
		question.TotalAttempts, question.CorrectAttempts, question.IncorrectAttempts, question.CreatedAt)
	created, err := scanQuestion(row)
	return created, translate("create question", err, domain.ErrQuestionNotFound)
}

func (s *QuestionStore) FindByID(ctx context.Context, id string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	question, err := scanQuestion(row)
	return question, translate("find question", err, domain.ErrQuestionNotFound)
}

func (s *QuestionStore) FindMany(ctx context.Context, ids []string) ([]domain.Question, error) {
	return s.list(ctx, "find questions",
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1::text[]) ORDER BY array_position($1::text[], id)`, ids)
}

func (s *QuestionStore) FindByCreator(ctx context.Context, userID string) ([]domain.Question, error) {
	return s.list(ctx, "list questions",
		`SELECT `+questionColumns+` FROM questions WHERE creator_id = $1 ORDER BY created_at`, userID)
}

func (s *QuestionStore) list(ctx context.Context, op, query string, args ...interface{}) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err, domain.ErrQuestionNotFound)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, translate(op, err, domain.ErrQuestionNotFound)
		}
		questions = append(questions, question)
	}
	return questions, translate(op, rows.Err(), domain.ErrQuestionNotFound)
}

// Update rewrites the editable fields. option_attempts is resized to the new option
// count, keeping the counters of options that survive by position.
func (s *QuestionStore) Update(ctx context.Context, id string, patch domain.QuestionPatch) (domain.Question, error) {
	options, _, err := encodeOptions(patch.Options)
	if err != nil {
		return domain.Question{}, err
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE questions SET
			prompt = $2,
			options = $3,
			correct_answer = $4,
			timer = $5,
			option_attempts = COALESCE(
				(SELECT array_agg(COALESCE(option_attempts[i], 0) ORDER BY i)
				   FROM generate_series(1, $6::int) AS i),
				'{}'::bigint[])
		WHERE id = $1
		RETURNING `+questionColumns,
		id, patch.Prompt, options, correctAnswerParam(patch.CorrectAnswer), string(patch.Timer), len(patch.Options))
	question, err := scanQuestion(row)
	return question, translate("update question", err, domain.ErrQuestionNotFound)
}

func (s *QuestionStore) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = ANY($1::text[])`, ids)
	if err != nil {
		return 0, translate("delete questions", err, domain.ErrQuestionNotFound)
	}
	return tag.RowsAffected(), nil
}

func (s *QuestionStore) IncrementAttempts(ctx context.Context, id string, correct bool) (domain.Question, error) {
	var correctDelta, incorrectDelta int64
	if correct {
		correctDelta = 1
	} else {
		incorrectDelta = 1
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE questions SET
			total_attempts = total_attempts + 1,
			correct_attempts = correct_attempts + $2,
			incorrect_attempts = incorrect_attempts + $3
		WHERE id = $1
		RETURNING `+questionColumns, id, correctDelta, incorrectDelta)
	question, err := scanQuestion(row)
	return question, translate("increment attempts", err, domain.ErrQuestionNotFound)
}

// IncrementOption bumps the counter of the zero-based option. Out-of-range
// indices leave the row untouched and return it as is.
func (s *QuestionStore) IncrementOption(ctx context.Context, id string, optionIndex int) (domain.Question, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE questions SET option_attempts[$2] = option_attempts[$2] + 1
		WHERE id = $1 AND $2 BETWEEN 1 AND cardinality(option_attempts)
		RETURNING `+questionColumns, id, optionIndex+1)
	question, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.FindByID(ctx, id)
	}
	return question, translate("increment option", err, domain.ErrQuestionNotFound)
}

func correctAnswerParam(answer *int) interface{} {
	if answer == nil {
		return nil
	}
	return int32(*answer)
}

func encodeOptions(options []domain.Option) ([]byte, []int64, error) {
	stored := make([]storedOption, len(options))
	attempts := make([]int64, len(options))
	for i, opt := range options {
		stored[i] = storedOption{Text: opt.Text, ImageURL: opt.ImageURL}
		attempts[i] = opt.Attempts
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, nil, fmt.Errorf("encode options: %w", err)
	}
	return data, attempts, nil
}

func scanQuestion(row rowScanner) (domain.Question, error) {
	var (
		question   domain.Question
		quizType   string
		timer      string
		correct    *int32
		rawOptions []byte
		attempts   []int64
	)
	if err := row.Scan(
		&question.ID, &question.QuizID, &question.Creator, &question.Prompt, &quizType, &correct, &timer,
		&rawOptions, &attempts, &question.TotalAttempts, &question.CorrectAttempts, &question.IncorrectAttempts,
		&question.CreatedAt,
	); err != nil {
		return domain.Question{}, err
	}

	var stored []storedOption
	if err := json.Unmarshal(rawOptions, &stored); err != nil {
		return domain.Question{}, fmt.Errorf("decode options of %s: %w", question.ID, err)
	}
	question.Options = make([]domain.Option, len(stored))
	for i, opt := range stored {
		question.Options[i] = domain.Option{Text: opt.Text, ImageURL: opt.ImageURL}
		if i < len(attempts) {
			question.Options[i].Attempts = attempts[i]
		}
	}
	question.QuizType = domain.QuizType(quizType)
	question.Timer = domain.Timer(timer)
	if correct != nil {
		answer := int(*correct)
		question.CorrectAnswer = &answer
	}
	return question, nil
}

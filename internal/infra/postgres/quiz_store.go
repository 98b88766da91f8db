package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-insights-service/internal/domain"
)

const quizColumns = `id, name, type, created_on, impressions, creator_id, question_ids`

// QuizStore implements app.QuizRepository on the quizzes table.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	questionIDs := quiz.Questions
	if questionIDs == nil {
		questionIDs = []string{}
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO quizzes (id, name, type, created_on, impressions, creator_id, question_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+quizColumns,
		quiz.ID, quiz.Name, string(quiz.Type), quiz.CreatedOn, quiz.Impressions, quiz.Creator, questionIDs)
	created, err := scanQuiz(row)
	return created, translate("create quiz", err, domain.ErrQuizNotFound)
}

func (s *QuizStore) FindByID(ctx context.Context, id string) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id)
	quiz, err := scanQuiz(row)
	return quiz, translate("find quiz", err, domain.ErrQuizNotFound)
}

func (s *QuizStore) FindByCreator(ctx context.Context, userID string) ([]domain.Quiz, error) {
	return s.list(ctx, "list quizzes",
		`SELECT `+quizColumns+` FROM quizzes WHERE creator_id = $1 ORDER BY created_on`, userID)
}

func (s *QuizStore) Trending(ctx context.Context, userID string) ([]domain.Quiz, error) {
	return s.list(ctx, "trending quizzes",
		`SELECT `+quizColumns+` FROM quizzes WHERE creator_id = $1 ORDER BY impressions DESC, created_on DESC`, userID)
}

func (s *QuizStore) list(ctx context.Context, op, query string, args ...interface{}) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err, domain.ErrQuizNotFound)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, translate(op, err, domain.ErrQuizNotFound)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, translate(op, rows.Err(), domain.ErrQuizNotFound)
}

func (s *QuizStore) AppendQuestions(ctx context.Context, id string, questionIDs []string) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE quizzes SET question_ids = question_ids || $2::text[]
		WHERE id = $1
		RETURNING `+quizColumns, id, questionIDs)
	quiz, err := scanQuiz(row)
	return quiz, translate("append questions", err, domain.ErrQuizNotFound)
}

func (s *QuizStore) IncrementImpressions(ctx context.Context, id string) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE quizzes SET impressions = impressions + 1
		WHERE id = $1
		RETURNING `+quizColumns, id)
	quiz, err := scanQuiz(row)
	return quiz, translate("increment impressions", err, domain.ErrQuizNotFound)
}

func (s *QuizStore) TotalImpressions(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(impressions), 0)::bigint FROM quizzes WHERE creator_id = $1`, userID).Scan(&total)
	return total, translate("total impressions", err, domain.ErrQuizNotFound)
}

// DeleteCascade removes the quiz row and its questions inside one transaction.
func (s *QuizStore) DeleteCascade(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var questionIDs []string
		if err := tx.QueryRow(ctx,
			`DELETE FROM quizzes WHERE id = $1 RETURNING question_ids`, id).Scan(&questionIDs); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM questions WHERE id = ANY($1)`, questionIDs)
		if err != nil {
			return err
		}
		removed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, translate("delete quiz", err, domain.ErrQuizNotFound)
	}
	return removed, nil
}

func scanQuiz(row rowScanner) (domain.Quiz, error) {
	var (
		quiz     domain.Quiz
		quizType string
	)
	if err := row.Scan(&quiz.ID, &quiz.Name, &quizType, &quiz.CreatedOn, &quiz.Impressions, &quiz.Creator, &quiz.Questions); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Type = domain.QuizType(quizType)
	if quiz.Questions == nil {
		quiz.Questions = []string{}
	}
	return quiz, nil
}

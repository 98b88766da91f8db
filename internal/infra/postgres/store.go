// Package postgres persists quizzes, questions and responses with pgx.
package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"quiz-insights-service/internal/domain"
)

// invalidTextRepresentation is raised when a parameter cannot be parsed into the column type.
const invalidTextRepresentation = "22P02"

// translate maps driver errors onto domain errors. notFound is returned for empty results.
func translate(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidID)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

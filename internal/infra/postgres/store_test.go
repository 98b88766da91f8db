package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"quiz-insights-service/internal/domain"
)

func TestTranslateMapsDriverErrors(t *testing.T) {
	if err := translate("find quiz", pgx.ErrNoRows, domain.ErrQuizNotFound); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}

	wrapped := fmt.Errorf("query: %w", &pgconn.PgError{Code: invalidTextRepresentation})
	if err := translate("find quiz", wrapped, domain.ErrQuizNotFound); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected invalid id, got %v", err)
	}

	other := &pgconn.PgError{Code: "23505"}
	err := translate("create quiz", other, domain.ErrQuizNotFound)
	if !errors.As(err, new(*pgconn.PgError)) || domain.IsNotFound(err) {
		t.Fatalf("expected wrapped pg error, got %v", err)
	}

	if err := translate("noop", nil, domain.ErrQuizNotFound); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestEncodeOptionsSplitsCounters(t *testing.T) {
	data, attempts, err := encodeOptions([]domain.Option{
		{Text: "a", Attempts: 3},
		{ImageURL: "https://example.com/b.png", Attempts: 1},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data) != `[{"text":"a","imageUrl":""},{"text":"","imageUrl":"https://example.com/b.png"}]` {
		t.Fatalf("unexpected options json %s", data)
	}
	if len(attempts) != 2 || attempts[0] != 3 || attempts[1] != 1 {
		t.Fatalf("unexpected attempts %v", attempts)
	}
}

type fakeRow struct {
	values []interface{}
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: want %d dest, got %d", len(r.values), len(dest))
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int64:
			*d = v.(int64)
		case **int32:
			*d = v.(*int32)
		case *[]byte:
			*d = v.([]byte)
		case *[]int64:
			*d = v.([]int64)
		default:
			// timestamps are left zero
		}
	}
	return nil
}

func TestScanQuestionMergesOptionCounters(t *testing.T) {
	correct := int32(2)
	row := fakeRow{values: []interface{}{
		"q1", "quiz-1", "user-1", "2+2", "Q&A", &correct, "5",
		[]byte(`[{"text":"3","imageUrl":""},{"text":"4","imageUrl":""}]`), []int64{0, 7},
		int64(7), int64(7), int64(0), nil,
	}}
	q, err := scanQuestion(row)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if q.QuizType != domain.QuizTypeQnA || q.Timer != domain.Timer5 || q.CorrectAnswer == nil || *q.CorrectAnswer != 2 {
		t.Fatalf("unexpected question %+v", q)
	}
	if len(q.Options) != 2 || q.Options[1].Text != "4" || q.Options[1].Attempts != 7 {
		t.Fatalf("unexpected options %+v", q.Options)
	}
}

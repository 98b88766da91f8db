package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz id does not resolve.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates the question id does not resolve.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidQuizType is returned for quiz types other than Q&A and Poll.
	ErrInvalidQuizType = errors.New("invalid quiz type")
	// ErrInvalidID is returned when an identifier is not a well-formed UUID.
	ErrInvalidID = errors.New("invalid id format")
	// ErrInvalidInput wraps payload validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoData means analytics were requested for a quiz without questions or responses.
	ErrNoData = errors.New("no data")
)

// IsNotFound reports whether err resolves to a missing quiz or question.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) || errors.Is(err, ErrQuestionNotFound)
}

// IsInvalidInput reports whether err is caused by a malformed request.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidID) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidQuizType)
}

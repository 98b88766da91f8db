package domain

// CounterDelta is the counter mutation a single answer causes on its question.
// It is either a QnaDelta or a PollDelta.
type CounterDelta interface {
	counterDelta()
}

// QnaDelta increments totalAttempts plus correctAttempts or incorrectAttempts.
type QnaDelta struct {
	Correct bool
}

// PollDelta increments the attempts counter of one option (0-based).
type PollDelta struct {
	OptionIndex int
}

func (QnaDelta) counterDelta()  {}
func (PollDelta) counterDelta() {}

// Score maps a submitted option number (1-based) onto the counter mutation for
// question. The second result is false when the answer changes no counter,
// which only happens for poll answers outside the option range.
func Score(question Question, answer int) (CounterDelta, bool) {
	switch question.QuizType {
	case QuizTypeQnA:
		correct := question.CorrectAnswer != nil && *question.CorrectAnswer == answer
		return QnaDelta{Correct: correct}, true
	case QuizTypePoll:
		if answer < 1 || answer > len(question.Options) {
			return nil, false
		}
		return PollDelta{OptionIndex: answer - 1}, true
	}
	return nil, false
}

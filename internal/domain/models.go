package domain

import (
	"encoding/json"
	"time"
)

// QuizType selects the scoring rule applied to a quiz and its questions.
type QuizType string

const (
	QuizTypeQnA  QuizType = "Q&A"
	QuizTypePoll QuizType = "Poll"
)

// Valid reports whether t is one of the supported quiz types.
func (t QuizType) Valid() bool {
	return t == QuizTypeQnA || t == QuizTypePoll
}

// Timer is the per-question countdown setting of Q&A questions.
type Timer string

const (
	Timer5   Timer = "5"
	Timer10  Timer = "10"
	TimerOff Timer = "OFF"
)

func (t Timer) Valid() bool {
	return t == Timer5 || t == Timer10 || t == TimerOff
}

// Quiz is a named, typed and ordered collection of question references.
// The position of an id in Questions is the position of its answer in a submission.
type Quiz struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        QuizType  `json:"type"`
	CreatedOn   time.Time `json:"createdOn"`
	Impressions int64     `json:"impressions"`
	Creator     string    `json:"creator"`
	Questions   []string  `json:"questions"`
}

// Option is a selectable answer. Attempts counts poll selections of this option.
type Option struct {
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
	Attempts int64  `json:"attempts"`
}

// Question models a single prompt of a quiz.
// CorrectAnswer is 1-based and only meaningful for Q&A questions.
type Question struct {
	ID                string    `json:"id"`
	Prompt            string    `json:"question"`
	Options           []Option  `json:"options"`
	QuizType          QuizType  `json:"quizType"`
	CorrectAnswer     *int      `json:"correctAnswer,omitempty"`
	Timer             Timer     `json:"timer"`
	QuizID            string    `json:"quiz"`
	Creator           string    `json:"creator"`
	TotalAttempts     int64     `json:"totalAttempts"`
	CorrectAttempts   int64     `json:"correctAttempts"`
	IncorrectAttempts int64     `json:"incorrectAttempts"`
	CreatedAt         time.Time `json:"createdAt"`
}

// QuestionPatch carries the editable fields of an existing question.
type QuestionPatch struct {
	Prompt        string
	Options       []Option
	CorrectAnswer *int
	Timer         Timer
}

// Selection pairs a scored question with the option number submitted for it.
type Selection struct {
	QuestionID  string `json:"questionId"`
	OptionIndex int    `json:"optionIndex"`
}

// Outcome is the computed result of a submission. Which counters are
// meaningful depends on Kind; the JSON form only carries those.
type Outcome struct {
	Kind              QuizType `json:"kind"`
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	CorrectAttempts   int      `json:"correctAttempts"`
	IncorrectAttempts int      `json:"incorrectAttempts"`
	SelectedOptions   []int    `json:"selectedOptions"`
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Kind == QuizTypePoll {
		selected := o.SelectedOptions
		if selected == nil {
			selected = []int{}
		}
		return json.Marshal(struct {
			Kind            QuizType `json:"kind"`
			Success         bool     `json:"success"`
			Message         string   `json:"message"`
			SelectedOptions []int    `json:"selectedOptions"`
		}{o.Kind, o.Success, o.Message, selected})
	}
	return json.Marshal(struct {
		Kind              QuizType `json:"kind"`
		Success           bool     `json:"success"`
		Message           string   `json:"message"`
		CorrectAttempts   int      `json:"correctAttempts"`
		IncorrectAttempts int      `json:"incorrectAttempts"`
	}{o.Kind, o.Success, o.Message, o.CorrectAttempts, o.IncorrectAttempts})
}

// QuizResponse is the append-only record of one submission. Quiz fields are
// copied at submission time and never kept in sync with later edits.
type QuizResponse struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	QuizID        string      `json:"quizId"`
	Answers       []int       `json:"answers"`
	Selections    []Selection `json:"selections"`
	Result        Outcome     `json:"result"`
	QuestionIDs   []string    `json:"questions"`
	QuizName      string      `json:"quizName"`
	Impressions   int64       `json:"impressions"`
	QuizCreatedOn time.Time   `json:"createdOn"`
	SubmittedAt   time.Time   `json:"submittedAt"`
}

// Submission is the envelope returned to the client after scoring.
type Submission struct {
	Result      Outcome    `json:"result"`
	Questions   []Question `json:"questions"`
	QuizName    string     `json:"quizName"`
	Impressions int64      `json:"impressions"`
	CreatedOn   time.Time  `json:"createdOn"`
	QuizID      string     `json:"quizId"`
	Answers     []int      `json:"answers"`
}

// SubmissionEvent is published after a submission has been recorded.
type SubmissionEvent struct {
	QuizID      string    `json:"quizId"`
	UserID      string    `json:"userId"`
	ResponseID  string    `json:"responseId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// PollTally counts selections per option key for one poll question.
type PollTally struct {
	QuestionText string         `json:"questionText"`
	Options      map[string]int `json:"options"`
}

// Analytics holds the aggregate statistics of a quiz.
type Analytics struct {
	TotalAttempts     int64                `json:"totalAttempts"`
	CorrectAttempts   int64                `json:"correctAttempts"`
	IncorrectAttempts int64                `json:"incorrectAttempts"`
	PollResponses     map[string]PollTally `json:"pollResponses"`
	QuizName          string               `json:"quizName"`
	CreatedOn         time.Time            `json:"createdOn"`
	Impressions       int64                `json:"impressions"`
}

// AnalyticsReport is the envelope returned by the analytics endpoint.
type AnalyticsReport struct {
	QuizID    string     `json:"quizId"`
	Analytics Analytics  `json:"analytics"`
	Questions []Question `json:"questions"`
}

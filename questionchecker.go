package studycompanion

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidQuiz is returned by strict quiz generation when a generated
// question fails validation.
var ErrInvalidQuiz = errors.New("generated quiz failed validation")

// OptionsPerQuestion is the number of options every question must offer.
const OptionsPerQuestion = 4

// ValidationAction is what the checker decided for a question.
type ValidationAction string

const (
	ActionAccept ValidationAction = "accept"
	ActionReject ValidationAction = "reject"
)

// ValidationResult is the verdict on one question.
type ValidationResult struct {
	QuestionID int              `json:"questionId"`
	Action     ValidationAction `json:"action"`
	Reason     string           `json:"reason"`
}

// QuizChecker enforces the quiz contract the generation prompt asks for:
// non-empty question text, four distinct options, a correct answer that is
// one of the options, and no repeated questions. It holds no state and is
// safe for concurrent use.
type QuizChecker struct{}

func NewQuizChecker() *QuizChecker {
	return &QuizChecker{}
}

// CheckQuestion validates a single question in isolation.
func (qc *QuizChecker) CheckQuestion(q QuizQuestion) ValidationResult {
	reject := func(format string, args ...any) ValidationResult {
		return ValidationResult{QuestionID: q.ID, Action: ActionReject, Reason: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(q.Question) == "" {
		return reject("question text is empty")
	}
	if len(q.Options) != OptionsPerQuestion {
		return reject("expected %d options, got %d", OptionsPerQuestion, len(q.Options))
	}

	seen := make(map[string]bool, len(q.Options))
	matches := 0
	for _, option := range q.Options {
		key := strings.ToLower(strings.Join(strings.Fields(option), " "))
		if key == "" {
			return reject("option is empty")
		}
		if seen[key] {
			return reject("duplicate option %q", option)
		}
		seen[key] = true
		if option == q.CorrectAnswer {
			matches++
		}
	}
	if matches != 1 {
		return reject("correct answer %q is not one of the options", q.CorrectAnswer)
	}

	return ValidationResult{QuestionID: q.ID, Action: ActionAccept, Reason: "ok"}
}

// CheckQuiz validates every question and rejects repeats of an earlier one.
func (qc *QuizChecker) CheckQuiz(questions []QuizQuestion) []ValidationResult {
	dedup := NewQuestionDedup()

	results := make([]ValidationResult, 0, len(questions))
	for _, q := range questions {
		result := qc.CheckQuestion(q)
		if result.Action == ActionAccept {
			if dup := dedup.CheckDuplicate(q); dup.IsDuplicate {
				result = ValidationResult{QuestionID: q.ID, Action: ActionReject, Reason: dup.Reason}
			}
		}
		results = append(results, result)
	}
	return results
}

// Validate returns an ErrInvalidQuiz error describing the first rejected
// question, or nil.
func (qc *QuizChecker) Validate(questions []QuizQuestion) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuiz)
	}
	for _, r := range qc.CheckQuiz(questions) {
		if r.Action == ActionReject {
			return fmt.Errorf("%w: question %d: %s", ErrInvalidQuiz, r.QuestionID, r.Reason)
		}
	}
	return nil
}

// GradeQuiz scores answers (question id -> chosen option text) against
// questions and returns the result to append to the history.
func GradeQuiz(topic, difficulty string, questions []QuizQuestion, answers map[int]string, now time.Time) QuizResult {
	score := 0
	for _, q := range questions {
		if answer, ok := answers[q.ID]; ok && answer == q.CorrectAnswer {
			score++
		}
	}
	return QuizResult{
		ID:             now.UnixMilli(),
		Topic:          topic,
		Difficulty:     difficulty,
		Score:          score,
		TotalQuestions: len(questions),
		Timestamp:      now.UTC(),
	}
}

package studycompanion

import (
	"fmt"
	"strings"
	"unicode"
)

// QuestionDedup detects questions that repeat an earlier one after
// normalising case, punctuation and whitespace.
type QuestionDedup struct {
	seen map[string]int // normalised text -> question id
}

func NewQuestionDedup() *QuestionDedup {
	return &QuestionDedup{seen: make(map[string]int)}
}

// DedupResult represents the result of deduplication
type DedupResult struct {
	IsDuplicate bool   `json:"isDuplicate"`
	Reason      string `json:"reason"`
	DuplicateID int    `json:"duplicateId,omitempty"`
}

// CheckDuplicate records q and reports whether an equivalent question was
// already recorded.
func (qd *QuestionDedup) CheckDuplicate(q QuizQuestion) DedupResult {
	key := normalizeText(q.Question)
	if id, ok := qd.seen[key]; ok {
		return DedupResult{
			IsDuplicate: true,
			Reason:      fmt.Sprintf("duplicate of question %d", id),
			DuplicateID: id,
		}
	}
	qd.seen[key] = q.ID
	return DedupResult{Reason: "unique"}
}

// Reset forgets every recorded question.
func (qd *QuestionDedup) Reset() {
	qd.seen = make(map[string]int)
}

func normalizeText(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSymbol(r):
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			space = true
		}
	}
	return sb.String()
}

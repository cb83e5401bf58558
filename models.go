package studycompanion

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Topic is a single slot in a study plan: either a topic to study or a break.
type Topic struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"` // minutes
	IsBreak  bool   `json:"isBreak"`
}

// StudyPlan is an ordered schedule of topics tied to one subject and exam date.
// A plan is replaced wholesale when a new one is generated.
type StudyPlan struct {
	ID       string  `json:"id"`
	Subject  string  `json:"subject"`
	ExamDate string  `json:"examDate"` // DD/MM/YYYY HH:MM AM|PM
	Topics   []Topic `json:"topics"`
}

// Validate checks a plan submitted for editing.
func (p StudyPlan) Validate() error {
	if err := requireFields(map[string]string{"subject": p.Subject, "examDate": p.ExamDate}); err != nil {
		return err
	}
	for i, t := range p.Topics {
		if t.Name == "" {
			return fmt.Errorf("%w: topic %d has no name", ErrInvalidRequest, i)
		}
		if t.Duration < 0 {
			return fmt.Errorf("%w: topic %d has a negative duration", ErrInvalidRequest, i)
		}
	}
	return nil
}

// QuizQuestion is a single multiple choice question. CorrectAnswer holds the
// text of the correct option, not its index.
type QuizQuestion struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// QuizResult is one entry of the append-only quiz result log.
type QuizResult struct {
	ID             int64     `json:"id"`
	Topic          string    `json:"topic"`
	Difficulty     string    `json:"difficulty"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Timestamp      time.Time `json:"timestamp"`
}

// Validate checks 0 <= score <= totalQuestions.
func (r QuizResult) Validate() error {
	if r.TotalQuestions < 0 || r.Score < 0 || r.Score > r.TotalQuestions {
		return fmt.Errorf("%w: score %d out of %d", ErrInvalidRequest, r.Score, r.TotalQuestions)
	}
	return nil
}

// Note is a generated set of study notes.
type Note struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	DetailLevel string    `json:"detailLevel,omitempty"`
	Format      string    `json:"format,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Explanation is a generated real-world explanation of a topic.
type Explanation struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CompletionMap records which topic positions of the active plan are done.
type CompletionMap map[int]bool

// MarshalJSON encodes the map with string keys ("0", "1", ...).
func (m CompletionMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[strconv.Itoa(k)] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a map keyed by index strings. Keys that are not
// integers are dropped.
func (m *CompletionMap) UnmarshalJSON(data []byte) error {
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(CompletionMap, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[idx] = v
	}
	*m = out
	return nil
}

// Countdown is the time remaining until the exam, split into display units.
type Countdown struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// Progress summarises completion over the non-break topics of a plan.
type Progress struct {
	CompletedCount     int `json:"completedCount"`
	TotalNonBreakCount int `json:"totalNonBreakCount"`
	Percentage         int `json:"percentage"`
}

// StudyPlanRequest is the input for study plan generation.
type StudyPlanRequest struct {
	Subject  string `json:"subject"`
	Topics   string `json:"topics"` // comma separated, passed through to the prompt
	ExamDate string `json:"examDate"`
}

// Validate checks that every field is present.
func (r StudyPlanRequest) Validate() error {
	return requireFields(map[string]string{"subject": r.Subject, "topics": r.Topics, "examDate": r.ExamDate})
}

// NotesRequest is the input for notes generation.
type NotesRequest struct {
	Topic       string `json:"topic"`
	DetailLevel string `json:"detailLevel"`
	Format      string `json:"format"`
}

// Validate checks that every field is present.
func (r NotesRequest) Validate() error {
	return requireFields(map[string]string{"topic": r.Topic, "detailLevel": r.DetailLevel, "format": r.Format})
}

// ExplanationRequest is the input for real-world explanation generation.
type ExplanationRequest struct {
	Topic string `json:"topic"`
}

// Validate checks that the topic is present.
func (r ExplanationRequest) Validate() error {
	return requireFields(map[string]string{"topic": r.Topic})
}

const (
	MinQuizQuestions = 1
	MaxQuizQuestions = 15
)

// QuizRequest is the input for quiz generation.
type QuizRequest struct {
	Topic        string `json:"topic"`
	Difficulty   string `json:"difficulty"`
	NumQuestions int    `json:"numQuestions"`
}

// Validate checks required fields and the question count range.
func (r QuizRequest) Validate() error {
	if err := requireFields(map[string]string{"topic": r.Topic, "difficulty": r.Difficulty}); err != nil {
		return err
	}
	if r.NumQuestions < MinQuizQuestions || r.NumQuestions > MaxQuizQuestions {
		return fmt.Errorf("%w: numQuestions must be between %d and %d", ErrInvalidRequest, MinQuizQuestions, MaxQuizQuestions)
	}
	return nil
}

func requireFields(fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if fields[name] == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
		}
	}
	return nil
}

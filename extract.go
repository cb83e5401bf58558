package studycompanion

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ExtractJSONSpan returns the text from the first '{' to the last '}' in raw.
// The match is greedy, not balanced: a response holding two separate
// objects yields one span covering both, which then fails to parse.
// An opening brace with no closing brace after it spans to the end of raw,
// so "{ invalid" is reported as malformed rather than missing.
func ExtractJSONSpan(raw string) (string, error) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", &ExtractionError{Kind: KindNoJSONFound}
	}
	end := strings.LastIndex(raw, "}")
	if end < start {
		return raw[start:], nil
	}
	return raw[start : end+1], nil
}

// decodeSpan parses the JSON span of raw into a generic document. Only
// syntax errors count as malformed; field types are coerced by the callers.
func decodeSpan(raw string) (map[string]any, error) {
	span, err := ExtractJSONSpan(raw)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		return nil, &ExtractionError{Kind: KindMalformedJSON, Err: err}
	}
	return doc, nil
}

// ExtractStudyPlan parses the study plan embedded in a model response.
// subject and examDate come from the original request and override whatever
// the model echoed back. Topic fields are coerced best effort: "60" and 60.0
// both read as a duration of 60, and a non-array topics value yields none.
func ExtractStudyPlan(raw, subject, examDate string) (*StudyPlan, error) {
	doc, err := decodeSpan(raw)
	if err != nil {
		return nil, err
	}
	plan := StudyPlan{
		ID:       newPlanID(),
		Subject:  subject,
		ExamDate: examDate,
	}
	if items, ok := doc["topics"].([]any); ok {
		plan.Topics = make([]Topic, 0, len(items))
		for _, item := range items {
			if t, ok := looseTopic(item); ok {
				plan.Topics = append(plan.Topics, t)
			}
		}
	}
	return &plan, nil
}

// ExtractQuiz parses the {"questions": [...]} wrapper embedded in a model
// response. correctAnswer membership is not checked here; see QuizChecker.
func ExtractQuiz(raw string) ([]QuizQuestion, error) {
	doc, err := decodeSpan(raw)
	if err != nil {
		return nil, err
	}
	items, ok := doc["questions"].([]any)
	if !ok {
		return nil, nil
	}
	questions := make([]QuizQuestion, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q := QuizQuestion{
			ID:            looseInt(fields["id"]),
			Question:      looseString(fields["question"]),
			CorrectAnswer: looseString(fields["correctAnswer"]),
		}
		if options, ok := fields["options"].([]any); ok {
			q.Options = make([]string, 0, len(options))
			for _, o := range options {
				q.Options = append(q.Options, looseString(o))
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// looseTopic reads a topic object, or a bare string as a topic name.
func looseTopic(v any) (Topic, bool) {
	switch x := v.(type) {
	case string:
		return Topic{Name: x}, true
	case map[string]any:
		return Topic{
			Name:     looseString(x["name"]),
			Duration: looseInt(x["duration"]),
			IsBreak:  looseBool(x["isBreak"]),
		}, true
	}
	return Topic{}, false
}

func looseString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func looseInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(math.Round(x))
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return int(math.Round(f))
		}
	}
	return 0
}

func looseBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(x))
		return b
	}
	return false
}

func newPlanID() string {
	return fmt.Sprintf("sp-%d", time.Now().UnixMilli())
}

package studycompanion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeGenerator returns a canned response and records the prompts it saw.
type fakeGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	systems  []string
	prompts  []string
}

func (f *fakeGenerator) Generate(_ context.Context, systemPrompt, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systems = append(f.systems, systemPrompt)
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

const validQuizResponse = `Here is the quiz:
{"questions":[
  {"id":1,"question":"2+2?","options":["3","4","5","6"],"correctAnswer":"4"},
  {"id":2,"question":"3+3?","options":["5","6","7","8"],"correctAnswer":"6"}
]}`

func TestGenerateStudyPlan(t *testing.T) {
	gen := &fakeGenerator{response: `Plan: {"topics":[{"name":"Limits","duration":45,"isBreak":false}]}`}
	sc := NewStudyCompanion(gen)

	plan, err := sc.GenerateStudyPlan(context.Background(), StudyPlanRequest{
		Subject: "Calculus", Topics: "Limits, Derivatives", ExamDate: "25/12/2025 11:30 PM",
	})
	require.NoError(t, err)

	assert.Equal(t, "Calculus", plan.Subject)
	assert.Equal(t, "25/12/2025 11:30 PM", plan.ExamDate)
	assert.Equal(t, []Topic{{Name: "Limits", Duration: 45}}, plan.Topics)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Limits, Derivatives")
	assert.Contains(t, gen.prompts[0], `"isBreak"`)
	assert.Equal(t, systemStudyPlan, gen.systems[0])
}

func TestGenerateStudyPlan_Errors(t *testing.T) {
	ctx := context.Background()
	req := StudyPlanRequest{Subject: "Calculus", Topics: "Limits", ExamDate: "25/12/2025"}

	t.Run("invalid request skips the model", func(t *testing.T) {
		gen := &fakeGenerator{}
		_, err := NewStudyCompanion(gen).GenerateStudyPlan(ctx, StudyPlanRequest{Subject: "Calculus"})
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Empty(t, gen.prompts)
	})

	t.Run("model error", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		_, err := NewStudyCompanion(&fakeGenerator{err: boom}).GenerateStudyPlan(ctx, req)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no json", func(t *testing.T) {
		_, err := NewStudyCompanion(&fakeGenerator{response: "I can't do that."}).GenerateStudyPlan(ctx, req)
		assert.ErrorIs(t, err, ErrNoJSONFound)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := NewStudyCompanion(&fakeGenerator{response: "{ invalid"}).GenerateStudyPlan(ctx, req)
		assert.ErrorIs(t, err, ErrMalformedJSON)
	})
}

func TestGenerateNotesAndExplanation(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{response: "# Limits\n\n<script>x()</script>\n\n**key** idea"}
	sc := NewStudyCompanion(gen)

	notes, err := sc.GenerateNotes(ctx, NotesRequest{Topic: "Limits", DetailLevel: "detailed", Format: "bullet points"})
	require.NoError(t, err)
	assert.Equal(t, gen.response, notes.Content)
	assert.Contains(t, notes.HTML, "<strong>key</strong>")
	assert.NotContains(t, notes.HTML, "<script")
	assert.Contains(t, gen.prompts[0], "bullet points")

	explanation, err := sc.GenerateExplanation(ctx, ExplanationRequest{Topic: "Limits"})
	require.NoError(t, err)
	assert.Equal(t, gen.response, explanation.Content)
	assert.Equal(t, systemExplanation, gen.systems[1])

	_, err = sc.GenerateNotes(ctx, NotesRequest{Topic: "Limits"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGenerateQuiz(t *testing.T) {
	gen := &fakeGenerator{response: validQuizResponse}
	sc := NewStudyCompanion(gen)

	questions, err := sc.GenerateQuiz(context.Background(), QuizRequest{Topic: "Arithmetic", Difficulty: "easy", NumQuestions: 2})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "6", questions[1].CorrectAnswer)
	assert.True(t, strings.Contains(gen.prompts[0], "2 questions"))

	_, err = sc.GenerateQuiz(context.Background(), QuizRequest{Topic: "Arithmetic", Difficulty: "easy", NumQuestions: 16})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGenerateQuiz_StrictMode(t *testing.T) {
	ctx := context.Background()
	req := QuizRequest{Topic: "Arithmetic", Difficulty: "easy", NumQuestions: 1}
	bad := `{"questions":[{"id":1,"question":"2+2?","options":["3","4","5","6"],"correctAnswer":"four"}]}`

	questions, err := NewStudyCompanion(&fakeGenerator{response: bad}).GenerateQuiz(ctx, req)
	require.NoError(t, err)
	assert.Len(t, questions, 1)

	_, err = NewStudyCompanion(&fakeGenerator{response: bad}, WithStrictQuiz(true)).GenerateQuiz(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidQuiz)

	questions, err = NewStudyCompanion(&fakeGenerator{response: validQuizResponse}, WithStrictQuiz(true)).GenerateQuiz(ctx, req)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestGenerateQuiz_StrictModeConcurrent(t *testing.T) {
	sc := NewStudyCompanion(&fakeGenerator{response: validQuizResponse}, WithStrictQuiz(true))
	req := QuizRequest{Topic: "Arithmetic", Difficulty: "easy", NumQuestions: 2}

	var wg sync.WaitGroup
	errs := make(chan error, 8*50)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				if _, err := sc.GenerateQuiz(context.Background(), req); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestStudyCompanion_LogsExchanges(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	llmLog := newLLMLoggerWith(zap.New(core))

	sc := NewStudyCompanion(&fakeGenerator{response: "no json here"}, WithLLMLogger(llmLog))
	_, err := sc.GenerateQuiz(context.Background(), QuizRequest{Topic: "Arithmetic", Difficulty: "easy", NumQuestions: 1})
	require.Error(t, err)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "llm request", entries[0].Message)
	assert.Equal(t, "llm response", entries[1].Message)
	assert.Equal(t, "extraction failed", entries[2].Message)

	requestID := entries[0].ContextMap()["request_id"]
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, entries[2].ContextMap()["request_id"])
	assert.Equal(t, KindQuiz, entries[2].ContextMap()["module"])
}

func TestNewTextGenerator(t *testing.T) {
	gen, err := NewTextGenerator(context.Background(), AIConfig{Provider: ProviderOpenAI, OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, gen)

	_, err = NewTextGenerator(context.Background(), AIConfig{Provider: "claude"})
	assert.Error(t, err)
}

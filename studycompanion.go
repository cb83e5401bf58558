package studycompanion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generation kinds, used in logs and metrics.
const (
	KindStudyPlan   = "study_plan"
	KindNotes       = "notes"
	KindExplanation = "explanation"
	KindQuiz        = "quiz"
)

// GeneratedContent is markdown returned by the model plus its sanitised HTML.
type GeneratedContent struct {
	Content string `json:"content"`
	HTML    string `json:"html"`
}

// StudyCompanion turns study requests into prompts, calls the model and
// converts its text into records.
type StudyCompanion struct {
	gen        TextGenerator
	llmLog     *LLMLogger
	checker    *QuizChecker
	strictQuiz bool
}

type Option func(*StudyCompanion)

// WithLLMLogger records every model exchange to l.
func WithLLMLogger(l *LLMLogger) Option {
	return func(sc *StudyCompanion) { sc.llmLog = l }
}

// WithStrictQuiz rejects generated quizzes that break the question contract
// instead of passing them through unchecked.
func WithStrictQuiz(strict bool) Option {
	return func(sc *StudyCompanion) { sc.strictQuiz = strict }
}

// NewStudyCompanion creates a companion backed by gen.
func NewStudyCompanion(gen TextGenerator, opts ...Option) *StudyCompanion {
	sc := &StudyCompanion{
		gen:     gen,
		checker: NewQuizChecker(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// GenerateStudyPlan asks the model for a plan and extracts it. The plan is
// stamped with req.Subject and req.ExamDate.
func (sc *StudyCompanion) GenerateStudyPlan(ctx context.Context, req StudyPlanRequest) (*StudyPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID, text, err := sc.generate(ctx, KindStudyPlan, systemStudyPlan, buildStudyPlanPrompt(req))
	if err != nil {
		return nil, err
	}

	plan, err := ExtractStudyPlan(text, req.Subject, req.ExamDate)
	sc.recordExtraction(requestID, KindStudyPlan, err)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated study plan: %w", err)
	}

	Logger().Info("Study plan generated",
		zap.String("request_id", requestID),
		zap.String("plan_id", plan.ID),
		zap.Int("topics", len(plan.Topics)),
	)
	return plan, nil
}

// GenerateNotes asks the model for markdown notes.
func (sc *StudyCompanion) GenerateNotes(ctx context.Context, req NotesRequest) (*GeneratedContent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return sc.generateMarkdown(ctx, KindNotes, systemNotes, buildNotesPrompt(req))
}

// GenerateExplanation asks the model for a real-world explanation.
func (sc *StudyCompanion) GenerateExplanation(ctx context.Context, req ExplanationRequest) (*GeneratedContent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return sc.generateMarkdown(ctx, KindExplanation, systemExplanation, buildExplanationPrompt(req))
}

// GenerateQuiz asks the model for a quiz and extracts its questions. In
// strict mode the whole quiz is rejected if any question is invalid.
func (sc *StudyCompanion) GenerateQuiz(ctx context.Context, req QuizRequest) ([]QuizQuestion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID, text, err := sc.generate(ctx, KindQuiz, systemQuiz, buildQuizPrompt(req))
	if err != nil {
		return nil, err
	}

	questions, err := ExtractQuiz(text)
	sc.recordExtraction(requestID, KindQuiz, err)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated quiz: %w", err)
	}

	if sc.strictQuiz {
		if err := sc.checker.Validate(questions); err != nil {
			Logger().Warn("Generated quiz rejected", zap.String("request_id", requestID), zap.Error(err))
			return nil, err
		}
	}

	Logger().Info("Quiz generated",
		zap.String("request_id", requestID),
		zap.String("topic", req.Topic),
		zap.Int("questions", len(questions)),
	)
	return questions, nil
}

func (sc *StudyCompanion) generateMarkdown(ctx context.Context, kind, system, prompt string) (*GeneratedContent, error) {
	_, text, err := sc.generate(ctx, kind, system, prompt)
	if err != nil {
		return nil, err
	}
	html, err := RenderMarkdown(text)
	if err != nil {
		return nil, err
	}
	return &GeneratedContent{Content: text, HTML: html}, nil
}

// generate calls the model once. There is no retry: a failed request is
// reported and the user resubmits.
func (sc *StudyCompanion) generate(ctx context.Context, kind, system, prompt string) (string, string, error) {
	requestID := uuid.NewString()
	Logger().Debug("Calling model", zap.String("request_id", requestID), zap.String("kind", kind))
	sc.llmLog.LogLLMRequest(requestID, kind, prompt)

	start := time.Now()
	text, err := sc.gen.Generate(ctx, system, prompt)
	elapsed := time.Since(start)
	generationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())

	if err != nil {
		generationRequests.WithLabelValues(kind, "model_error").Inc()
		Logger().Error("Model call failed", zap.String("request_id", requestID), zap.String("kind", kind), zap.Error(err))
		return requestID, "", err
	}

	sc.llmLog.LogLLMResponse(requestID, kind, text, elapsed)
	if kind == KindNotes || kind == KindExplanation {
		generationRequests.WithLabelValues(kind, "ok").Inc()
	}
	return requestID, text, nil
}

func (sc *StudyCompanion) recordExtraction(requestID, kind string, err error) {
	sc.llmLog.LogExtractionResult(requestID, kind, err)
	if err == nil {
		generationRequests.WithLabelValues(kind, "ok").Inc()
		return
	}

	generationRequests.WithLabelValues(kind, "extraction_error").Inc()
	reason := string(KindMalformedJSON)
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		reason = string(extractionErr.Kind)
	}
	extractionFailures.WithLabelValues(kind, reason).Inc()
	Logger().Warn("Failed to extract model output", zap.String("request_id", requestID), zap.String("kind", kind), zap.Error(err))
}

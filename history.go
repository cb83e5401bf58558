package studycompanion

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// History is the append-only record of quiz results and generated content
// for one session.
type History struct {
	mu        sync.Mutex
	store     Store
	namespace string
	now       func() time.Time
}

func NewHistory(store Store, namespace string) *History {
	return &History{store: store, namespace: namespace, now: time.Now}
}

func appendJSON[T any](ctx context.Context, h *History, key string, item T) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var items []T
	if _, err := getJSON(ctx, h.store, h.namespace, key, &items); err != nil {
		return err
	}
	items = append(items, item)
	return setJSON(ctx, h.store, h.namespace, key, items)
}

func listJSON[T any](ctx context.Context, h *History, key string) ([]T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var items []T
	if _, err := getJSON(ctx, h.store, h.namespace, key, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AppendQuizResult validates r, stamps missing id/timestamp and appends it.
func (h *History) AppendQuizResult(ctx context.Context, r QuizResult) (QuizResult, error) {
	if err := r.Validate(); err != nil {
		return QuizResult{}, err
	}
	now := h.now()
	if r.Timestamp.IsZero() {
		r.Timestamp = now.UTC()
	}
	if r.ID == 0 {
		r.ID = now.UnixMilli()
	}
	if err := appendJSON(ctx, h, KeyQuizResults, r); err != nil {
		return QuizResult{}, fmt.Errorf("failed to save quiz result: %w", err)
	}
	return r, nil
}

func (h *History) QuizResults(ctx context.Context) ([]QuizResult, error) {
	return listJSON[QuizResult](ctx, h, KeyQuizResults)
}

// AppendNote stamps missing id/createdAt and appends n.
func (h *History) AppendNote(ctx context.Context, n Note) (Note, error) {
	if n.Topic == "" || n.Content == "" {
		return Note{}, fmt.Errorf("%w: topic and content are required", ErrInvalidRequest)
	}
	now := h.now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now.UTC()
	}
	if n.ID == "" {
		n.ID = fmt.Sprintf("note-%d", now.UnixMilli())
	}
	if err := appendJSON(ctx, h, KeyGeneratedNotes, n); err != nil {
		return Note{}, fmt.Errorf("failed to save note: %w", err)
	}
	return n, nil
}

func (h *History) Notes(ctx context.Context) ([]Note, error) {
	return listJSON[Note](ctx, h, KeyGeneratedNotes)
}

// AppendExplanation stamps missing id/createdAt and appends e.
func (h *History) AppendExplanation(ctx context.Context, e Explanation) (Explanation, error) {
	if e.Topic == "" || e.Content == "" {
		return Explanation{}, fmt.Errorf("%w: topic and content are required", ErrInvalidRequest)
	}
	now := h.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("explanation-%d", now.UnixMilli())
	}
	if err := appendJSON(ctx, h, KeyRealWorldExplanations, e); err != nil {
		return Explanation{}, fmt.Errorf("failed to save explanation: %w", err)
	}
	return e, nil
}

func (h *History) Explanations(ctx context.Context) ([]Explanation, error) {
	return listJSON[Explanation](ctx, h, KeyRealWorldExplanations)
}

package studycompanion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PlanContext holds the active study plan and its completion map for one
// session. Load must be called before use; SetStudyPlan replaces the plan
// and clears completion.
type PlanContext struct {
	mu         sync.Mutex
	store      Store
	namespace  string
	loadOnce   sync.Once
	plan       *StudyPlan
	completion CompletionMap
}

func NewPlanContext(store Store, namespace string) *PlanContext {
	return &PlanContext{
		store:      store,
		namespace:  namespace,
		completion: CompletionMap{},
	}
}

// Load reads persisted state once. Later calls are no-ops. Unreadable state
// is logged and treated as absent. The read is not cut short by ctx being
// cancelled, since a failed load is never retried.
func (pc *PlanContext) Load(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	pc.loadOnce.Do(func() {
		pc.mu.Lock()
		defer pc.mu.Unlock()

		var plan StudyPlan
		found, err := getJSON(ctx, pc.store, pc.namespace, KeyStudyPlan, &plan)
		if err != nil {
			Logger().Warn("Failed to load study plan", zap.String("session", pc.namespace), zap.Error(err))
		} else if found {
			pc.plan = &plan
		}

		var completion CompletionMap
		found, err = getJSON(ctx, pc.store, pc.namespace, KeyCompletedTopics, &completion)
		if err != nil {
			Logger().Warn("Failed to load completed topics", zap.String("session", pc.namespace), zap.Error(err))
		} else if found && completion != nil {
			pc.completion = completion
		}
	})
}

// StudyPlan returns a copy of the active plan.
func (pc *PlanContext) StudyPlan() (*StudyPlan, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.plan == nil {
		return nil, false
	}
	plan := *pc.plan
	plan.Topics = append([]Topic(nil), pc.plan.Topics...)
	return &plan, true
}

func (pc *PlanContext) HasStudyPlan() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.plan != nil
}

// SetStudyPlan makes plan the active plan and resets completion, discarding
// indices that referred to the previous plan.
func (pc *PlanContext) SetStudyPlan(ctx context.Context, plan *StudyPlan) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	stored := *plan
	stored.Topics = append([]Topic(nil), plan.Topics...)
	pc.plan = &stored
	pc.completion = CompletionMap{}

	pc.persist(ctx, KeyStudyPlan, pc.plan)
	pc.persist(ctx, KeyCompletedTopics, pc.completion)
}

// ToggleTopic flips the completion flag of the topic at index and returns
// the resulting progress.
func (pc *PlanContext) ToggleTopic(ctx context.Context, index int) (Progress, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.plan == nil {
		return Progress{}, ErrNoStudyPlan
	}
	if index < 0 || index >= len(pc.plan.Topics) {
		return Progress{}, fmt.Errorf("%w: topic index %d out of range", ErrInvalidRequest, index)
	}

	pc.completion = ToggleTopicCompletion(pc.completion, index)
	pc.persist(ctx, KeyCompletedTopics, pc.completion)
	return ComputeProgress(pc.plan.Topics, pc.completion), nil
}

// TopicStatus reports whether the topic at index is marked done.
func (pc *PlanContext) TopicStatus(index int) bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.completion[index]
}

// Completion returns a copy of the completion map.
func (pc *PlanContext) Completion() CompletionMap {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	out := make(CompletionMap, len(pc.completion))
	for k, v := range pc.completion {
		out[k] = v
	}
	return out
}

func (pc *PlanContext) Progress() (Progress, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.plan == nil {
		return Progress{}, ErrNoStudyPlan
	}
	return ComputeProgress(pc.plan.Topics, pc.completion), nil
}

// Countdown returns the time left until the active plan's exam.
func (pc *PlanContext) Countdown(now time.Time) (Countdown, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.plan == nil {
		return Countdown{}, ErrNoStudyPlan
	}
	return ComputeCountdown(parseExamTimestamp(pc.plan.ExamDate, func() time.Time { return now }), now), nil
}

// persist writes v under key. Failures are logged, never returned: the
// in-memory state stays authoritative for the session. The write outlives
// a cancelled ctx so the store matches memory.
func (pc *PlanContext) persist(ctx context.Context, key string, v any) {
	if err := setJSON(context.WithoutCancel(ctx), pc.store, pc.namespace, key, v); err != nil {
		Logger().Warn("Failed to persist session state",
			zap.String("session", pc.namespace),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// BusyGate admits one generation request at a time.
type BusyGate struct {
	mu   sync.Mutex
	busy bool
}

// TryAcquire marks the gate busy or returns ErrBusy. The returned release
// function must be called when the request finishes.
func (g *BusyGate) TryAcquire() (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.busy {
		return nil, ErrBusy
	}
	g.busy = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.busy = false
			g.mu.Unlock()
		})
	}, nil
}

func (g *BusyGate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

package studycompanion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Keys of the persisted session state. Each value is a JSON blob.
const (
	KeyStudyPlan             = "studyPlan"
	KeyCompletedTopics       = "completedTopics"
	KeyQuizResults           = "quizResults"
	KeyGeneratedNotes        = "generatedNotes"
	KeyRealWorldExplanations = "realWorldExplanations"
)

// Store persists JSON blobs by namespace and key. Get returns ErrNotFound
// for a missing key.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
}

func getJSON(ctx context.Context, s Store, namespace, key string, v any) (bool, error) {
	data, err := s.Get(ctx, namespace, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, s Store, namespace, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, namespace, key, data)
}

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[namespace+"/"+key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[namespace+"/"+key] = append([]byte(nil), value...)
	return nil
}

// FallbackStore serves from a primary store until it fails, then switches
// to memory for good. Errors caused by a cancelled or expired caller
// context are returned as is and do not count as failures. Generation keeps working; history across restarts is
// lost from that point.
type FallbackStore struct {
	mu       sync.RWMutex
	primary  Store
	memory   *MemoryStore
	degraded bool
}

func NewFallbackStore(primary Store) *FallbackStore {
	return &FallbackStore{primary: primary, memory: NewMemoryStore()}
}

// Degraded reports whether the store has fallen back to memory.
func (f *FallbackStore) Degraded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.degraded
}

func (f *FallbackStore) current() Store {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.degraded {
		return f.memory
	}
	return f.primary
}

func (f *FallbackStore) degrade(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.degraded {
		return
	}
	f.degraded = true
	storeFallbacks.Inc()
	Logger().Warn("Persistence unavailable, continuing in memory",
		zap.String("op", op),
		zap.Error(fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)),
	)
}

func (f *FallbackStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	s := f.current()
	v, err := s.Get(ctx, namespace, key)
	if err == nil || errors.Is(err, ErrNotFound) || s == Store(f.memory) || callerGaveUp(ctx, err) {
		return v, err
	}
	f.degrade("get", err)
	return f.memory.Get(ctx, namespace, key)
}

func (f *FallbackStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	s := f.current()
	err := s.Set(ctx, namespace, key, value)
	if err == nil || s == Store(f.memory) || callerGaveUp(ctx, err) {
		return err
	}
	f.degrade("set", err)
	return f.memory.Set(ctx, namespace, key, value)
}

// callerGaveUp reports whether err comes from the caller's context rather
// than the store. Those errors do not trigger the fallback.
func callerGaveUp(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Ping reports whether the primary store is in use and reachable.
func (f *FallbackStore) Ping(ctx context.Context) error {
	if f.Degraded() {
		return ErrPersistenceUnavailable
	}
	if p, ok := f.primary.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

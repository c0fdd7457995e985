package services

import (
	"context"
	"errors"
	"sync"

	"github.com/exercise-tracker/apiserver/internal/store"
	"github.com/exercise-tracker/apiserver/types"
)

var errBoom = errors.New("connection refused")

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event types.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

// countingExerciseRepo wraps the in-memory repository, counting calls and
// optionally failing them.
type countingExerciseRepo struct {
	*store.InMemoryExerciseRepository
	creates   int
	lists     int
	createErr error
	listErr   error
}

func newCountingExerciseRepo() *countingExerciseRepo {
	return &countingExerciseRepo{InMemoryExerciseRepository: store.NewInMemoryExerciseRepository()}
}

func (r *countingExerciseRepo) Create(ctx context.Context, exercise types.Exercise) (types.Exercise, error) {
	r.creates++
	if r.createErr != nil {
		return types.Exercise{}, r.createErr
	}
	return r.InMemoryExerciseRepository.Create(ctx, exercise)
}

func (r *countingExerciseRepo) List(ctx context.Context, filter types.ExerciseFilter) ([]types.Exercise, error) {
	r.lists++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.InMemoryExerciseRepository.List(ctx, filter)
}

type failingUserRepo struct {
	*store.InMemoryUserRepository
	createErr error
	listErr   error
	getErr    error
}

func (r *failingUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if r.createErr != nil {
		return types.User{}, r.createErr
	}
	return r.InMemoryUserRepository.Create(ctx, user)
}

func (r *failingUserRepo) List(ctx context.Context) ([]types.User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.InMemoryUserRepository.List(ctx)
}

func (r *failingUserRepo) GetByID(ctx context.Context, id string) (types.User, error) {
	if r.getErr != nil {
		return types.User{}, r.getErr
	}
	return r.InMemoryUserRepository.GetByID(ctx, id)
}

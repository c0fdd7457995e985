package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/exercise-tracker/apiserver/types"
	"github.com/google/uuid"
)

// InMemoryUserRepository stores users in memory for local development and tests.
type InMemoryUserRepository struct {
	mu         sync.RWMutex
	users      []types.User
	byID       map[string]int
	byUsername map[string]int
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID:       make(map[string]int),
		byUsername: make(map[string]int),
	}
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return r.users[idx], nil
}

func (r *InMemoryUserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byUsername[username]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return r.users[idx], nil
}

func (r *InMemoryUserRepository) List(ctx context.Context) ([]types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return types.User{}, fmt.Errorf("%w: username %q", ErrDuplicate, user.Username)
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	r.users = append(r.users, user)
	r.byID[user.ID] = len(r.users) - 1
	r.byUsername[user.Username] = len(r.users) - 1
	return user, nil
}

// InMemoryExerciseRepository stores exercises in memory for local development and tests.
type InMemoryExerciseRepository struct {
	mu        sync.RWMutex
	exercises []types.Exercise
}

func NewInMemoryExerciseRepository() *InMemoryExerciseRepository {
	return &InMemoryExerciseRepository{}
}

func (r *InMemoryExerciseRepository) Create(ctx context.Context, exercise types.Exercise) (types.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exercise.ID = uuid.NewString()
	exercise.CreatedAt = time.Now().UTC()
	r.exercises = append(r.exercises, exercise)
	return exercise, nil
}

func (r *InMemoryExerciseRepository) List(ctx context.Context, filter types.ExerciseFilter) ([]types.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Exercise, 0)
	for _, exercise := range r.exercises {
		if exercise.UserID != filter.UserID {
			continue
		}
		if filter.From != nil && exercise.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && exercise.Date.After(*filter.To) {
			continue
		}
		out = append(out, exercise)
	}

	// Stable keeps insertion order for exercises sharing a date.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/exercise-tracker/apiserver/internal/observability"
	"github.com/exercise-tracker/apiserver/internal/store"
	"github.com/exercise-tracker/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	events EventPublisher
	logger *slog.Logger
}

func NewUserService(repo UserRepository, events EventPublisher, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:   repo,
		events: events,
		logger: logger.With("component", "user_service"),
	}
}

// Create registers a user. Creating a username that already exists returns
// the existing user instead of failing.
func (s *UserService) Create(ctx context.Context, username string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return types.User{}, invalid("username is required")
	}

	user, err := s.repo.Create(ctx, types.User{Username: username})
	if err == nil {
		observability.RecordUserCreated()
		publish(ctx, s.events, s.logger, types.Event{
			Type:       types.EventUserCreated,
			UserID:     user.ID,
			Username:   user.Username,
			OccurredAt: time.Now().UTC(),
		})
		return user, nil
	}

	if errors.Is(err, store.ErrDuplicate) {
		existing, lookupErr := s.repo.GetByUsername(ctx, username)
		if lookupErr != nil {
			s.logger.ErrorContext(ctx, "failed to load existing user", "username", username, "error", lookupErr)
			return types.User{}, &ValidationError{Message: lookupErr.Error(), Err: lookupErr}
		}
		s.logger.DebugContext(ctx, "returning existing user", "user_id", existing.ID)
		return existing, nil
	}

	s.logger.ErrorContext(ctx, "failed to create user", "username", username, "error", err)
	return types.User{}, &ValidationError{Message: err.Error(), Err: err}
}

// List returns every user in insertion order.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list users", Err: err}
	}
	if users == nil {
		users = []types.User{}
	}
	return users, nil
}

// GetByID loads a user, translating a missing record into ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, &StoreError{Op: "get user", Err: err}
	}
	return user, nil
}

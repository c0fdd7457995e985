package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/exercise-tracker/apiserver/internal/observability"
	"github.com/exercise-tracker/apiserver/types"
)

// ExerciseRepository defines persistence operations for exercises.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise types.Exercise) (types.Exercise, error)
	List(ctx context.Context, filter types.ExerciseFilter) ([]types.Exercise, error)
}

// AddExerciseInput carries the raw request values for a new exercise.
// Duration and Date are unparsed; an empty Date means "now".
type AddExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// ExerciseService encapsulates exercise logging.
type ExerciseService struct {
	users     *UserService
	exercises ExerciseRepository
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewExerciseService(users *UserService, exercises ExerciseRepository, events EventPublisher, logger *slog.Logger) *ExerciseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExerciseService{
		users:     users,
		exercises: exercises,
		events:    events,
		logger:    logger.With("component", "exercise_service"),
		now:       time.Now,
	}
}

// Add validates the input, checks the user exists and records the exercise.
func (s *ExerciseService) Add(ctx context.Context, in AddExerciseInput) (types.LoggedExercise, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return types.LoggedExercise{}, invalid("description is required")
	}

	duration, err := parseInteger(in.Duration)
	switch {
	case errors.Is(err, errOutOfRange):
		return types.LoggedExercise{}, invalid("duration is out of range")
	case err != nil:
		return types.LoggedExercise{}, invalid("duration is required and must be a number")
	}

	date := s.now().UTC()
	if strings.TrimSpace(in.Date) != "" {
		parsed, ok := ParseDate(in.Date)
		if !ok {
			return types.LoggedExercise{}, invalid("date must be a valid date string")
		}
		date = parsed
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return types.LoggedExercise{}, err
	}

	exercise, err := s.exercises.Create(ctx, types.Exercise{
		UserID:      user.ID,
		Description: description,
		Duration:    duration,
		Date:        date,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create exercise", "user_id", user.ID, "error", err)
		return types.LoggedExercise{}, &StoreError{Op: "create exercise", Err: err}
	}

	observability.RecordExerciseLogged()
	publish(ctx, s.events, s.logger, types.Event{
		Type:        types.EventExerciseLogged,
		UserID:      user.ID,
		Username:    user.Username,
		ExerciseID:  exercise.ID,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        FormatDate(exercise.Date),
		OccurredAt:  s.now().UTC(),
	})

	return types.LoggedExercise{
		UserID:      user.ID,
		Username:    user.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        FormatDate(exercise.Date),
	}, nil
}

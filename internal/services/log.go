package services

import (
	"context"
	"log/slog"

	"github.com/exercise-tracker/apiserver/internal/observability"
	"github.com/exercise-tracker/apiserver/types"
)

// LogQuery carries the raw query parameters of a log request. Values that do
// not parse are ignored rather than rejected.
type LogQuery struct {
	UserID string
	From   string
	To     string
	Limit  string
}

// LogService answers exercise log queries.
type LogService struct {
	users     *UserService
	exercises ExerciseRepository
	logger    *slog.Logger
}

func NewLogService(users *UserService, exercises ExerciseRepository, logger *slog.Logger) *LogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogService{
		users:     users,
		exercises: exercises,
		logger:    logger.With("component", "log_service"),
	}
}

// Get returns the user's exercises in ascending date order.
func (s *LogService) Get(ctx context.Context, q LogQuery) (types.ExerciseLog, error) {
	user, err := s.users.GetByID(ctx, q.UserID)
	if err != nil {
		return types.ExerciseLog{}, err
	}

	filter := BuildExerciseFilter(user.ID, q)
	exercises, err := s.exercises.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list exercises", "user_id", user.ID, "error", err)
		return types.ExerciseLog{}, &StoreError{Op: "list exercises", Err: err}
	}

	entries := make([]types.LogEntry, 0, len(exercises))
	for _, exercise := range exercises {
		entries = append(entries, types.LogEntry{
			Description: exercise.Description,
			Duration:    exercise.Duration,
			Date:        FormatDate(exercise.Date),
		})
	}

	observability.RecordLogQuery()
	return types.ExerciseLog{
		UserID:   user.ID,
		Username: user.Username,
		Count:    len(entries),
		Log:      entries,
	}, nil
}

// BuildExerciseFilter turns raw query values into a store filter. Unparsable
// dates leave that bound open. A limit that is not a positive 32-bit
// integer means no limit.
func BuildExerciseFilter(userID string, q LogQuery) types.ExerciseFilter {
	filter := types.ExerciseFilter{UserID: userID}
	if from, ok := ParseDate(q.From); ok {
		filter.From = &from
	}
	if to, ok := ParseDate(q.To); ok {
		filter.To = &to
	}
	if limit, err := parseInteger(q.Limit); err == nil && limit > 0 {
		filter.Limit = limit
	}
	return filter
}

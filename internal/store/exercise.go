package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/exercise-tracker/apiserver/types"
	"github.com/google/uuid"
)

// ExerciseRepository handles persistence for exercises.
type ExerciseRepository struct {
	db *sql.DB
}

func NewExerciseRepository(db *sql.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

func (r *ExerciseRepository) Create(ctx context.Context, exercise types.Exercise) (types.Exercise, error) {
	exercise.ID = uuid.NewString()
	exercise.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO exercises (id, user_id, description, duration, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		exercise.ID,
		exercise.UserID,
		exercise.Description,
		exercise.Duration,
		exercise.Date,
		exercise.CreatedAt,
	); err != nil {
		return types.Exercise{}, err
	}
	return exercise, nil
}

func (r *ExerciseRepository) List(ctx context.Context, filter types.ExerciseFilter) ([]types.Exercise, error) {
	query, args := buildExerciseListQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]types.Exercise, 0)
	for rows.Next() {
		var exercise types.Exercise
		if err := rows.Scan(
			&exercise.ID,
			&exercise.UserID,
			&exercise.Description,
			&exercise.Duration,
			&exercise.Date,
			&exercise.CreatedAt,
		); err != nil {
			return nil, err
		}
		exercise.Date = exercise.Date.UTC()
		exercises = append(exercises, exercise)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return exercises, nil
}

func buildExerciseListQuery(filter types.ExerciseFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`
		SELECT id, user_id, description, duration, date, created_at
		FROM exercises
		WHERE user_id = $1`)
	args := []any{filter.UserID}

	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&b, " AND date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&b, " AND date <= $%d", len(args))
	}

	b.WriteString(" ORDER BY date, created_at, id")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

package types

import "time"

// Exercise is a single logged workout entry owned by a user.
type Exercise struct {
	// ID is the store-assigned identifier of the exercise.
	ID string `json:"-" db:"id"`

	// UserID references the user the exercise was logged for.
	UserID string `json:"-" db:"user_id"`

	// Description is the trimmed free-form text of the exercise.
	Description string `json:"description" db:"description"`

	// Duration is the length of the exercise in minutes.
	Duration int `json:"duration" db:"duration"`

	// Date is when the exercise took place.
	Date time.Time `json:"date" db:"date"`

	// CreatedAt breaks ties between exercises sharing the same date.
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// ExerciseFilter selects exercises for a user's log.
// A nil From or To leaves that side of the range open and a Limit of
// zero or less returns every matching exercise.
type ExerciseFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// LoggedExercise is returned after an exercise is recorded. It carries the
// owning user's identity rather than the exercise's own ID.
type LoggedExercise struct {
	UserID      string `json:"_id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogEntry is one exercise in a user's log.
type LogEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// ExerciseLog is a user's filtered, date-ordered exercise history.
type ExerciseLog struct {
	UserID   string     `json:"_id"`
	Username string     `json:"username"`
	Count    int        `json:"count"`
	Log      []LogEntry `json:"log"`
}

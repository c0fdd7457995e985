package types

import "time"

const (
	EventUserCreated    = "user.created"
	EventExerciseLogged = "exercise.logged"
)

// Event is the payload published to the message broker when users are
// created or exercises are logged.
type Event struct {
	Type        string    `json:"type"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	ExerciseID  string    `json:"exercise_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Duration    int       `json:"duration,omitempty"`
	Date        string    `json:"date,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

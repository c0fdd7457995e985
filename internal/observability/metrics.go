package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Name:      "users_created_total",
		Help:      "Number of new users persisted.",
	})
	exercisesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Name:      "exercises_logged_total",
		Help:      "Number of exercises persisted.",
	})
	logQueriesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Name:      "log_queries_total",
		Help:      "Number of exercise log queries served.",
	})
)

func init() {
	prometheus.MustRegister(usersCreatedCounter, exercisesLoggedCounter, logQueriesCounter)
}

// RecordUserCreated counts a newly inserted user. Idempotent replays are not counted.
func RecordUserCreated() {
	usersCreatedCounter.Inc()
}

// RecordExerciseLogged counts a persisted exercise.
func RecordExerciseLogged() {
	exercisesLoggedCounter.Inc()
}

// RecordLogQuery counts a served log query.
func RecordLogQuery() {
	logQueriesCounter.Inc()
}

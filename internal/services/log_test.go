package services

import (
	"context"
	"testing"
	"time"

	"github.com/exercise-tracker/apiserver/internal/store"
	"github.com/exercise-tracker/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLog(t *testing.T) (*LogService, *countingExerciseRepo, types.User) {
	t.Helper()
	ctx := context.Background()
	users := NewUserService(store.NewInMemoryUserRepository(), nil, nil)
	exercises := newCountingExerciseRepo()
	adder := NewExerciseService(users, exercises, nil, nil)

	user, err := users.Create(ctx, "alice")
	require.NoError(t, err)

	for _, in := range []AddExerciseInput{
		{Description: "c", Duration: "30", Date: "2024-03-01"},
		{Description: "a", Duration: "10", Date: "2024-01-01"},
		{Description: "b", Duration: "20", Date: "2024-02-01"},
	} {
		in.UserID = user.ID
		_, err := adder.Add(ctx, in)
		require.NoError(t, err)
	}
	exercises.creates = 0

	return NewLogService(users, exercises, nil), exercises, user
}

func descriptions(log types.ExerciseLog) []string {
	out := make([]string, 0, len(log.Log))
	for _, entry := range log.Log {
		out = append(out, entry.Description)
	}
	return out
}

func TestLogServiceGet(t *testing.T) {
	svc, _, user := seedLog(t)

	log, err := svc.Get(context.Background(), LogQuery{UserID: user.ID})
	require.NoError(t, err)

	assert.Equal(t, user.ID, log.UserID)
	assert.Equal(t, "alice", log.Username)
	assert.Equal(t, 3, log.Count)
	assert.Equal(t, []string{"a", "b", "c"}, descriptions(log))
	assert.Equal(t, types.LogEntry{Description: "a", Duration: 10, Date: "Mon Jan 01 2024"}, log.Log[0])
}

func TestLogServiceGetFilters(t *testing.T) {
	tests := []struct {
		name  string
		query LogQuery
		want  []string
	}{
		{name: "from", query: LogQuery{From: "2024-02-01"}, want: []string{"b", "c"}},
		{name: "to", query: LogQuery{To: "2024-02-01"}, want: []string{"a", "b"}},
		{name: "range", query: LogQuery{From: "2024-01-15", To: "2024-02-15"}, want: []string{"b"}},
		{name: "limit", query: LogQuery{Limit: "2"}, want: []string{"a", "b"}},
		{name: "fractional limit", query: LogQuery{Limit: "1.7"}, want: []string{"a"}},
		{name: "zero limit", query: LogQuery{Limit: "0"}, want: []string{"a", "b", "c"}},
		{name: "negative limit", query: LogQuery{Limit: "-1"}, want: []string{"a", "b", "c"}},
		{name: "invalid limit", query: LogQuery{Limit: "abc"}, want: []string{"a", "b", "c"}},
		{name: "exponent limit", query: LogQuery{Limit: "1e3"}, want: []string{"a"}},
		{name: "huge limit", query: LogQuery{Limit: "99999999999"}, want: []string{"a", "b", "c"}},
		{name: "invalid from", query: LogQuery{From: "garbage"}, want: []string{"a", "b", "c"}},
		{name: "empty range", query: LogQuery{From: "2025-01-01"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, user := seedLog(t)
			tt.query.UserID = user.ID

			log, err := svc.Get(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, descriptions(log))
			assert.Equal(t, len(tt.want), log.Count)
			assert.NotNil(t, log.Log)
		})
	}
}

func TestLogServiceGetUnknownUser(t *testing.T) {
	svc, exercises, _ := seedLog(t)

	_, err := svc.Get(context.Background(), LogQuery{UserID: "missing"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, exercises.lists)
}

func TestLogServiceGetStoreFailure(t *testing.T) {
	svc, exercises, user := seedLog(t)
	exercises.listErr = errBoom

	_, err := svc.Get(context.Background(), LogQuery{UserID: user.ID})
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
}

func TestBuildExerciseFilter(t *testing.T) {
	filter := BuildExerciseFilter("u1", LogQuery{From: "2024-01-01", To: "nope", Limit: "5"})

	assert.Equal(t, "u1", filter.UserID)
	require.NotNil(t, filter.From)
	assert.True(t, filter.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, filter.To)
	assert.Equal(t, 5, filter.Limit)

	assert.Equal(t, 1, BuildExerciseFilter("u1", LogQuery{Limit: "1e3"}).Limit)
	assert.Zero(t, BuildExerciseFilter("u1", LogQuery{Limit: "3000000000"}).Limit)
}

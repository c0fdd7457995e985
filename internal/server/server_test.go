package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/exercise-tracker/apiserver/config"
	"github.com/exercise-tracker/apiserver/internal/mq"
	"github.com/exercise-tracker/apiserver/internal/store"
	"github.com/exercise-tracker/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		ServerPort:   0,
		LogLevel:     "info",
		CORSOrigins:  []string{"https://tracker.example"},
		StoreBackend: config.StoreBackendMemory,
		MQ:           config.MQConfig{Backend: config.MQBackendNone},
	}
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewWithMemoryStore(t *testing.T) {
	srv, err := New(context.Background(), memoryConfig(), quiet)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.PostForm(ts.URL+"/api/users", url.Values{"username": {"alice"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "exercise_tracker_users_created_total")
}

func TestRunClosesBackendsWhenListenFails(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := memoryConfig()
	cfg.ServerPort = ln.Addr().(*net.TCPAddr).Port
	srv, err := New(context.Background(), cfg, quiet)
	require.NoError(t, err)

	var closed int
	srv.closeStore = func() { closed++ }

	err = srv.Run(context.Background(), time.Second)
	require.Error(t, err)
	assert.ErrorContains(t, err, "serve")
	assert.Equal(t, 1, closed)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Equal(t, 1, closed)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv, err := New(context.Background(), memoryConfig(), quiet)
	require.NoError(t, err)

	var closed int
	srv.closeStore = func() { closed++ }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, srv.Run(ctx, time.Second))
	assert.Equal(t, 1, closed)
}

func TestNewRejectsUnknownStore(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreBackend = "sqlite"

	_, err := New(context.Background(), cfg, quiet)
	assert.ErrorContains(t, err, "unsupported store backend")
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(memoryConfig(), Repositories{
		Users:     store.NewInMemoryUserRepository(),
		Exercises: store.NewInMemoryExerciseRepository(),
	}, nil, quiet)

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "https://tracker.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://tracker.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

type publishedMessage struct {
	channel string
	data    []byte
	attrs   map[string]string
}

// recordingBackend captures publishes instead of talking to a broker.
type recordingBackend struct {
	mu        sync.Mutex
	published []publishedMessage
}

func (b *recordingBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, publishedMessage{channel: channel, data: data, attrs: attrs})
	return fmt.Sprintf("m-%d", len(b.published)), nil
}

func (b *recordingBackend) Subscribe(ctx context.Context, _ string, _ mq.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *recordingBackend) Close() error { return nil }

func TestRouterPublishesEvents(t *testing.T) {
	backend := &recordingBackend{}
	router := NewRouter(memoryConfig(), Repositories{
		Users:     store.NewInMemoryUserRepository(),
		Exercises: store.NewInMemoryExerciseRepository(),
	}, mq.NewEventPublisher(mq.New(backend, "tracker.")), quiet)

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, backend.published, 1)
	msg := backend.published[0]
	assert.Equal(t, "tracker."+types.EventUserCreated, msg.channel)
	assert.Equal(t, "application/json", msg.attrs[mq.AttrContentType])

	event, err := mq.DecodeEvent(mq.Message{ID: "m-1", Data: msg.data})
	require.NoError(t, err)
	assert.Equal(t, "alice", event.Username)
}

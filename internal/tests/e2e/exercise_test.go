//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/exercise-tracker/apiserver/config"
	"github.com/exercise-tracker/apiserver/internal/db"
	"github.com/exercise-tracker/apiserver/internal/logger"
	"github.com/exercise-tracker/apiserver/internal/server"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const serverPort = 18080

var baseURL = fmt.Sprintf("http://localhost:%d", serverPort)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("exercise_tracker"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
		postgrescontainer.BasicWaitStrategies(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
		os.Exit(1)
	}

	srv, err := startServer(ctx, pg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = testcontainers.TerminateContainer(pg)
		os.Exit(1)
	}

	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown(context.Background())
		_ = testcontainers.TerminateContainer(pg)
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown(context.Background())
	_ = testcontainers.TerminateContainer(pg)
	os.Exit(code)
}

func TestExerciseLifecycle(t *testing.T) {
	username := fmt.Sprintf("runner_%d", time.Now().UnixNano())

	user, err := createUser(username)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == "" || user.Username != username {
		t.Fatalf("unexpected user: %+v", user)
	}

	again, err := createUser(username)
	if err != nil {
		t.Fatalf("create duplicate user: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("duplicate username returned a different id: %q != %q", again.ID, user.ID)
	}

	for _, ex := range []url.Values{
		{"description": {"tempo run"}, "duration": {"40"}, "date": {"2024-02-10"}},
		{"description": {"easy run"}, "duration": {"25.8"}, "date": {"2024-01-05"}},
		{"description": {"intervals"}, "duration": {"30"}, "date": {"2024-03-01"}},
	} {
		added, err := addExercise(user.ID, ex)
		if err != nil {
			t.Fatalf("add exercise: %v", err)
		}
		if added.ID != user.ID || added.Username != username {
			t.Fatalf("exercise response should echo the user: %+v", added)
		}
	}

	log, err := getLog(user.ID, "")
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if log.Count != 3 || len(log.Log) != 3 {
		t.Fatalf("expected 3 exercises, got %+v", log)
	}
	if log.Log[0].Description != "easy run" || log.Log[0].Duration != 25 || log.Log[0].Date != "Fri Jan 05 2024" {
		t.Fatalf("unexpected first entry: %+v", log.Log[0])
	}

	filtered, err := getLog(user.ID, "from=2024-02-01&to=2024-12-31&limit=1")
	if err != nil {
		t.Fatalf("get filtered log: %v", err)
	}
	if filtered.Count != 1 || filtered.Log[0].Description != "tempo run" {
		t.Fatalf("unexpected filtered log: %+v", filtered)
	}

	if err := expectStatus(http.MethodGet, baseURL+"/api/users/unknown/logs", http.StatusNotFound); err != nil {
		t.Fatal(err)
	}
}

type userResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

type exerciseResponse struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

type logResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Count    int    `json:"count"`
	Log      []struct {
		Description string `json:"description"`
		Duration    int    `json:"duration"`
		Date        string `json:"date"`
	} `json:"log"`
}

func createUser(username string) (userResponse, error) {
	var parsed userResponse
	err := postForm(baseURL+"/api/users", url.Values{"username": {username}}, &parsed)
	return parsed, err
}

func addExercise(userID string, form url.Values) (exerciseResponse, error) {
	var parsed exerciseResponse
	err := postForm(fmt.Sprintf("%s/api/users/%s/exercises", baseURL, userID), form, &parsed)
	return parsed, err
}

func getLog(userID, rawQuery string) (logResponse, error) {
	endpoint := fmt.Sprintf("%s/api/users/%s/logs", baseURL, userID)
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}
	resp, err := http.Get(endpoint)
	if err != nil {
		return logResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return logResponse{}, fmt.Errorf("get log status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var parsed logResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return logResponse{}, err
	}
	return parsed, nil
}

func postForm(endpoint string, form url.Values, out any) error {
	resp, err := http.PostForm(endpoint, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func expectStatus(method, endpoint string, want int) error {
	req, err := http.NewRequest(method, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return fmt.Errorf("%s %s: expected status %d, got %d", method, endpoint, want, resp.StatusCode)
	}
	return nil
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func startServer(ctx context.Context, pg *postgrescontainer.PostgresContainer) (*server.Server, error) {
	host, err := pg.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, err
	}

	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("STORE_BACKEND", "postgres")
	_ = os.Setenv("DB_HOST", host)
	_ = os.Setenv("DB_PORT", port.Port())
	_ = os.Setenv("DB_USER", "tracker")
	_ = os.Setenv("DB_PASSWORD", "tracker")
	_ = os.Setenv("DB_NAME", "exercise_tracker")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(db.PostgresURL(cfg.Database)); err != nil {
		return nil, err
	}

	srv, err := server.New(ctx, cfg, logger.Setup(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

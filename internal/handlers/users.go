package handlers

import (
	"log/slog"
	"net/http"

	"github.com/exercise-tracker/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

const userIDParam = "_id"

// UserHandler serves the user, exercise and log endpoints.
type UserHandler struct {
	userService     *services.UserService
	exerciseService *services.ExerciseService
	logService      *services.LogService
	logger          *slog.Logger
}

func NewUserHandler(
	userService *services.UserService,
	exerciseService *services.ExerciseService,
	logService *services.LogService,
	logger *slog.Logger,
) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		userService:     userService,
		exerciseService: exerciseService,
		logService:      logService,
		logger:          logger.With("component", "user_handler"),
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	exerciseService *services.ExerciseService,
	logService *services.LogService,
	logger *slog.Logger,
) {
	handler := NewUserHandler(userService, exerciseService, logService, logger)

	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Route("/{"+userIDParam+"}", func(r chi.Router) {
		r.Post("/exercises", handler.AddExercise)
		r.Get("/logs", handler.GetLog)
	})
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Create(r.Context(), body.Text("username"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) AddExercise(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.exerciseService.Add(r.Context(), services.AddExerciseInput{
		UserID:      chi.URLParam(r, userIDParam),
		Description: body.Text("description"),
		Duration:    body.Scalar("duration"),
		Date:        body.Text("date"),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *UserHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	log, err := h.logService.Get(r.Context(), services.LogQuery{
		UserID: chi.URLParam(r, userIDParam),
		From:   query.Get("from"),
		To:     query.Get("to"),
		Limit:  query.Get("limit"),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

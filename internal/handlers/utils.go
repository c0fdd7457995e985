package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/exercise-tracker/apiserver/internal/services"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		verr *services.ValidationError
		serr *services.StoreError
	)
	switch {
	case errors.As(err, &verr):
		logger.DebugContext(r.Context(), "rejected request", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrUserNotFound):
		logger.DebugContext(r.Context(), "user not found", "path", r.URL.Path)
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &serr):
		logger.ErrorContext(r.Context(), "store failure", "op", serr.Op, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, serr.Error())
	default:
		logger.ErrorContext(r.Context(), "unexpected error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// requestBody holds the fields of a decoded request body. text keeps only
// string values; scalar also keeps JSON numbers and booleans as their literal
// text. For form bodies the two are identical.
type requestBody struct {
	text   map[string]string
	scalar map[string]string
}

// Text returns a field that must be a string.
func (b requestBody) Text(key string) string {
	return b.text[key]
}

// Scalar returns a field that may be a string or a JSON number.
func (b requestBody) Scalar(key string) string {
	return b.scalar[key]
}

// decodeBody reads a JSON, urlencoded or multipart body.
func decodeBody(w http.ResponseWriter, r *http.Request) (requestBody, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		return decodeJSONBody(r)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return requestBody{}, errors.New("invalid multipart form")
		}
	default:
		if err := r.ParseForm(); err != nil {
			return requestBody{}, errors.New("invalid form body")
		}
	}

	fields := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return requestBody{text: fields, scalar: fields}, nil
}

func decodeJSONBody(r *http.Request) (requestBody, error) {
	body := requestBody{text: map[string]string{}, scalar: map[string]string{}}

	var raw map[string]any
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return body, nil
		}
		return requestBody{}, errors.New("invalid JSON body")
	}

	for key, value := range raw {
		switch typed := value.(type) {
		case string:
			body.text[key] = typed
			body.scalar[key] = typed
		case json.Number:
			body.scalar[key] = typed.String()
		case bool:
			body.scalar[key] = strconv.FormatBool(typed)
		}
	}
	return body, nil
}

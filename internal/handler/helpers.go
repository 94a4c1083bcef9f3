package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/reward"
	"github.com/musicreward/musicreward/internal/service"
	"github.com/musicreward/musicreward/internal/store"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the {error, details?} envelope.
func writeError(w http.ResponseWriter, code int, message string, details ...string) {
	writeJSON(w, code, model.ErrorResponse{
		Error:   message,
		Details: strings.Join(details, "; "),
	})
}

// writeServiceError maps a service or store error to a status code. Anything
// unrecognised is a 500 that carries the error text in details.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "Validation failed", verr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, reward.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrAlreadyProcessed):
		writeError(w, http.StatusConflict, "Withdraw request already processed")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "Already exists")
	case errors.Is(err, store.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, "Insufficient balance")
	case errors.Is(err, reward.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Play session not found")
	case errors.Is(err, reward.ErrInvalidPlay):
		writeError(w, http.StatusBadRequest, "Validation failed", err.Error())
	default:
		logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// decodeAndValidate reads the body into v and runs its validate tags,
// writing a 400 and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := readJSON(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s %s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(parts, "; ")
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", chi.URLParam(r, "id"))
		return 0, false
	}
	return id, true
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryString extracts a trimmed string query parameter.
func queryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func success(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

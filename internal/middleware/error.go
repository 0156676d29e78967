package middleware

import (
	"encoding/json"
	"net/http"

	"shopie/internal/domain"
	"shopie/internal/logger"

	"go.uber.org/zap"
)

// Response is the envelope every API response is wrapped in
type Response struct {
	Success    bool               `json:"success"`
	Data       any                `json:"data"`
	Message    string             `json:"message"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
	Errors     []ValidationError  `json:"errors,omitempty"`
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// RespondWithData sends a successful envelope
func RespondWithData(w http.ResponseWriter, statusCode int, message string, data any) {
	RespondWithJSON(w, statusCode, Response{Success: true, Data: data, Message: message})
}

// RespondWithPaginated sends a successful envelope for one page of a list
func RespondWithPaginated(w http.ResponseWriter, message string, data any, pagination domain.Pagination) {
	RespondWithJSON(w, http.StatusOK, Response{
		Success:    true,
		Data:       data,
		Message:    message,
		Pagination: &pagination,
	})
}

// RespondWithError sends a failed envelope
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, Response{Success: false, Message: message})
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	RespondWithJSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: "validation failed",
		Errors:  errors,
	})
}

// StatusFor maps a domain error kind to an HTTP status code
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithDomainError writes err with the status of its kind. Internal
// failures are logged at error level and their cause is never sent.
func RespondWithDomainError(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, err error) {
	status := StatusFor(err)
	log := logger.FromContext(r.Context(), fallback)
	if status == http.StatusInternalServerError {
		log.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	} else {
		log.Debug("Request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.String("reason", domain.MessageOf(err)),
		)
	}
	RespondWithError(w, status, domain.MessageOf(err))
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.FromContext(r.Context(), log).Error("Panic recovered",
						zap.Any("error", rec),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.Stack("stack"),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

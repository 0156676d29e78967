package transport

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"shopie/internal/domain"
	"shopie/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// pathID parses a UUID path parameter, answering 400 when it is malformed
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID returns the authenticated caller, answering 401 when the
// route was mounted without AuthMiddleware.
func currentUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// decode binds and validates the JSON body, answering 400 on failure
func decode(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v any) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithBindError(w, err)
		return false
	}
	return true
}

// queryParser collects typed query parameters and the first parse failure
type queryParser struct {
	values url.Values
	err    error
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query()}
}

func (q *queryParser) str(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

func (q *queryParser) integer(key string) int {
	raw := q.str(key)
	if raw == "" || q.err != nil {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		q.err = domain.ValidationError("%s must be an integer", key)
		return 0
	}
	return v
}

func (q *queryParser) boolean(key string) *bool {
	raw := q.str(key)
	if raw == "" || q.err != nil {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		q.err = domain.ValidationError("%s must be true or false", key)
		return nil
	}
	return &v
}

func (q *queryParser) amount(key string) *decimal.Decimal {
	raw := q.str(key)
	if raw == "" || q.err != nil {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		q.err = domain.ValidationError("%s must be a non-negative number", key)
		return nil
	}
	return &v
}

func (q *queryParser) page() domain.PageRequest {
	return domain.PageRequest{Page: q.integer("page"), Limit: q.integer("limit")}
}

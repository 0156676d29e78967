package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopie/internal/domain"
	"shopie/internal/mail"
	"shopie/internal/middleware"
	"shopie/internal/repository/repotest"
	"shopie/internal/service"
	"shopie/internal/token"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	t        *testing.T
	router   http.Handler
	store    *repotest.Store
	tokens   *token.Manager
	users    service.UserService
	products service.ProductService
}

// envelope mirrors middleware.Response with a raw payload
type envelope struct {
	Success    bool                         `json:"success"`
	Data       json.RawMessage              `json:"data"`
	Message    string                       `json:"message"`
	Pagination *domain.Pagination           `json:"pagination"`
	Errors     []middleware.ValidationError `json:"errors"`
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	store := repotest.NewStore()
	tokens := token.NewManager("transport-secret", 0, 0)
	mailer, err := mail.NewMailer(mail.NewLogTransport(logger), "http://localhost:4200", logger)
	require.NoError(t, err)

	auth := service.NewAuthService(store.Users(), tokens, mailer, bcrypt.MinCost, logger)
	users := service.NewUserService(store.Users(), mailer, bcrypt.MinCost, logger)
	products := service.NewProductService(store.Products(), logger)
	carts := service.NewCartService(store.Carts(), store.Products(), logger)

	authMiddleware := middleware.AuthMiddleware(tokens, logger)
	passThrough := func(next http.Handler) http.Handler { return next }

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		NewAuthHandler(auth, logger).RegisterRoutes(r, authMiddleware, passThrough)
		NewProductHandler(products, logger).RegisterRoutes(r, authMiddleware)
		NewCartHandler(carts, logger).RegisterRoutes(r, authMiddleware)
		NewUserHandler(users, logger).RegisterRoutes(r, authMiddleware)
		NewAdminUserHandler(users, logger).RegisterRoutes(r, authMiddleware)
	})

	return &testAPI{
		t:        t,
		router:   router,
		store:    store,
		tokens:   tokens,
		users:    users,
		products: products,
	}
}

func (a *testAPI) do(method, path string, body any, bearer string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// data decodes the envelope payload into v, keeping numbers exact
func data[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	dec := json.NewDecoder(bytes.NewReader(decodeEnvelope(t, w).Data))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&v))
	return v
}

// register signs up a customer and returns its access token
func (a *testAPI) register(email string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "secret1",
	}, "")
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return data[map[string]any](a.t, w)["accessToken"].(string)
}

// admin creates an ADMIN account directly and returns its access token
func (a *testAPI) admin() string {
	a.t.Helper()
	user, err := a.users.CreateUser(a.t.Context(), service.CreateUserInput{
		Email:    "admin@shopie.test",
		Password: "secret1",
		Role:     domain.RoleAdmin,
	})
	require.NoError(a.t, err)
	signed, _, err := a.tokens.IssueAccess(user)
	require.NoError(a.t, err)
	return signed
}

func (a *testAPI) createProduct(adminToken, name, price string, stock int) map[string]any {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/products", map[string]any{
		"name":             name,
		"shortDescription": name + " description",
		"price":            json.Number(price),
		"imageUrl":         "https://cdn.shopie.test/" + name + ".png",
		"stock":            stock,
	}, adminToken)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return data[map[string]any](a.t, w)
}

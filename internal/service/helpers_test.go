package service

import (
	"context"
	"sync"
	"time"

	"shopie/internal/repository/repotest"
	"shopie/internal/token"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type sentMail struct {
	kind  string
	to    string
	token string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) record(kind, to, tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, token: tok})
	return nil
}

func (m *fakeMailer) SendWelcomeEmail(_ context.Context, to, _ string) error {
	return m.record("welcome", to, "")
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, to, resetToken string, _ time.Duration) error {
	return m.record("reset", to, resetToken)
}

func (m *fakeMailer) SendPasswordChangeConfirmation(_ context.Context, to string) error {
	return m.record("password-changed", to, "")
}

func (m *fakeMailer) byKind(kind string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMail
	for _, s := range m.sent {
		if s.kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// testClock is a settable time source shared by services and the token manager
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store    *repotest.Store
	mailer   *fakeMailer
	clock    *testClock
	tokens   *token.Manager
	auth     AuthService
	users    UserService
	products ProductService
	carts    CartService
}

func newTestEnv() *testEnv {
	store := repotest.NewStore()
	mailer := &fakeMailer{}
	clock := newTestClock()
	tokens := token.NewManager(testSecret, 0, 0).WithClock(clock.Now)
	logger := zap.NewNop()

	auth := NewAuthService(store.Users(), tokens, mailer, bcrypt.MinCost, logger)
	auth.(*authService).now = clock.Now

	users := NewUserService(store.Users(), mailer, bcrypt.MinCost, logger)
	users.(*userService).now = clock.Now

	products := NewProductService(store.Products(), logger)
	products.(*productService).now = clock.Now

	carts := NewCartService(store.Carts(), store.Products(), logger)
	carts.(*cartService).now = clock.Now

	return &testEnv{
		store:    store,
		mailer:   mailer,
		clock:    clock,
		tokens:   tokens,
		auth:     auth,
		users:    users,
		products: products,
		carts:    carts,
	}
}

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

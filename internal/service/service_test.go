package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aaditya248659/Code-Snippet-Library/internal/auth"
	"github.com/aaditya248659/Code-Snippet-Library/internal/mail"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository/sqlite"
)

// testEnv wires every service over a shared in-memory database. Services
// are tested against the real repository implementation; only external
// systems (Redis, SMTP, the execution engine) are faked.
type testEnv struct {
	db        *sqlite.DB
	game      *GamificationService
	snippets  *SnippetService
	forks     *ForkService
	users     *UserService
	analytics *AnalyticsService
	authSvc   *AuthService
	mailer    *captureMailer
}

// captureMailer records the last reset link instead of sending it.
type captureMailer struct {
	to       string
	resetURL string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	m.to = to
	m.resetURL = resetURL
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	mailer := &captureMailer{}

	game := NewGamificationService(db, nil, logger)
	return &testEnv{
		db:        db,
		game:      game,
		snippets:  NewSnippetService(db, db, game, logger),
		forks:     NewForkService(db, db, db, game, logger),
		users:     NewUserService(db, db, game, logger),
		analytics: NewAnalyticsService(db, db, logger),
		authSvc:   NewAuthService(db, tokens, passwords, mailer, "http://localhost:5173", logger),
		mailer:    mailer,
	}
}

func (e *testEnv) user(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) admin(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         model.RoleAdmin,
	}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) submit(t *testing.T, authorID, title string) *model.Snippet {
	t.Helper()
	s, err := e.snippets.Submit(context.Background(), authorID, title,
		"prints a greeting", "python", `print("hi")`, []string{"basics"})
	require.NoError(t, err)
	return s
}

var _ mail.Mailer = (*captureMailer)(nil)

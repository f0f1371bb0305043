// Package mail abstracts outbound email. The only message the platform
// sends today is the password reset link.
package mail

import (
	"context"
	"log/slog"
)

// Mailer sends transactional email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// LogMailer writes mail to the log instead of sending it. It is the
// default in development; deployments plug in a real provider.
type LogMailer struct {
	logger *slog.Logger
}

var _ Mailer = (*LogMailer)(nil)

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	m.logger.Info("password reset email",
		slog.String("to", to),
		slog.String("resetURL", resetURL))
	return nil
}

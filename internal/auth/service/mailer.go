package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, identity domain.Identity, link string) error
}

// LogMailer writes reset links to the log instead of sending mail. It is the
// development outbox.
type LogMailer struct {
	Logger *slog.Logger

	// ShowLinks logs the link itself. The link carries a live reset token,
	// so it is only set for ENV=dev.
	ShowLinks bool
}

func (m LogMailer) SendPasswordReset(ctx context.Context, identity domain.Identity, link string) error {
	l := m.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}
	if !m.ShowLinks {
		link = slogx.Redacted
	}
	l.InfoContext(ctx, "password reset mail",
		slog.String("to", identity.Email),
		slog.String("user_id", identity.ID),
		slog.String("reset_link", link))
	return nil
}

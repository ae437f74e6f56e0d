// Package notify delivers password reset tokens and password change notices.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/shoppingapp/usersapi/models"
)

// LogNotifier writes notices to the log instead of sending them. The reset
// token is logged in full, so use it only in development.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, user models.User, token string, expiresAt time.Time) error {
	n.log.InfoContext(ctx, "password reset requested",
		"userId", user.ID,
		"email", user.Email,
		"token", token,
		"expiresAt", expiresAt,
	)
	return nil
}

func (n *LogNotifier) SendPasswordChanged(ctx context.Context, user models.User) error {
	n.log.InfoContext(ctx, "password changed notice", "userId", user.ID, "email", user.Email)
	return nil
}

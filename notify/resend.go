package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/shoppingapp/usersapi/models"
)

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <p>Hi {{.Name}},</p>
  <p>We received a request to reset your password. Use the link below to choose a new one:</p>
  <p><a href="{{.Link}}">Reset password</a></p>
  <p>This link expires at {{.ExpiresAt}}. If you did not ask for a reset, you can ignore this email.</p>
</body>
</html>`))

var changedTemplate = template.Must(template.New("changed").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <p>Hi {{.Name}},</p>
  <p>The password of your account was just changed and every session was signed out.</p>
  <p>If this was not you, reset your password right away.</p>
</body>
</html>`))

type ResendConfig struct {
	APIKey   string
	From     string
	ResetURL string
}

// ResendNotifier sends notices by email through the Resend API.
type ResendNotifier struct {
	client   *resend.Client
	from     string
	resetURL string
	log      *slog.Logger
}

func NewResendNotifier(cfg ResendConfig, log *slog.Logger) (*ResendNotifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("resend API key is required")
	}
	if cfg.From == "" {
		return nil, errors.New("from address is required")
	}
	if _, err := url.Parse(cfg.ResetURL); err != nil {
		return nil, fmt.Errorf("reset url: %w", err)
	}
	return &ResendNotifier{
		client:   resend.NewClient(cfg.APIKey),
		from:     cfg.From,
		resetURL: cfg.ResetURL,
		log:      log,
	}, nil
}

// SetBaseURL points the client at another API endpoint.
func (n *ResendNotifier) SetBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	n.client.BaseURL = u
	return nil
}

func (n *ResendNotifier) resetLink(token string) string {
	u, err := url.Parse(n.resetURL)
	if err != nil {
		return n.resetURL
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (n *ResendNotifier) send(ctx context.Context, to, subject string, tmpl *template.Template, data any) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	sent, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{to},
		Subject: subject,
		Html:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("send %s email: %w", tmpl.Name(), err)
	}
	n.log.InfoContext(ctx, "email sent", "template", tmpl.Name(), "id", sent.Id)
	return nil
}

func (n *ResendNotifier) SendPasswordReset(ctx context.Context, user models.User, token string, expiresAt time.Time) error {
	return n.send(ctx, user.Email, "Reset your password", resetTemplate, map[string]any{
		"Name":      user.Name,
		"Link":      n.resetLink(token),
		"ExpiresAt": expiresAt.UTC().Format("2006-01-02 15:04 MST"),
	})
}

func (n *ResendNotifier) SendPasswordChanged(ctx context.Context, user models.User) error {
	return n.send(ctx, user.Email, "Your password was changed", changedTemplate, map[string]any{
		"Name": user.Name,
	})
}

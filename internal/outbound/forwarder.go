// Package outbound forwards newsletter sign-ups and contact-form messages to the
// email delivery API.
package outbound

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"time"

	"lsablog/internal/middleware"
	"lsablog/internal/models"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 10 * time.Second

// Interests accepted by the contact form.
var Interests = []string{"join", "partner", "volunteer", "donate", "other"}

// Config points the forwarder at the delivery API. Without an APIKey submissions are
// only logged.
type Config struct {
	APIURL      string
	APIKey      string
	TargetEmail string
	From        string
	Timeout     time.Duration
}

type Forwarder struct {
	cfg Config
	now func() time.Time
}

// ContactMessage is a submission of the get-involved form.
type ContactMessage struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Interest string `json:"interest,omitempty"`
	Message  string `json:"message"`
}

type email struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func NewForwarder(cfg Config) *Forwarder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Forwarder{cfg: cfg, now: time.Now}
}

// Subscribe notifies the editors about a newsletter sign-up.
func (f *Forwarder) Subscribe(ctx context.Context, address string) error {
	address, err := normalizeEmail(address)
	if err != nil {
		return err
	}

	at := f.now().UTC().Format(time.RFC3339)
	return f.send(ctx, "newsletter", email{
		Subject: "New Newsletter Subscription",
		HTML: "<h2>New Newsletter Subscription</h2>" +
			"<p>A new user has subscribed to the newsletter:</p>" +
			"<p><strong>Email:</strong> " + html.EscapeString(address) + "</p>" +
			"<p><strong>Subscription Date:</strong> " + at + "</p>",
	})
}

// Contact relays a contact-form message to the editors.
func (f *Forwarder) Contact(ctx context.Context, msg ContactMessage) error {
	if strings.TrimSpace(msg.Name) == "" {
		return models.NewValidationError("name", "Name is required")
	}
	address, err := normalizeEmail(msg.Email)
	if err != nil {
		return err
	}
	if strings.TrimSpace(msg.Message) == "" {
		return models.NewValidationError("message", "Message is required")
	}
	if msg.Interest != "" && !slices.Contains(Interests, msg.Interest) {
		return models.NewValidationError("interest", "Unknown interest")
	}

	var b strings.Builder
	b.WriteString("<h2>New Contact Message</h2>")
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "<p><strong>%s:</strong> %s</p>", label, html.EscapeString(value))
	}
	row("Name", strings.TrimSpace(msg.Name))
	row("Email", address)
	row("Phone", strings.TrimSpace(msg.Phone))
	row("Interest", msg.Interest)
	row("Message", msg.Message)

	return f.send(ctx, "contact", email{
		Subject: "New Contact Message from " + strings.TrimSpace(msg.Name),
		HTML:    b.String(),
	})
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", models.NewValidationError("email", "Email is required")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", models.NewValidationError("email", "Email is invalid")
	}
	return addr.Address, nil
}

// send delivers msg. Submitter addresses never reach the logs. The request is bounded
// by the configured timeout or by ctx's deadline, whichever comes first.
func (f *Forwarder) send(ctx context.Context, kind string, msg email) error {
	if f.cfg.APIKey == "" || f.cfg.APIURL == "" {
		// Development fallback: no delivery API configured.
		middleware.Logger.InfoContext(ctx, "form submission received",
			slog.String("kind", kind), slog.Time("at", f.now()))
		return nil
	}

	timeout := f.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if err := ctx.Err(); err != nil {
		return models.NewTransportError("send notification email", err)
	}
	if timeout <= 0 {
		return models.NewTransportError("send notification email", context.DeadlineExceeded)
	}

	msg.From = f.cfg.From
	msg.To = f.cfg.TargetEmail

	agent := fiber.Post(f.cfg.APIURL)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+f.cfg.APIKey)
	agent.JSON(msg)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return models.NewTransportError("send notification email", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return models.NewTransportError("send notification email", errs[0])
	}
	if code < 200 || code >= 300 {
		middleware.Logger.ErrorContext(ctx, "email api rejected submission",
			slog.String("kind", kind), slog.Int("status", code), slog.String("body", string(body)))
		return models.NewTransportError("send notification email", fmt.Errorf("email api returned %d", code))
	}

	middleware.Logger.InfoContext(ctx, "form submission forwarded", slog.String("kind", kind))
	return nil
}

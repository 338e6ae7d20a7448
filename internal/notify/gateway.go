package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// ErrChannelNotConfigured marks a missing-credentials condition. Callers
// must not record a ledger row for it: the reminder stays unserved and the
// problem surfaces in the logs instead.
var ErrChannelNotConfigured = errors.New("channel not configured")

// EmailSender delivers one email, returning the provider's message id.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html string) (string, error)
}

// WhatsAppSender delivers one WhatsApp message to an already-normalized
// address ("whatsapp:+234...").
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, body string) (string, error)
}

type SendResult struct {
	OK         bool
	ProviderID string
	Err        error
}

// Gateway routes one message to one channel. It performs no business
// normalization; addresses arrive ready to use. Each send gets its own
// timeout so one unresponsive provider cannot stall a whole pass.
type Gateway struct {
	email    EmailSender
	whatsapp WhatsAppSender
	timeout  time.Duration
}

func NewGateway(email EmailSender, whatsapp WhatsAppSender) *Gateway {
	return &Gateway{
		email:    email,
		whatsapp: whatsapp,
		timeout:  10 * time.Second,
	}
}

func (g *Gateway) Send(ctx context.Context, ch Channel, address string, content Content) SendResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var (
		id  string
		err error
	)
	switch ch {
	case ChannelEmail:
		if g.email == nil {
			return SendResult{Err: fmt.Errorf("email: %w", ErrChannelNotConfigured)}
		}
		id, err = g.email.SendEmail(ctx, address, content.Subject, content.HTML)
	case ChannelWhatsApp:
		if g.whatsapp == nil {
			return SendResult{Err: fmt.Errorf("whatsapp: %w", ErrChannelNotConfigured)}
		}
		id, err = g.whatsapp.SendWhatsApp(ctx, address, content.Text)
	default:
		return SendResult{Err: fmt.Errorf("unknown channel %q", ch)}
	}

	if err != nil {
		return SendResult{Err: err}
	}
	if id == "" {
		// Some providers acknowledge without an id; the audit trail still
		// needs one.
		id = uuid.NewString()
	}
	return SendResult{OK: true, ProviderID: id}
}

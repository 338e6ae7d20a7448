package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayNilSenderIsNotConfigured(t *testing.T) {
	g := NewGateway(nil, nil)

	res := g.Send(context.Background(), ChannelEmail, "a@b.ng", Content{Subject: "hi"})
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, ErrChannelNotConfigured)

	res = g.Send(context.Background(), ChannelWhatsApp, "whatsapp:+2348012345678", Content{Text: "hi"})
	assert.ErrorIs(t, res.Err, ErrChannelNotConfigured)
}

func TestGatewayUnknownChannel(t *testing.T) {
	g := NewGateway(&fakeEmail{}, &fakeWhatsApp{})
	res := g.Send(context.Background(), Channel("pigeon"), "coop", Content{})
	assert.False(t, res.OK)
	assert.Error(t, res.Err)
}

type blankIDEmail struct{}

func (blankIDEmail) SendEmail(context.Context, string, string, string) (string, error) {
	return "", nil
}

func TestGatewayFillsMissingProviderID(t *testing.T) {
	g := NewGateway(blankIDEmail{}, nil)
	res := g.Send(context.Background(), ChannelEmail, "a@b.ng", Content{})
	assert.True(t, res.OK)
	assert.NotEmpty(t, res.ProviderID)
}

func TestUnconfiguredTransportsFailFast(t *testing.T) {
	email := NewResendClient("", "ComplianceHub <no-reply@example.com>")
	_, err := email.SendEmail(context.Background(), "a@b.ng", "hi", "<p>hi</p>")
	assert.ErrorIs(t, err, ErrChannelNotConfigured)

	whatsapp := NewTwilioWhatsAppClient("", "", "whatsapp:+14155238886")
	_, err = whatsapp.SendWhatsApp(context.Background(), "whatsapp:+2348012345678", "hi")
	assert.ErrorIs(t, err, ErrChannelNotConfigured)
}

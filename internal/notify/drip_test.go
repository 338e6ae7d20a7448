package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecourtlimited/compliancehub/models"
)

func testDripEngine(store *fakeStore, email EmailSender, whatsapp WhatsAppSender, now time.Time) *DripEngine {
	d := NewDripEngine(store, NewGateway(email, whatsapp), testPhones, "https://example.com/dashboard")
	d.now = func() time.Time { return now }
	return d
}

func TestStartOnboarding(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	profile := proProfile(1)
	store.profiles[1] = profile

	email := &fakeEmail{}
	d := testDripEngine(store, email, &fakeWhatsApp{}, now)

	require.NoError(t, d.StartOnboarding(context.Background(), profile))

	// Welcome went out immediately on both channels.
	assert.Len(t, email.sent, 1)
	welcome := store.eventsFor(models.EntityProfile, 1)
	require.Len(t, welcome, 2)
	assert.Equal(t, string(WindowOnboardingWelcome), welcome[0].Window)

	// Later steps are queued, not sent.
	require.Len(t, store.messages, 2)
	assert.Equal(t, string(WindowOnboardingFollowUp), store.messages[0].Window)
	assert.Equal(t, now.Add(30*time.Minute), store.messages[0].ScheduledFor)
	assert.Equal(t, string(WindowOnboardingEducational), store.messages[1].Window)
	assert.Equal(t, now.Add(2*time.Hour), store.messages[1].ScheduledFor)
}

func TestStartOnboardingIsIdempotent(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	profile := proProfile(1)
	store.profiles[1] = profile

	email := &fakeEmail{}
	d := testDripEngine(store, email, &fakeWhatsApp{}, now)

	require.NoError(t, d.StartOnboarding(context.Background(), profile))
	require.NoError(t, d.StartOnboarding(context.Background(), profile))

	assert.Len(t, email.sent, 1)
	assert.Len(t, store.messages, 2)
}

func TestStartOnboardingRequiresVerifiedEmail(t *testing.T) {
	store := newFakeStore()
	profile := proProfile(1)
	profile.EmailVerified = false
	store.profiles[1] = profile

	d := testDripEngine(store, &fakeEmail{}, &fakeWhatsApp{}, time.Now())

	assert.Error(t, d.StartOnboarding(context.Background(), profile))
	assert.Empty(t, store.events)
	assert.Empty(t, store.messages)
}

func TestDispatchPassDeliversDueSteps(t *testing.T) {
	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	profile := proProfile(1)
	store.profiles[1] = profile

	email := &fakeEmail{}
	d := testDripEngine(store, email, &fakeWhatsApp{}, start)
	require.NoError(t, d.StartOnboarding(context.Background(), profile))

	// Nothing due yet.
	stats, err := d.RunDispatchPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Evaluated)

	// 31 minutes in: follow-up only.
	d.now = func() time.Time { return start.Add(31 * time.Minute) }
	stats, err = d.RunDispatchPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, models.MessageSent, store.messages[0].Status)
	assert.Equal(t, models.MessagePending, store.messages[1].Status)

	// Past two hours: educational goes too.
	d.now = func() time.Time { return start.Add(3 * time.Hour) }
	stats, err = d.RunDispatchPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, models.MessageSent, store.messages[1].Status)

	// Welcome + follow-up + educational, email and whatsapp each.
	assert.Len(t, store.eventsFor(models.EntityProfile, 1), 6)
}

func TestDispatchCancelsAlreadyServedWindow(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	profile := proProfile(1)
	store.profiles[1] = profile

	// A previous run already served the follow-up.
	sentAt := now.Add(-time.Hour)
	store.events = append(store.events, models.ReminderEvent{
		UserID: 1, EntityType: models.EntityProfile, EntityID: 1,
		Window: string(WindowOnboardingFollowUp), Channel: string(ChannelEmail),
		Status: models.ReminderStatusSent, SentAt: &sentAt,
	})
	store.messages = append(store.messages, models.ScheduledMessage{
		ID: 1, UserID: 1, Window: string(WindowOnboardingFollowUp),
		ScheduledFor: now.Add(-time.Minute), Status: models.MessagePending,
	})
	store.nextMessageID = 1

	email := &fakeEmail{}
	d := testDripEngine(store, email, &fakeWhatsApp{}, now)

	stats, err := d.RunDispatchPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent)
	assert.Empty(t, email.sent)
	assert.Equal(t, models.MessageCancelled, store.messages[0].Status)
}

func TestDispatchFailedStepIsMarkedFailed(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	profile := proProfile(1)
	profile.Phone = ""
	store.profiles[1] = profile
	store.messages = append(store.messages, models.ScheduledMessage{
		ID: 1, UserID: 1, Window: string(WindowOnboardingFollowUp),
		ScheduledFor: now.Add(-time.Minute), Status: models.MessagePending,
	})
	store.nextMessageID = 1

	email := &fakeEmail{err: assert.AnError}
	d := testDripEngine(store, email, &fakeWhatsApp{}, now)

	stats, err := d.RunDispatchPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent)
	assert.Equal(t, models.MessageFailed, store.messages[0].Status)

	events := store.eventsFor(models.EntityProfile, 1)
	require.Len(t, events, 1)
	assert.Equal(t, models.ReminderStatusFailed, events[0].Status)
}

func TestDispatchKeepsStepPendingWhenNoChannelConfigured(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.profiles[1] = proProfile(1)
	store.messages = append(store.messages, models.ScheduledMessage{
		ID: 1, UserID: 1, Window: string(WindowOnboardingFollowUp),
		ScheduledFor: now.Add(-time.Minute), Status: models.MessagePending,
	})
	store.nextMessageID = 1

	// No providers at all: the step must survive untouched, with no
	// ledger rows, until credentials show up.
	d := NewDripEngine(store, NewGateway(nil, nil), testPhones, "https://example.com/dashboard")
	d.now = func() time.Time { return now }

	stats, err := d.RunDispatchPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent)
	assert.Equal(t, 0, stats.Failures)
	assert.Equal(t, models.MessagePending, store.messages[0].Status)
	assert.Empty(t, store.events)

	// Once a sender is configured, the same step goes out.
	email := &fakeEmail{}
	d = testDripEngine(store, email, &fakeWhatsApp{}, now)
	stats, err = d.RunDispatchPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, models.MessageSent, store.messages[0].Status)
	assert.Len(t, email.sent, 1)
}

func TestCustomMessageStaysPendingWhenNoChannelConfigured(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()

	d := NewDripEngine(store, NewGateway(nil, nil), testPhones, "https://example.com/dashboard")
	d.now = func() time.Time { return now }

	msg, err := d.EnqueueTestMessage(context.Background(), 1, "ops@adewale.ng", "", "Ping", "Hello")
	require.NoError(t, err)

	_, err = d.RunDispatchPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.MessagePending, store.messages[0].Status)
	assert.Empty(t, store.eventsFor(models.EntityMessage, msg.ID))
}

func TestCustomMessageDispatch(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()

	email := &fakeEmail{}
	whatsapp := &fakeWhatsApp{}
	d := testDripEngine(store, email, whatsapp, now)

	msg, err := d.EnqueueTestMessage(context.Background(), 1, "ops@adewale.ng", "08012345678", "Ping", "Hello\nthere")
	require.NoError(t, err)
	assert.Equal(t, models.MessagePending, msg.Status)

	stats, err := d.RunDispatchPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)

	assert.Equal(t, []string{"ops@adewale.ng"}, email.sent)
	assert.Equal(t, []string{"whatsapp:+2348012345678"}, whatsapp.sent)
	assert.Equal(t, models.MessageSent, store.messages[0].Status)

	events := store.eventsFor(models.EntityMessage, msg.ID)
	require.Len(t, events, 2)
	assert.Equal(t, "Ping", events[0].MessageContent)
}

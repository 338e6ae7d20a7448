package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecourtlimited/compliancehub/models"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	obligations   []models.TaxObligation
	subscriptions []models.Subscription
	profiles      map[int]*models.Profile
	events        []models.ReminderEvent
	messages      []models.ScheduledMessage
	nextEventID   int
	nextMessageID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[int]*models.Profile)}
}

func (s *fakeStore) ListActiveObligations(_ context.Context, afterID, limit int) ([]models.TaxObligation, error) {
	var out []models.TaxObligation
	for _, ob := range s.obligations {
		if ob.IsActive && ob.ID > afterID {
			out = append(out, ob)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) ListActiveSubscriptions(_ context.Context, afterID, limit int) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, sub := range s.subscriptions {
		if sub.Status == models.SubscriptionActive && sub.ID > afterID {
			out = append(out, sub)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) ProfileByUserID(_ context.Context, userID int) (*models.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile for user %d not found", userID)
	}
	return p, nil
}

func (s *fakeStore) MarkObligationOverdue(_ context.Context, obligationID int) error {
	for i := range s.obligations {
		if s.obligations[i].ID == obligationID && s.obligations[i].PaymentStatus == models.PaymentStatusPending {
			s.obligations[i].PaymentStatus = models.PaymentStatusOverdue
		}
	}
	return nil
}

func (s *fakeStore) MarkOverdueReminderSent(_ context.Context, obligationID int, at time.Time) error {
	for i := range s.obligations {
		if s.obligations[i].ID == obligationID {
			t := at
			s.obligations[i].LastOverdueReminder = &t
			s.obligations[i].OverdueReminderCount++
		}
	}
	return nil
}

func (s *fakeStore) AppendEvent(_ context.Context, event *models.ReminderEvent) error {
	s.nextEventID++
	event.ID = s.nextEventID
	s.events = append(s.events, *event)
	return nil
}

func (s *fakeStore) EventExists(_ context.Context, entityType string, entityID int, window Window) (bool, error) {
	for _, ev := range s.events {
		if ev.EntityType == entityType && ev.EntityID == entityID &&
			ev.Window == string(window) && ev.Status == models.ReminderStatusSent {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) EventExistsOn(_ context.Context, entityType string, entityID int, window Window, day time.Time) (bool, error) {
	for _, ev := range s.events {
		if ev.EntityType == entityType && ev.EntityID == entityID &&
			ev.Window == string(window) && ev.Status == models.ReminderStatusSent &&
			ev.SentAt != nil && sameDay(*ev.SentAt, day) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) EventExistsSince(_ context.Context, entityType string, entityID int, window Window, since time.Time) (bool, error) {
	for _, ev := range s.events {
		if ev.EntityType == entityType && ev.EntityID == entityID &&
			ev.Window == string(window) && ev.Status == models.ReminderStatusSent &&
			!ev.ScheduledAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (s *fakeStore) EnqueueMessage(_ context.Context, msg *models.ScheduledMessage) error {
	s.nextMessageID++
	msg.ID = s.nextMessageID
	msg.Status = models.MessagePending
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *fakeStore) DueMessages(_ context.Context, now time.Time, limit int) ([]models.ScheduledMessage, error) {
	var out []models.ScheduledMessage
	for _, m := range s.messages {
		if m.Status == models.MessagePending && !m.ScheduledFor.After(now) {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) setMessageStatus(messageID int, status string, sentAt *time.Time) error {
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].Status = status
			s.messages[i].SentAt = sentAt
			return nil
		}
	}
	return fmt.Errorf("message %d not found", messageID)
}

func (s *fakeStore) MarkMessageSent(_ context.Context, messageID int, at time.Time) error {
	return s.setMessageStatus(messageID, models.MessageSent, &at)
}

func (s *fakeStore) MarkMessageFailed(_ context.Context, messageID int) error {
	return s.setMessageStatus(messageID, models.MessageFailed, nil)
}

func (s *fakeStore) MarkMessageCancelled(_ context.Context, messageID int) error {
	return s.setMessageStatus(messageID, models.MessageCancelled, nil)
}

func (s *fakeStore) HasMessage(_ context.Context, userID int, window Window) (bool, error) {
	for _, m := range s.messages {
		if m.UserID == userID && m.Window == string(window) &&
			(m.Status == models.MessagePending || m.Status == models.MessageSent) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) eventsFor(entityType string, entityID int) []models.ReminderEvent {
	var out []models.ReminderEvent
	for _, ev := range s.events {
		if ev.EntityType == entityType && ev.EntityID == entityID {
			out = append(out, ev)
		}
	}
	return out
}

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to)
	return fmt.Sprintf("em-%d", len(f.sent)), nil
}

type fakeWhatsApp struct {
	sent []string
	err  error
}

func (f *fakeWhatsApp) SendWhatsApp(_ context.Context, to, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to)
	return fmt.Sprintf("wa-%d", len(f.sent)), nil
}

var testPhones = PhoneNormalizer{CountryCode: "+234", TrunkPrefix: "0"}

func testEngine(store *fakeStore, email EmailSender, whatsapp WhatsAppSender, now time.Time) *Engine {
	e := NewEngine(store, NewGateway(email, whatsapp), testPhones, "https://example.com/dashboard")
	e.now = func() time.Time { return now }
	return e
}

func proProfile(userID int) *models.Profile {
	return &models.Profile{
		ID:            userID,
		UserID:        userID,
		BusinessName:  "Adewale Ventures",
		Email:         "owner@adewale.ng",
		Phone:         "08012345678",
		EmailVerified: true,
		Plan:          models.PlanPro,
	}
}

func TestObligationPassDaySevenBothChannels(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.profiles[1] = proProfile(1)
	store.obligations = []models.TaxObligation{{
		ID: 10, UserID: 1, ObligationType: models.ObligationVAT,
		DueDate: now.AddDate(0, 0, 7), IsActive: true, PaymentStatus: models.PaymentStatusPending,
	}}

	email := &fakeEmail{}
	whatsapp := &fakeWhatsApp{}
	e := testEngine(store, email, whatsapp, now)

	stats, err := e.RunObligationPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Evaluated)
	assert.Equal(t, 1, stats.Sent)

	assert.Equal(t, []string{"owner@adewale.ng"}, email.sent)
	assert.Equal(t, []string{"whatsapp:+2348012345678"}, whatsapp.sent)

	events := store.eventsFor(models.EntityObligation, 10)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, string(WindowDay7), ev.Window)
		assert.Equal(t, models.ReminderStatusSent, ev.Status)
		assert.NotEmpty(t, ev.ProviderID)
		require.NotNil(t, ev.SentAt)
	}
}

func TestObligationPassIsIdempotent(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.profiles[1] = proProfile(1)
	store.obligations = []models.TaxObligation{{
		ID: 10, UserID: 1, ObligationType: models.ObligationVAT,
		DueDate: now.AddDate(0, 0, 7), IsActive: true, PaymentStatus: models.PaymentStatusPending,
	}}

	e := testEngine(store, &fakeEmail{}, &fakeWhatsApp{}, now)

	_, err := e.RunObligationPass(context.Background())
	require.NoError(t, err)
	before := len(store.events)

	// Same pass again, and again two hours later on the same day.
	_, err = e.RunObligationPass(context.Background())
	require.NoError(t, err)
	e.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = e.RunObligationPass(context.Background())
	require.NoError(t, err)

	assert.Len(t, store.events, before)
}

func TestObligationPassSkipsPaidAndQuietDays(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.profiles[1] = proProfile(1)
	store.obligations = []models.TaxObligation{
		// Paid, even though the date matches a window.
		{ID: 1, UserID: 1, ObligationType: models.ObligationVAT,
			DueDate: now.AddDate(0, 0, 3), IsActive: true, PaymentStatus: models.PaymentStatusPaid},
		// Between windows.
		{ID: 2, UserID: 1, ObligationType: models.ObligationPAYE,
			DueDate: now.AddDate(0, 0, 5), IsActive: true, PaymentStatus: models.PaymentStatusPending},
		// Due today: no window fires until it is actually overdue.
		{ID: 3, UserID: 1, ObligationType: models.ObligationWHT,
			DueDate: now, IsActive: true, PaymentStatus: models.PaymentStatusPending},
	}

	email := &fakeEmail{}
	e := testEngine(store, email, &fakeWhatsApp{}, now)

	stats, err := e.RunObligationPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent)
	assert.Empty(t, email.sent)
	assert.Empty(t, store.events)
}

func TestObligationPassMidnightEdge(t *testing.T) {
	// 23 hours before the due time is still the day before, so day-1 fires.
	now := time.Date(2026, 9, 20, 1, 30, 0, 0, time.UTC)
	due := time.Date(2026, 9, 21, 0, 30, 0, 0, time.UTC)

	store := newFakeStore()
	store.profiles[1] = proProfile(1)
	store.obligations = []models.TaxObligation{{
		ID: 10, UserID: 1, ObligationType: models.ObligationCAC,
		DueDate: due, IsActive: true, PaymentStatus: models.PaymentStatusPending,
	}}

	e := testEngine(store, &fakeEmail{}, &fakeWhatsApp{}, now)
	_, err := e.RunObligationPass(context.Background())
	require.NoError(t, err)

	events := store.eventsFor(models.EntityObligation, 10)
	require.NotEmpty(t, events)
	assert.Equal(t, string(WindowDay1), events[0].Window)
}

func TestOverdueFlipAndDailyCadence(t *testing.T) {
	now := time.Date(2026, 9, 14, 0, 5, 0, 0, time.UTC)
	store := newFakeStore()
	store.profiles[1] = proProfile(1)
	store.obligations = []models.TaxObligation{{
		ID: 10, UserID: 1, ObligationType: models.ObligationVAT,
		DueDate: now.AddDate(0, 0, -2), IsActive: true, PaymentStatus: models.PaymentStatusPending,
	}}

	e := testEngine(store, &fakeEmail{}, &fakeWhatsApp{}, now)

	_, err := e.RunOverduePass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusOverdue, store.obligations[0].PaymentStatus)
	assert.Equal(t, 1, store.obligations[0].OverdueReminderCount)
	require.NotNil(t, store.obligations[0].LastOverdueReminder)
	assert.Len(t, store.eventsFor(models.EntityObligation, 10), 2)

	// Later the same day: nothing new.
	e.now = func() time.Time { return now.Add(6 * time.Hour) }
	_, err = e.RunObligationPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.obligations[0].OverdueReminderCount)

	// Next day: one more round.
	e.now = func() time.Time { return now.AddDate(0, 0, 1) }
	_, err = e.RunOverduePass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.obligations[0].OverdueReminderCount)
	assert.Len(t, store.eventsFor(models.EntityObligation, 10), 4)
}

func TestPlanGating(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()

	free := proProfile(1)
	free.Plan = models.PlanFree
	store.profiles[1] = free

	basic := proProfile(2)
	basic.UserID = 2
	basic.ID = 2
	basic.Plan = models.PlanBasic
	basic.Email = "basic@adewale.ng"
	store.profiles[2] = basic

	store.obligations = []models.TaxObligation{
		{ID: 1, UserID: 1, ObligationType: models.ObligationVAT,
			DueDate: now.AddDate(0, 0, 3), IsActive: true, PaymentStatus: models.PaymentStatusPending},
		{ID: 2, UserID: 2, ObligationType: models.ObligationVAT,
			DueDate: now.AddDate(0, 0, 3), IsActive: true, PaymentStatus: models.PaymentStatusPending},
	}

	email := &fakeEmail{}
	whatsapp := &fakeWhatsApp{}
	e := testEngine(store, email, whatsapp, now)

	_, err := e.RunObligationPass(context.Background())
	require.NoError(t, err)

	// Free plan gets nothing; basic gets email only despite having a phone.
	assert.Empty(t, store.eventsFor(models.EntityObligation, 1))
	assert.Equal(t, []string{"basic@adewale.ng"}, email.sent)
	assert.Empty(t, whatsapp.sent)

	events := store.eventsFor(models.EntityObligation, 2)
	require.Len(t, events, 1)
	assert.Equal(t, string(ChannelEmail), events[0].Channel)
}

func TestUnconfiguredChannelLeavesNoTrace(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.profiles[1] = proProfile(1)
	store.obligations = []models.TaxObligation{{
		ID: 10, UserID: 1, ObligationType: models.ObligationVAT,
		DueDate: now.AddDate(0, 0, 1), IsActive: true, PaymentStatus: models.PaymentStatusPending,
	}}

	email := &fakeEmail{}
	e := testEngine(store, email, nil, now)

	_, err := e.RunObligationPass(context.Background())
	require.NoError(t, err)

	// Email delivered and recorded; the unconfigured WhatsApp channel left
	// no ledger row at all.
	events := store.eventsFor(models.EntityObligation, 10)
	require.Len(t, events, 1)
	assert.Equal(t, string(ChannelEmail), events[0].Channel)
}

func TestFailedSendIsRecordedAndRetried(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	profile := proProfile(1)
	profile.Phone = ""
	store.profiles[1] = profile
	store.obligations = []models.TaxObligation{{
		ID: 10, UserID: 1, ObligationType: models.ObligationVAT,
		DueDate: now.AddDate(0, 0, 7), IsActive: true, PaymentStatus: models.PaymentStatusPending,
	}}

	email := &fakeEmail{err: fmt.Errorf("boom")}
	e := testEngine(store, email, &fakeWhatsApp{}, now)

	stats, err := e.RunObligationPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent)

	events := store.eventsFor(models.EntityObligation, 10)
	require.Len(t, events, 1)
	assert.Equal(t, models.ReminderStatusFailed, events[0].Status)
	assert.Contains(t, events[0].ErrorMessage, "boom")
	assert.Nil(t, events[0].SentAt)

	// A failed attempt does not serve the window: the next pass retries.
	email.err = nil
	_, err = e.RunObligationPass(context.Background())
	require.NoError(t, err)

	events = store.eventsFor(models.EntityObligation, 10)
	require.Len(t, events, 2)
	assert.Equal(t, models.ReminderStatusSent, events[1].Status)
}

// strictWhatsApp rejects addresses without digits, the way the real
// provider rejects a malformed recipient.
type strictWhatsApp struct {
	sent []string
}

func (f *strictWhatsApp) SendWhatsApp(_ context.Context, to, _ string) (string, error) {
	if to == WhatsAppScheme {
		return "", fmt.Errorf("invalid recipient %q", to)
	}
	f.sent = append(f.sent, to)
	return fmt.Sprintf("wa-%d", len(f.sent)), nil
}

func TestMalformedPhoneFailsWhatsAppButEmailStillGoes(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	profile := proProfile(1)
	profile.Phone = "call the office"
	store.profiles[1] = profile
	store.obligations = []models.TaxObligation{{
		ID: 10, UserID: 1, ObligationType: models.ObligationVAT,
		DueDate: now.AddDate(0, 0, 3), IsActive: true, PaymentStatus: models.PaymentStatusPending,
	}}

	email := &fakeEmail{}
	whatsapp := &strictWhatsApp{}
	e := testEngine(store, email, whatsapp, now)

	stats, err := e.RunObligationPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Len(t, email.sent, 1)
	assert.Empty(t, whatsapp.sent)

	// Same window, two rows: the email delivery and the rejected WhatsApp
	// attempt.
	events := store.eventsFor(models.EntityObligation, 10)
	require.Len(t, events, 2)
	byChannel := map[string]models.ReminderEvent{}
	for _, ev := range events {
		assert.Equal(t, string(WindowDay3), ev.Window)
		byChannel[ev.Channel] = ev
	}
	assert.Equal(t, models.ReminderStatusSent, byChannel[string(ChannelEmail)].Status)
	assert.Equal(t, models.ReminderStatusFailed, byChannel[string(ChannelWhatsApp)].Status)
	assert.Contains(t, byChannel[string(ChannelWhatsApp)].ErrorMessage, "invalid recipient")

	// The email success served the window; nothing more on the next pass.
	_, err = e.RunObligationPass(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.eventsFor(models.EntityObligation, 10), 2)
}

func TestDaysUntil(t *testing.T) {
	base := time.Date(2026, 9, 14, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		due  time.Time
		want int
	}{
		{base.AddDate(0, 0, 7), 7},
		{time.Date(2026, 9, 15, 0, 30, 0, 0, time.UTC), 1},
		{time.Date(2026, 9, 14, 23, 59, 0, 0, time.UTC), 0},
		{time.Date(2026, 9, 13, 23, 59, 0, 0, time.UTC), -1},
		{base.AddDate(0, 0, -10), -10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, daysUntil(base, tt.due), "due %s", tt.due)
	}
}

func TestDaysUntilAcrossClockChanges(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	// Spring forward (29 March 2026): the week is 167 hours long.
	now := time.Date(2026, 3, 28, 9, 0, 0, 0, loc)
	due := time.Date(2026, 4, 4, 9, 0, 0, 0, loc)
	assert.Equal(t, 7, daysUntil(now, due))

	// Fall back (25 October 2026): the week is 169 hours long.
	now = time.Date(2026, 10, 24, 9, 0, 0, 0, loc)
	due = time.Date(2026, 10, 31, 9, 0, 0, 0, loc)
	assert.Equal(t, 7, daysUntil(now, due))

	now = time.Date(2026, 3, 28, 9, 0, 0, 0, loc)
	assert.Equal(t, 1, daysUntil(now, time.Date(2026, 3, 29, 9, 0, 0, 0, loc)))
}

func TestObligationPassAcrossClockChange(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	now := time.Date(2026, 3, 28, 9, 0, 0, 0, loc)

	store := newFakeStore()
	store.profiles[1] = proProfile(1)
	store.obligations = []models.TaxObligation{{
		ID: 10, UserID: 1, ObligationType: models.ObligationVAT,
		DueDate: time.Date(2026, 4, 4, 9, 0, 0, 0, loc), IsActive: true,
		PaymentStatus: models.PaymentStatusPending,
	}}

	e := testEngine(store, &fakeEmail{}, &fakeWhatsApp{}, now)
	stats, err := e.RunObligationPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)

	events := store.eventsFor(models.EntityObligation, 10)
	require.NotEmpty(t, events)
	assert.Equal(t, string(WindowDay7), events[0].Window)
}

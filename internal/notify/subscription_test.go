package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecourtlimited/compliancehub/models"
)

func testSubscriptionEngine(store *fakeStore, email EmailSender, whatsapp WhatsAppSender, now time.Time) *SubscriptionEngine {
	e := NewSubscriptionEngine(store, NewGateway(email, whatsapp), testPhones, "https://example.com/dashboard")
	e.now = func() time.Time { return now }
	return e
}

func TestExpiryPassWindows(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	for i := 1; i <= 4; i++ {
		store.profiles[i] = proProfile(i)
		store.profiles[i].UserID = i
	}
	store.subscriptions = []models.Subscription{
		{ID: 1, UserID: 1, Plan: models.PlanPro, Status: models.SubscriptionActive, ExpiryDate: now.AddDate(0, 0, 7)},
		{ID: 2, UserID: 2, Plan: models.PlanBasic, Status: models.SubscriptionActive, ExpiryDate: now.AddDate(0, 0, 3)},
		{ID: 3, UserID: 3, Plan: models.PlanPro, Status: models.SubscriptionActive, ExpiryDate: now.AddDate(0, 0, 5)},
		{ID: 4, UserID: 4, Plan: models.PlanPro, Status: models.SubscriptionInactive, ExpiryDate: now.AddDate(0, 0, 1)},
	}

	e := testSubscriptionEngine(store, &fakeEmail{}, &fakeWhatsApp{}, now)

	stats, err := e.RunExpiryPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sent)

	subEvents := store.eventsFor(models.EntitySubscription, 1)
	require.NotEmpty(t, subEvents)
	assert.Equal(t, string(WindowExpiry7), subEvents[0].Window)

	subEvents = store.eventsFor(models.EntitySubscription, 2)
	require.NotEmpty(t, subEvents)
	assert.Equal(t, string(WindowExpiry3), subEvents[0].Window)

	// Between windows and inactive: untouched.
	assert.Empty(t, store.eventsFor(models.EntitySubscription, 3))
	assert.Empty(t, store.eventsFor(models.EntitySubscription, 4))
}

func TestExpiryWindowFiresOnceEver(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.profiles[1] = proProfile(1)
	store.subscriptions = []models.Subscription{
		{ID: 1, UserID: 1, Plan: models.PlanPro, Status: models.SubscriptionActive, ExpiryDate: now.AddDate(0, 0, 1)},
	}

	e := testSubscriptionEngine(store, &fakeEmail{}, &fakeWhatsApp{}, now)

	_, err := e.RunExpiryPass(context.Background())
	require.NoError(t, err)
	before := len(store.events)

	_, err = e.RunExpiryPass(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.events, before)
}

func TestRenewalRestartsExpiryCountdown(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.profiles[1] = proProfile(1)
	store.subscriptions = []models.Subscription{
		{ID: 1, UserID: 1, Plan: models.PlanPro, Status: models.SubscriptionActive, ExpiryDate: now.AddDate(0, 0, 7)},
	}

	e := testSubscriptionEngine(store, &fakeEmail{}, &fakeWhatsApp{}, now)

	_, err := e.RunExpiryPass(context.Background())
	require.NoError(t, err)
	require.Len(t, store.eventsFor(models.EntitySubscription, 1), 2)

	// Renewed for another month: the old countdown's events must not
	// suppress the new cycle.
	store.subscriptions[0].ExpiryDate = store.subscriptions[0].ExpiryDate.AddDate(0, 1, 0)

	later := store.subscriptions[0].ExpiryDate.AddDate(0, 0, -7)
	e.now = func() time.Time { return later }
	stats, err := e.RunExpiryPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Len(t, store.eventsFor(models.EntitySubscription, 1), 4)
}

func TestExpiryIgnoresPlanGates(t *testing.T) {
	// Expiry mail is account mail: even a free-plan profile gets it.
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	profile := proProfile(1)
	profile.Plan = models.PlanFree
	store.profiles[1] = profile
	store.subscriptions = []models.Subscription{
		{ID: 1, UserID: 1, Plan: models.PlanBasic, Status: models.SubscriptionActive, ExpiryDate: now.AddDate(0, 0, 7)},
	}

	email := &fakeEmail{}
	whatsapp := &fakeWhatsApp{}
	e := testSubscriptionEngine(store, email, whatsapp, now)

	_, err := e.RunExpiryPass(context.Background())
	require.NoError(t, err)
	assert.Len(t, email.sent, 1)
	assert.Len(t, whatsapp.sent, 1)
}

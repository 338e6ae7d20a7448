package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/forecourtlimited/compliancehub/models"
)

// evaluateSubscription picks the expiry window that applies today. Each
// window fires once ever; lapsed subscriptions are someone else's problem.
func evaluateSubscription(sub models.Subscription, now time.Time) (Window, Tier, bool) {
	if sub.Status != models.SubscriptionActive {
		return "", "", false
	}
	switch daysUntil(now, sub.ExpiryDate) {
	case 7:
		return WindowExpiry7, TierNormal, true
	case 3:
		return WindowExpiry3, TierHigh, true
	case 1:
		return WindowExpiry1, TierCritical, true
	}
	return "", "", false
}

// SubscriptionEngine sends the expiry countdown for paid plans.
type SubscriptionEngine struct {
	sender
	dashboardURL string
	pageSize     int
	now          func() time.Time
}

func NewSubscriptionEngine(store Store, gateway *Gateway, phones PhoneNormalizer, dashboardURL string) *SubscriptionEngine {
	return &SubscriptionEngine{
		sender:       sender{store: store, gateway: gateway, phones: phones},
		dashboardURL: dashboardURL,
		pageSize:     100,
		now:          time.Now,
	}
}

func (e *SubscriptionEngine) RunExpiryPass(ctx context.Context) (PassStats, error) {
	var stats PassStats
	afterID := 0
	for {
		subs, err := e.store.ListActiveSubscriptions(ctx, afterID, e.pageSize)
		if err != nil {
			return stats, fmt.Errorf("subscription pass: %v", err)
		}
		if len(subs) == 0 {
			break
		}
		for _, sub := range subs {
			if sub.ID > afterID {
				afterID = sub.ID
			}
			stats.Evaluated++
			sent, err := e.processSubscription(ctx, sub)
			if err != nil {
				stats.Failures++
				log.Printf("subscription pass: subscription %d: %v", sub.ID, err)
				continue
			}
			if sent {
				stats.Sent++
			}
		}
		if len(subs) < e.pageSize {
			break
		}
	}
	return stats, nil
}

func (e *SubscriptionEngine) processSubscription(ctx context.Context, sub models.Subscription) (bool, error) {
	now := e.now()
	window, tier, ok := evaluateSubscription(sub, now)
	if !ok {
		return false, nil
	}

	// Dedup is scoped to the current expiry cycle: a renewal pushes the
	// expiry date out, so events from the previous countdown no longer
	// fall inside the new window span and the next cycle fires afresh.
	windowOpen := sub.ExpiryDate.AddDate(0, 0, -8)
	served, err := e.store.EventExistsSince(ctx, models.EntitySubscription, sub.ID, window, windowOpen)
	if err != nil {
		return false, err
	}
	if served {
		return false, nil
	}

	profile, err := e.store.ProfileByUserID(ctx, sub.UserID)
	if err != nil {
		return false, err
	}

	content := Render(window, tier, TemplateData{
		BusinessName: profile.BusinessName,
		Plan:         sub.Plan,
		DueDate:      sub.ExpiryDate,
		DaysUntilDue: daysUntil(now, sub.ExpiryDate),
		DashboardURL: e.dashboardURL,
	})

	// Expiry notices are account mail, not a plan perk: no plan gating.
	sent, _ := e.deliverToProfile(ctx, profile, models.EntitySubscription, sub.ID, window, content, now, false)
	return sent, nil
}

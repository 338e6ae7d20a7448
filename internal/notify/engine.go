package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/forecourtlimited/compliancehub/models"
)

// PassStats summarizes one scheduler pass for logging and the manual
// trigger surface.
type PassStats struct {
	Evaluated int `json:"evaluated"`
	Sent      int `json:"sent"`
	Failures  int `json:"failures"`
}

// sender is the delivery plumbing shared by the reminder and drip engines:
// fan out to the eligible channels, then record the actual provider outcome
// in the audit ledger. A ledger row is written after the provider call
// returns, never before.
type sender struct {
	store   Store
	gateway *Gateway
	phones  PhoneNormalizer
}

// deliverToProfile sends content to every channel the profile is eligible
// for. sent reports whether at least one channel succeeded; attempted
// whether at least one real delivery attempt was made and recorded, so
// callers can tell a failed send apart from a channel that is simply not
// configured yet. With gated set, plan limits apply (email from basic,
// WhatsApp from pro); onboarding and account messages pass gated=false.
func (s *sender) deliverToProfile(ctx context.Context, profile *models.Profile, entityType string, entityID int, window Window, content Content, now time.Time, gated bool) (sent, attempted bool) {
	if profile.Email != "" && (!gated || models.PlanAllowsEmailReminders(profile.Plan)) {
		res := s.gateway.Send(ctx, ChannelEmail, profile.Email, content)
		ok, tried := s.record(ctx, profile.UserID, entityType, entityID, window, ChannelEmail, content.Subject, res, now)
		sent = sent || ok
		attempted = attempted || tried
	}

	if profile.Phone != "" && (!gated || models.PlanAllowsWhatsAppReminders(profile.Plan)) {
		address := s.phones.Normalize(profile.Phone)
		res := s.gateway.Send(ctx, ChannelWhatsApp, address, content)
		ok, tried := s.record(ctx, profile.UserID, entityType, entityID, window, ChannelWhatsApp, content.Text, res, now)
		sent = sent || ok
		attempted = attempted || tried
	}

	return sent, attempted
}

// record appends the delivery outcome to the ledger. Missing provider
// configuration is logged but not recorded: the window stays unserved and
// is retried once the credentials appear, and attempted comes back false so
// callers do not consume queued work over it.
func (s *sender) record(ctx context.Context, userID int, entityType string, entityID int, window Window, ch Channel, body string, res SendResult, now time.Time) (sent, attempted bool) {
	if res.Err != nil && errors.Is(res.Err, ErrChannelNotConfigured) {
		log.Printf("notify: %s send for %s %d skipped: %v", ch, entityType, entityID, res.Err)
		return false, false
	}

	event := &models.ReminderEvent{
		UserID:         userID,
		EntityType:     entityType,
		EntityID:       entityID,
		Window:         string(window),
		Channel:        string(ch),
		MessageContent: body,
		ScheduledAt:    now,
	}
	if res.OK {
		event.Status = models.ReminderStatusSent
		event.ProviderID = res.ProviderID
		sentAt := now
		event.SentAt = &sentAt
	} else {
		event.Status = models.ReminderStatusFailed
		event.ErrorMessage = res.Err.Error()
	}

	if err := s.store.AppendEvent(ctx, event); err != nil {
		log.Printf("notify: recording %s event for %s %d: %v", ch, entityType, entityID, err)
	}
	return res.OK, true
}

// daysUntil counts calendar days from now's date to due's date in now's
// location. A due time 23 hours away is still one day out; anything earlier
// today is zero, yesterday is -1. Rounding absorbs DST transitions, where
// the midnight-to-midnight span is 23 or 25 hours.
func daysUntil(now, due time.Time) int {
	due = due.In(now.Location())
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, now.Location())
	return int(math.Round(dueDay.Sub(nowDay).Hours() / 24))
}

type decision struct {
	window Window
	tier   Tier
	daily  bool
}

// evaluateObligation picks the window that applies to ob today, if any.
// Paid and inactive obligations are terminal.
func evaluateObligation(ob models.TaxObligation, now time.Time) (decision, bool) {
	if !ob.IsActive || ob.PaymentStatus == models.PaymentStatusPaid {
		return decision{}, false
	}
	switch days := daysUntil(now, ob.DueDate); {
	case days == 7:
		return decision{window: WindowDay7, tier: TierForDays(7)}, true
	case days == 3:
		return decision{window: WindowDay3, tier: TierForDays(3)}, true
	case days == 1:
		return decision{window: WindowDay1, tier: TierForDays(1)}, true
	case days < 0:
		return decision{window: WindowOverdueDaily, tier: TierCritical, daily: true}, true
	}
	return decision{}, false
}

// Engine decides and sends obligation deadline reminders. It derives
// everything from the store and the ledger, so repeated or overlapping
// passes stay idempotent.
type Engine struct {
	sender
	dashboardURL string
	pageSize     int
	now          func() time.Time
}

func NewEngine(store Store, gateway *Gateway, phones PhoneNormalizer, dashboardURL string) *Engine {
	return &Engine{
		sender:       sender{store: store, gateway: gateway, phones: phones},
		dashboardURL: dashboardURL,
		pageSize:     100,
		now:          time.Now,
	}
}

// RunObligationPass walks every active obligation and serves whichever
// window applies today.
func (e *Engine) RunObligationPass(ctx context.Context) (PassStats, error) {
	return e.runPass(ctx, false)
}

// RunOverduePass is the midnight-aligned variant that only serves the
// overdue-daily window.
func (e *Engine) RunOverduePass(ctx context.Context) (PassStats, error) {
	return e.runPass(ctx, true)
}

func (e *Engine) runPass(ctx context.Context, overdueOnly bool) (PassStats, error) {
	var stats PassStats
	afterID := 0
	for {
		obligations, err := e.store.ListActiveObligations(ctx, afterID, e.pageSize)
		if err != nil {
			return stats, fmt.Errorf("obligation pass: %v", err)
		}
		if len(obligations) == 0 {
			break
		}
		for _, ob := range obligations {
			if ob.ID > afterID {
				afterID = ob.ID
			}
			if overdueOnly {
				dec, ok := evaluateObligation(ob, e.now())
				if !ok || !dec.daily {
					continue
				}
			}
			stats.Evaluated++
			sent, err := e.processObligation(ctx, ob)
			if err != nil {
				// One broken obligation must not sink its siblings.
				stats.Failures++
				log.Printf("obligation pass: obligation %d: %v", ob.ID, err)
				continue
			}
			if sent {
				stats.Sent++
			}
		}
		if len(obligations) < e.pageSize {
			break
		}
	}
	return stats, nil
}

func (e *Engine) processObligation(ctx context.Context, ob models.TaxObligation) (bool, error) {
	now := e.now()
	dec, ok := evaluateObligation(ob, now)
	if !ok {
		return false, nil
	}

	// The overdue status flip is derived from the due date on the same
	// pass that first notices it.
	if dec.daily && ob.PaymentStatus == models.PaymentStatusPending {
		if err := e.store.MarkObligationOverdue(ctx, ob.ID); err != nil {
			return false, err
		}
	}

	var served bool
	var err error
	if dec.daily {
		served, err = e.store.EventExistsOn(ctx, models.EntityObligation, ob.ID, dec.window, now)
	} else {
		served, err = e.store.EventExists(ctx, models.EntityObligation, ob.ID, dec.window)
	}
	if err != nil {
		return false, err
	}
	if served {
		return false, nil
	}

	profile, err := e.store.ProfileByUserID(ctx, ob.UserID)
	if err != nil {
		return false, err
	}

	days := daysUntil(now, ob.DueDate)
	content := Render(dec.window, dec.tier, TemplateData{
		BusinessName:   profile.BusinessName,
		ObligationType: ob.ObligationType,
		Plan:           profile.Plan,
		DueDate:        ob.DueDate,
		DaysUntilDue:   days,
		DaysOverdue:    -days,
		DashboardURL:   e.dashboardURL,
	})

	sentAny, _ := e.deliverToProfile(ctx, profile, models.EntityObligation, ob.ID, dec.window, content, now, true)
	if sentAny && dec.daily {
		if err := e.store.MarkOverdueReminderSent(ctx, ob.ID, now); err != nil {
			return true, err
		}
	}
	return sentAny, nil
}

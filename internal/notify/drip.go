package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/forecourtlimited/compliancehub/models"
)

const (
	followUpDelay    = 30 * time.Minute
	educationalDelay = 2 * time.Hour
)

// DripEngine runs the onboarding sequence and the scheduled-message queue.
// The welcome goes out the moment a profile verifies its email; the later
// steps are persisted as scheduled messages so they survive restarts and
// are picked up by the minutely dispatch pass.
type DripEngine struct {
	sender
	dashboardURL string
	batchSize    int
	now          func() time.Time
}

func NewDripEngine(store Store, gateway *Gateway, phones PhoneNormalizer, dashboardURL string) *DripEngine {
	return &DripEngine{
		sender:       sender{store: store, gateway: gateway, phones: phones},
		dashboardURL: dashboardURL,
		batchSize:    100,
		now:          time.Now,
	}
}

func (d *DripEngine) templateData(profile *models.Profile) TemplateData {
	return TemplateData{
		BusinessName: profile.BusinessName,
		Plan:         profile.Plan,
		DashboardURL: d.dashboardURL,
	}
}

// StartOnboarding kicks off the drip for a freshly verified profile. Safe
// to call more than once: the welcome dedups against the ledger and the
// queued steps dedup against the scheduled-message table.
func (d *DripEngine) StartOnboarding(ctx context.Context, profile *models.Profile) error {
	if !profile.EmailVerified {
		return fmt.Errorf("onboarding requires a verified email")
	}
	now := d.now()

	served, err := d.store.EventExists(ctx, models.EntityProfile, profile.ID, WindowOnboardingWelcome)
	if err != nil {
		return fmt.Errorf("onboarding: checking welcome: %v", err)
	}
	if !served {
		content := Render(WindowOnboardingWelcome, TierNormal, d.templateData(profile))
		if sent, _ := d.deliverToProfile(ctx, profile, models.EntityProfile, profile.ID, WindowOnboardingWelcome, content, now, false); !sent {
			log.Printf("onboarding: welcome for profile %d not delivered", profile.ID)
		}
	}

	steps := []struct {
		window Window
		delay  time.Duration
	}{
		{WindowOnboardingFollowUp, followUpDelay},
		{WindowOnboardingEducational, educationalDelay},
	}
	for _, step := range steps {
		queued, err := d.store.HasMessage(ctx, profile.UserID, step.window)
		if err != nil {
			return fmt.Errorf("onboarding: checking %s: %v", step.window, err)
		}
		if queued {
			continue
		}
		msg := &models.ScheduledMessage{
			UserID:       profile.UserID,
			Window:       string(step.window),
			ScheduledFor: now.Add(step.delay),
		}
		if err := d.store.EnqueueMessage(ctx, msg); err != nil {
			return fmt.Errorf("onboarding: queueing %s: %v", step.window, err)
		}
	}
	return nil
}

// EnqueueTestMessage queues a one-off message due immediately. The dispatch
// pass delivers it through the same gateway and ledger as real reminders.
func (d *DripEngine) EnqueueTestMessage(ctx context.Context, userID int, email, phone, subject, body string) (*models.ScheduledMessage, error) {
	msg := &models.ScheduledMessage{
		UserID:       userID,
		Subject:      subject,
		Body:         body,
		TargetEmail:  email,
		TargetPhone:  phone,
		ScheduledFor: d.now(),
	}
	if err := d.store.EnqueueMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("queueing test message: %v", err)
	}
	return msg, nil
}

// RunDispatchPass delivers every scheduled message that has come due.
func (d *DripEngine) RunDispatchPass(ctx context.Context) (PassStats, error) {
	var stats PassStats
	msgs, err := d.store.DueMessages(ctx, d.now(), d.batchSize)
	if err != nil {
		return stats, fmt.Errorf("dispatch pass: %v", err)
	}
	for _, msg := range msgs {
		stats.Evaluated++
		sent, err := d.dispatch(ctx, msg)
		if err != nil {
			stats.Failures++
			log.Printf("dispatch pass: message %d: %v", msg.ID, err)
			continue
		}
		if sent {
			stats.Sent++
		}
	}
	return stats, nil
}

func (d *DripEngine) dispatch(ctx context.Context, msg models.ScheduledMessage) (bool, error) {
	if msg.Window == "" {
		return d.dispatchCustom(ctx, msg)
	}

	now := d.now()
	window := Window(msg.Window)
	profile, err := d.store.ProfileByUserID(ctx, msg.UserID)
	if err != nil {
		if markErr := d.store.MarkMessageFailed(ctx, msg.ID); markErr != nil {
			log.Printf("dispatch pass: marking message %d failed: %v", msg.ID, markErr)
		}
		return false, err
	}

	// The drip may have been restarted for the same profile; once the
	// window has a sent ledger row the queued duplicate is cancelled.
	served, err := d.store.EventExists(ctx, models.EntityProfile, profile.ID, window)
	if err != nil {
		return false, err
	}
	if served {
		return false, d.store.MarkMessageCancelled(ctx, msg.ID)
	}

	content := Render(window, TierNormal, d.templateData(profile))
	sent, attempted := d.deliverToProfile(ctx, profile, models.EntityProfile, profile.ID, window, content, now, false)
	if sent {
		return true, d.store.MarkMessageSent(ctx, msg.ID, now)
	}
	if !attempted {
		// No channel is configured yet. The step stays pending and goes
		// out on a later pass once credentials appear.
		log.Printf("dispatch pass: message %d waiting on channel configuration", msg.ID)
		return false, nil
	}
	return false, d.store.MarkMessageFailed(ctx, msg.ID)
}

func (d *DripEngine) dispatchCustom(ctx context.Context, msg models.ScheduledMessage) (bool, error) {
	now := d.now()
	content := Content{
		Subject: msg.Subject,
		HTML:    strings.ReplaceAll(msg.Body, "\n", "<br>"),
		Text:    msg.Body,
	}

	sentAny := false
	attemptedAny := false
	if msg.TargetEmail != "" {
		res := d.gateway.Send(ctx, ChannelEmail, msg.TargetEmail, content)
		sent, attempted := d.record(ctx, msg.UserID, models.EntityMessage, msg.ID, "", ChannelEmail, content.Subject, res, now)
		sentAny = sentAny || sent
		attemptedAny = attemptedAny || attempted
	}
	if msg.TargetPhone != "" {
		address := d.phones.Normalize(msg.TargetPhone)
		res := d.gateway.Send(ctx, ChannelWhatsApp, address, content)
		sent, attempted := d.record(ctx, msg.UserID, models.EntityMessage, msg.ID, "", ChannelWhatsApp, content.Text, res, now)
		sentAny = sentAny || sent
		attemptedAny = attemptedAny || attempted
	}

	if sentAny {
		return true, d.store.MarkMessageSent(ctx, msg.ID, now)
	}
	if !attemptedAny {
		log.Printf("dispatch pass: message %d waiting on channel configuration", msg.ID)
		return false, nil
	}
	return false, d.store.MarkMessageFailed(ctx, msg.ID)
}

package notify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forecourtlimited/compliancehub/utils"
)

// Content is one rendered message: subject + HTML for email, plain text for
// WhatsApp.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

// TemplateData is the entity snapshot a template renders from. Rendering is
// a pure function of this struct: the same data always produces byte-
// identical output.
type TemplateData struct {
	BusinessName   string
	ObligationType string
	Plan           string
	DueDate        time.Time
	DaysUntilDue   int
	DaysOverdue    int
	DashboardURL   string
}

const dateLayout = "02/01/2006"

// Render builds the message for a window. The tier only changes tone, never
// the facts.
func Render(w Window, tier Tier, d TemplateData) Content {
	switch w {
	case WindowDay7, WindowDay3, WindowDay1:
		return renderDeadline(tier, d)
	case WindowOverdueDaily:
		return renderOverdue(d)
	case WindowExpiry7, WindowExpiry3, WindowExpiry1:
		return renderExpiry(w, d)
	case WindowOnboardingWelcome:
		return renderWelcome(d)
	case WindowOnboardingFollowUp:
		return renderFollowUp(d)
	case WindowOnboardingEducational:
		return renderEducational(d)
	}
	return Content{}
}

func urgencyLabel(tier Tier) string {
	switch tier {
	case TierCritical:
		return "🚨 URGENT"
	case TierHigh:
		return "⚠️ Important"
	default:
		return "📅 Reminder"
	}
}

func dayWord(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}

func renderDeadline(tier Tier, d TemplateData) Content {
	label := urgencyLabel(tier)
	due := d.DueDate.Format(dateLayout)
	callToAction := "⚠️ File soon to avoid penalties!"
	if tier == TierCritical {
		callToAction = "🚨 File TODAY to avoid penalties!"
	}

	subject := fmt.Sprintf("%s: %s Filing Due in %d %s",
		label, d.ObligationType, d.DaysUntilDue, dayWord(d.DaysUntilDue))

	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>%s: %s Filing Due</h1>
  <p>%d %s remaining</p>
  <p>Hi %s,</p>
  <p><strong>%s</strong></p>
  <p><strong>Due Date:</strong> %s</p>
  <p><a href="%s">View Dashboard</a></p>
</div>`, label, d.ObligationType, d.DaysUntilDue, dayWord(d.DaysUntilDue), d.BusinessName, callToAction, due, d.DashboardURL)

	text := fmt.Sprintf("%s %s!\n\n📋 %s filing due in %d %s\n📅 Due: %s\n\n%s\n\nStay compliant! 💼",
		label, d.BusinessName, d.ObligationType, d.DaysUntilDue, dayWord(d.DaysUntilDue), due, callToAction)

	return Content{Subject: subject, HTML: html, Text: text}
}

// overduePenalty estimates the statutory penalty band for the copy shown in
// overdue reminders.
func overduePenalty(daysOverdue int) string {
	var amount int64
	switch {
	case daysOverdue >= 14:
		amount = 500000
	case daysOverdue >= 7:
		amount = 200000
	case daysOverdue >= 3:
		amount = 100000
	default:
		amount = 50000
	}
	return utils.FormatNaira(decimal.NewFromInt(amount)) + "+"
}

func renderOverdue(d TemplateData) Content {
	due := d.DueDate.Format(dateLayout)
	penalty := overduePenalty(d.DaysOverdue)

	subject := fmt.Sprintf("🚨 %s %d %s Overdue - File Immediately", d.ObligationType, d.DaysOverdue, dayWord(d.DaysOverdue))

	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: red;">%s Overdue</h1>
  <p>Hi %s,</p>
  <p>Your %s is %d %s overdue! File immediately to minimize penalties. Current penalty: %s</p>
  <p><strong>Original Due Date:</strong> %s</p>
  <p><a href="%s">Mark as Paid Now</a></p>
</div>`, d.ObligationType, d.BusinessName, d.ObligationType, d.DaysOverdue, dayWord(d.DaysOverdue), penalty, due, d.DashboardURL)

	text := fmt.Sprintf("🚨 %s OVERDUE %s!\n\nYour %s is %d %s overdue. Penalties are accumulating: %s\n\nOriginal due date: %s\n\nMark as paid: %s",
		d.ObligationType, d.BusinessName, d.ObligationType, d.DaysOverdue, dayWord(d.DaysOverdue), penalty, due, d.DashboardURL)

	return Content{Subject: subject, HTML: html, Text: text}
}

func renderExpiry(w Window, d TemplateData) Content {
	plan := d.Plan
	switch w {
	case WindowExpiry7:
		return Content{
			Subject: "⏰ Your ComplianceHub subscription expires in 7 days",
			HTML: fmt.Sprintf(`<h2>Hi %s!</h2><p>Your <strong>%s</strong> plan expires in 7 days.</p><p>Don't miss your tax deadlines! Renew now to keep receiving automated reminders.</p><p><a href="%s">Renew Now</a></p>`,
				d.BusinessName, plan, d.DashboardURL),
			Text: fmt.Sprintf("⏰ Hi %s!\n\nYour %s plan expires in 7 days.\n\nRenew now to keep receiving tax reminders and avoid penalties!\n\n%s",
				d.BusinessName, plan, d.DashboardURL),
		}
	case WindowExpiry3:
		return Content{
			Subject: "🚨 URGENT: Your subscription expires in 3 days",
			HTML: fmt.Sprintf(`<h2>Hi %s!</h2><p><strong>URGENT:</strong> Your %s plan expires in just 3 days!</p><p>After expiry you'll lose access to tax deadline reminders.</p><p><a href="%s">Renew Immediately</a></p>`,
				d.BusinessName, plan, d.DashboardURL),
			Text: fmt.Sprintf("🚨 URGENT %s!\n\nYour %s plan expires in 3 days!\n\nDon't risk missing tax deadlines and facing penalties!\n\nRenew now: %s",
				d.BusinessName, plan, d.DashboardURL),
		}
	default: // WindowExpiry1
		return Content{
			Subject: "⚠️ FINAL NOTICE: Subscription expires tomorrow",
			HTML: fmt.Sprintf(`<h2>Hi %s!</h2><p><strong>FINAL NOTICE:</strong> Your %s plan expires TOMORROW!</p><p>This is your last chance to renew before losing all compliance reminders.</p><p><a href="%s">RENEW NOW - Last Chance!</a></p>`,
				d.BusinessName, plan, d.DashboardURL),
			Text: fmt.Sprintf("⚠️ FINAL NOTICE %s!\n\nYour %s plan expires TOMORROW!\n\nLast chance to renew before losing all tax reminders!\n\n%s",
				d.BusinessName, plan, d.DashboardURL),
		}
	}
}

func renderWelcome(d TemplateData) Content {
	return Content{
		Subject: "🎉 Welcome to ComplianceHub!",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Welcome to ComplianceHub!</h1>
  <p>Your tax compliance assistant is ready</p>
  <h2>Hi %s! 👋</h2>
  <p>Thank you for joining ComplianceHub! We're excited to help you never miss another tax deadline.</p>
  <h3>What happens next?</h3>
  <ul>
    <li>Complete your business profile</li>
    <li>Add your tax obligations</li>
    <li>Get WhatsApp &amp; email reminders</li>
    <li>Access our tax calculator</li>
  </ul>
  <p><a href="%s">Complete Your Setup</a></p>
</div>`, d.BusinessName, d.DashboardURL),
		Text: fmt.Sprintf("🎉 Welcome to ComplianceHub, %s!\n\nYour account is ready. Complete your setup to start receiving tax reminders.\n\n✅ Never miss deadlines\n✅ Avoid penalties\n✅ Stay compliant\n\nGet started: %s",
			d.BusinessName, d.DashboardURL),
	}
}

func renderFollowUp(d TemplateData) Content {
	return Content{
		Subject: "⏰ Complete your ComplianceHub setup (2 minutes)",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>⏰ Don't forget to complete your setup!</h1>
  <p>Hi %s,</p>
  <p>We noticed you haven't completed your business profile yet. It only takes 2 minutes!</p>
  <p><strong>⚠️ Without completing your profile, we can't send you important deadline reminders!</strong></p>
  <p><a href="%s">Complete Setup Now (2 mins)</a></p>
</div>`, d.BusinessName, d.DashboardURL),
		Text: fmt.Sprintf("⏰ Hi %s!\n\nQuick reminder: Complete your ComplianceHub setup to start receiving tax deadline alerts.\n\n⚠️ Without setup, you might miss important deadlines!\n\nTakes 2 minutes: %s",
			d.BusinessName, d.DashboardURL),
	}
}

func renderEducational(d TemplateData) Content {
	return Content{
		Subject: "📚 Nigerian Tax Compliance Made Simple",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>📚 Tax Compliance Made Simple</h1>
  <p>Hi %s,</p>
  <p>Nigerian tax compliance doesn't have to be scary. Here's what ComplianceHub helps you track:</p>
  <h3>🧾 VAT (Value Added Tax)</h3>
  <p>Monthly filing required. Due 21st of following month.</p>
  <h3>👥 PAYE (Pay As You Earn)</h3>
  <p>Monthly remittance for employee taxes. Due 10th of following month.</p>
  <h3>📋 CAC Annual Returns</h3>
  <p>Due 42 days after incorporation anniversary.</p>
  <p><a href="%s">Start Tracking Your Deadlines</a></p>
</div>`, d.BusinessName, d.DashboardURL),
		Text: fmt.Sprintf("📚 %s, here are key Nigerian tax deadlines:\n\n📅 VAT: 21st monthly\n📅 PAYE: 10th monthly\n📅 WHT: 21st monthly\n📅 CAC: 42 days after anniversary\n\nLet ComplianceHub track these for you automatically! 🎯\n\n%s",
			d.BusinessName, d.DashboardURL),
	}
}

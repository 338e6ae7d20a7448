package notify

// Window names a point in an entity's timeline at which a reminder is
// eligible to fire. The discrete windows fire at most once ever per entity;
// WindowOverdueDaily fires at most once per calendar day.
type Window string

const (
	WindowDay7         Window = "day-7"
	WindowDay3         Window = "day-3"
	WindowDay1         Window = "day-1"
	WindowOverdueDaily Window = "overdue-daily"

	WindowExpiry7 Window = "expiry-7"
	WindowExpiry3 Window = "expiry-3"
	WindowExpiry1 Window = "expiry-1"

	WindowOnboardingWelcome     Window = "onboarding-welcome"
	WindowOnboardingFollowUp    Window = "onboarding-followup"
	WindowOnboardingEducational Window = "onboarding-educational"
)

// Tier is the urgency label used to pick template tone. It never changes
// which facts are rendered.
type Tier string

const (
	TierNormal   Tier = "normal"
	TierHigh     Tier = "high"
	TierCritical Tier = "critical"
)

// TierForDays maps days-until-due to an urgency tier. Anything overdue is
// critical.
func TierForDays(daysUntilDue int) Tier {
	switch {
	case daysUntilDue <= 1:
		return TierCritical
	case daysUntilDue <= 3:
		return TierHigh
	default:
		return TierNormal
	}
}

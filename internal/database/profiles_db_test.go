package database_test

import (
	"context"
	"testing"

	"github.com/forecourtlimited/compliancehub/internal/database"
	"github.com/forecourtlimited/compliancehub/models"
)

func TestMarkEmailVerifiedReportsFirstTransition(t *testing.T) {
	pool := testPool(t)
	user := createTestUser(t, pool)
	ctx := context.Background()

	profile := &models.Profile{
		UserID:       user.ID,
		BusinessName: "Lagos Test Stores",
		Email:        user.Email,
		Phone:        "08012345678",
		Plan:         models.PlanFree,
	}
	if err := database.CreateProfile(ctx, pool, profile); err != nil {
		t.Fatalf("creating profile: %v", err)
	}

	changed, err := database.MarkEmailVerified(ctx, pool, profile.ID)
	if err != nil {
		t.Fatalf("verifying profile: %v", err)
	}
	if !changed {
		t.Error("first verification should report a change")
	}

	// The onboarding trigger must fire exactly once.
	changed, err = database.MarkEmailVerified(ctx, pool, profile.ID)
	if err != nil {
		t.Fatalf("verifying profile again: %v", err)
	}
	if changed {
		t.Error("repeat verification must not report a change")
	}

	got, err := database.GetProfileByUserID(ctx, pool, user.ID)
	if err != nil {
		t.Fatalf("fetching profile: %v", err)
	}
	if !got.EmailVerified {
		t.Error("profile should be verified")
	}
}

package utils

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forecourtlimited/compliancehub/internal/database"
	"github.com/forecourtlimited/compliancehub/models"
)

var demoPlans = []string{models.PlanFree, models.PlanBasic, models.PlanPro, models.PlanEnterprise}

var demoObligationTypes = []string{
	models.ObligationVAT,
	models.ObligationPAYE,
	models.ObligationWHT,
	models.ObligationCAC,
}

// GenerateDemoData fills the database with a handful of businesses that have
// obligations spread across the reminder windows, so a fresh install has
// something for the scheduler to chew on.
func GenerateDemoData(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 10; i++ {
		user := &models.User{
			Email:    gofakeit.Email(),
			Password: gofakeit.Password(true, true, true, false, false, 12),
			Name:     gofakeit.Name(),
		}
		if err := database.RegisterUser(ctx, pool, user); err != nil {
			return fmt.Errorf("demo user: %v", err)
		}

		plan := demoPlans[rand.Intn(len(demoPlans))]
		profile := &models.Profile{
			UserID:       user.ID,
			BusinessName: gofakeit.Company(),
			Email:        user.Email,
			Phone:        "0" + gofakeit.Numerify("##########"),
			Plan:         plan,
			CACNumber:    "RC" + gofakeit.Numerify("######"),
		}
		if err := database.CreateProfile(ctx, pool, profile); err != nil {
			return fmt.Errorf("demo profile: %v", err)
		}

		if err := generateObligations(ctx, pool, user.ID); err != nil {
			return err
		}
		if err := generateInvoices(ctx, pool, user.ID); err != nil {
			return err
		}
		if err := generateCashbook(ctx, pool, user.ID); err != nil {
			return err
		}

		if plan != models.PlanFree {
			sub := &models.Subscription{
				UserID:     user.ID,
				Plan:       plan,
				Status:     models.SubscriptionActive,
				ExpiryDate: time.Now().AddDate(0, 0, rand.Intn(60)+1),
			}
			if err := database.CreateSubscription(ctx, pool, sub); err != nil {
				return fmt.Errorf("demo subscription: %v", err)
			}
		}
	}
	return nil
}

func generateObligations(ctx context.Context, pool *pgxpool.Pool, userID int) error {
	// Offsets land obligations on, between, and past the reminder windows.
	offsets := []int{-5, -1, 1, 3, 7, 14}
	for _, days := range offsets[:rand.Intn(3)+2] {
		ob := &models.TaxObligation{
			UserID:         userID,
			ObligationType: demoObligationTypes[rand.Intn(len(demoObligationTypes))],
			Frequency:      "monthly",
			TaxPeriod:      time.Now().Format("2006-01"),
			DueDate:        time.Now().AddDate(0, 0, days),
			IsActive:       true,
			PaymentStatus:  models.PaymentStatusPending,
		}
		if err := database.CreateObligation(ctx, pool, ob); err != nil {
			return fmt.Errorf("demo obligation: %v", err)
		}
	}
	return nil
}

func generateInvoices(ctx context.Context, pool *pgxpool.Pool, userID int) error {
	for i := 0; i < rand.Intn(4)+1; i++ {
		amount := decimal.NewFromFloat(gofakeit.Price(10000, 2000000)).Round(2)
		invoice := &models.Invoice{
			UserID:      userID,
			ClientName:  gofakeit.Company(),
			ClientEmail: gofakeit.Email(),
			Amount:      amount,
			VATAmount:   amount.Mul(decimal.NewFromFloat(0.075)).Round(2),
			Status:      models.InvoiceDraft,
			DueDate:     time.Now().AddDate(0, 0, rand.Intn(30)+1),
		}
		if err := database.CreateInvoice(ctx, pool, invoice); err != nil {
			return fmt.Errorf("demo invoice: %v", err)
		}
	}
	return nil
}

func generateCashbook(ctx context.Context, pool *pgxpool.Pool, userID int) error {
	for i := 0; i < rand.Intn(8)+3; i++ {
		entryType := models.EntryIncome
		if rand.Intn(2) == 0 {
			entryType = models.EntryExpense
		}
		entry := &models.CashbookEntry{
			UserID:      userID,
			EntryType:   entryType,
			Description: gofakeit.Sentence(4),
			Category:    gofakeit.BuzzWord(),
			Amount:      decimal.NewFromFloat(gofakeit.Price(500, 500000)).Round(2),
			EntryDate:   time.Now().AddDate(0, 0, -rand.Intn(30)),
		}
		if err := database.CreateCashbookEntry(ctx, pool, entry); err != nil {
			return fmt.Errorf("demo cashbook entry: %v", err)
		}
	}
	return nil
}

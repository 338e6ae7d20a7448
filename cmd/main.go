package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/forecourtlimited/compliancehub/internal/config"
	"github.com/forecourtlimited/compliancehub/internal/database"
	"github.com/forecourtlimited/compliancehub/internal/notify"
	"github.com/forecourtlimited/compliancehub/models"
	"github.com/forecourtlimited/compliancehub/utils"
)

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "http://localhost:3000" || origin == "http://localhost:3001" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func main() {
	seed := flag.Bool("seed", false, "populate the database with demo data and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	if *seed {
		if err := utils.GenerateDemoData(context.Background(), pool); err != nil {
			log.Fatalf("seeding demo data: %v", err)
		}
		log.Println("demo data generated")
		return
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("loading timezone %q: %v", cfg.Timezone, err)
	}

	store := notify.NewPGStore(pool)
	phones := notify.PhoneNormalizer{CountryCode: cfg.CountryCode, TrunkPrefix: cfg.TrunkPrefix}
	gateway := notify.NewGateway(
		notify.NewResendClient(cfg.ResendAPIKey, cfg.EmailFrom),
		notify.NewTwilioWhatsAppClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom),
	)
	obligations := notify.NewEngine(store, gateway, phones, cfg.DashboardURL)
	subscriptions := notify.NewSubscriptionEngine(store, gateway, phones, cfg.DashboardURL)
	drip := notify.NewDripEngine(store, gateway, phones, cfg.DashboardURL)

	scheduler := notify.NewScheduler(obligations, subscriptions, drip, loc)
	scheduler.Start()

	r := gin.Default()
	r.Use(CORSMiddleware())

	r.POST("/register", func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration payload"})
			return
		}
		if err := database.RegisterUser(c.Request.Context(), pool, &user); err != nil {
			log.Printf("registering user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user registered", "user_id": user.ID})
	})

	r.POST("/login", func(c *gin.Context) {
		var credentials models.User
		if err := c.ShouldBindJSON(&credentials); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid login payload"})
			return
		}
		user, err := database.AuthenticateUser(c.Request.Context(), pool, credentials.Email, credentials.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		user.Password = ""
		c.JSON(http.StatusOK, gin.H{"message": "login successful", "user": user})
	})

	r.GET("/users/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		user, err := database.GetUserByID(c.Request.Context(), pool, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		user.Password = ""
		c.JSON(http.StatusOK, user)
	})

	r.POST("/profiles", func(c *gin.Context) {
		var profile models.Profile
		if err := c.ShouldBindJSON(&profile); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile payload"})
			return
		}
		if err := database.CreateProfile(c.Request.Context(), pool, &profile); err != nil {
			log.Printf("creating profile: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create profile"})
			return
		}
		c.JSON(http.StatusCreated, profile)
	})

	r.GET("/profiles/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		profile, err := database.GetProfileByID(c.Request.Context(), pool, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusOK, profile)
	})

	r.GET("/users/:id/profile", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		profile, err := database.GetProfileByUserID(c.Request.Context(), pool, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusOK, profile)
	})

	r.PUT("/profiles/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var profile models.Profile
		if err := c.ShouldBindJSON(&profile); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile payload"})
			return
		}
		profile.ID = id
		if err := database.UpdateProfile(c.Request.Context(), pool, &profile); err != nil {
			log.Printf("updating profile %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
			return
		}
		c.JSON(http.StatusOK, profile)
	})

	// Email verification is the onboarding trigger: the first successful
	// verify starts the welcome drip, repeats are no-ops.
	r.PUT("/profiles/:id/verify", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		changed, err := database.MarkEmailVerified(ctx, pool, id)
		if err != nil {
			log.Printf("verifying profile %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify profile"})
			return
		}
		if changed {
			profile, err := database.GetProfileByID(ctx, pool, id)
			if err != nil {
				log.Printf("loading verified profile %d: %v", id, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
				return
			}
			if err := drip.StartOnboarding(ctx, profile); err != nil {
				log.Printf("starting onboarding for profile %d: %v", id, err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"verified": true, "onboarding_started": changed})
	})

	r.POST("/obligations", func(c *gin.Context) {
		var ob models.TaxObligation
		if err := c.ShouldBindJSON(&ob); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid obligation payload"})
			return
		}
		if !models.ValidObligationType(ob.ObligationType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown obligation type"})
			return
		}
		if err := database.CreateObligation(c.Request.Context(), pool, &ob); err != nil {
			log.Printf("creating obligation: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create obligation"})
			return
		}
		c.JSON(http.StatusCreated, ob)
	})

	r.GET("/obligations/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ob, err := database.GetObligationByID(c.Request.Context(), pool, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "obligation not found"})
			return
		}
		c.JSON(http.StatusOK, ob)
	})

	r.GET("/users/:id/obligations", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		obs, err := database.ListObligationsByUserID(c.Request.Context(), pool, id)
		if err != nil {
			log.Printf("listing obligations for user %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list obligations"})
			return
		}
		c.JSON(http.StatusOK, obs)
	})

	// Moving the due date resets the overdue cycle so the new deadline
	// gets a fresh set of reminder windows.
	r.PUT("/obligations/:id/due-date", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			DueDate   time.Time `json:"due_date" binding:"required"`
			TaxPeriod string    `json:"tax_period"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due date payload"})
			return
		}
		if err := database.UpdateObligationDueDate(c.Request.Context(), pool, id, req.DueDate, req.TaxPeriod); err != nil {
			log.Printf("updating due date for obligation %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update due date"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "due date updated"})
	})

	r.PUT("/obligations/:id/paid", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := database.MarkObligationPaid(c.Request.Context(), pool, id); err != nil {
			log.Printf("marking obligation %d paid: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark obligation paid"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "obligation marked paid"})
	})

	r.DELETE("/obligations/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := database.DeactivateObligation(c.Request.Context(), pool, id); err != nil {
			log.Printf("deactivating obligation %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deactivate obligation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "obligation deactivated"})
	})

	r.POST("/subscriptions", func(c *gin.Context) {
		var sub models.Subscription
		if err := c.ShouldBindJSON(&sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription payload"})
			return
		}
		if err := database.CreateSubscription(c.Request.Context(), pool, &sub); err != nil {
			log.Printf("creating subscription: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create subscription"})
			return
		}
		c.JSON(http.StatusCreated, sub)
	})

	r.GET("/users/:id/subscription", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		sub, err := database.GetSubscriptionByUserID(c.Request.Context(), pool, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusOK, sub)
	})

	r.PUT("/subscriptions/:id/renew", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			ExpiryDate time.Time `json:"expiry_date" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid renewal payload"})
			return
		}
		if err := database.RenewSubscription(c.Request.Context(), pool, id, req.ExpiryDate); err != nil {
			log.Printf("renewing subscription %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not renew subscription"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "subscription renewed"})
	})

	r.PUT("/subscriptions/:id/cancel", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := database.CancelSubscription(c.Request.Context(), pool, id); err != nil {
			log.Printf("cancelling subscription %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not cancel subscription"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "subscription cancelled"})
	})

	r.POST("/invoices", func(c *gin.Context) {
		var invoice models.Invoice
		if err := c.ShouldBindJSON(&invoice); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice payload"})
			return
		}
		if err := database.CreateInvoice(c.Request.Context(), pool, &invoice); err != nil {
			log.Printf("creating invoice: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create invoice"})
			return
		}
		c.JSON(http.StatusCreated, invoice)
	})

	r.GET("/invoices/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		invoice, err := database.GetInvoiceByID(c.Request.Context(), pool, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusOK, invoice)
	})

	r.GET("/users/:id/invoices", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		invoices, err := database.ListInvoicesByUserID(c.Request.Context(), pool, id)
		if err != nil {
			log.Printf("listing invoices for user %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list invoices"})
			return
		}
		c.JSON(http.StatusOK, invoices)
	})

	r.PUT("/invoices/:id/status", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status payload"})
			return
		}
		if err := database.UpdateInvoiceStatus(c.Request.Context(), pool, id, req.Status); err != nil {
			log.Printf("updating invoice %d status: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update invoice status"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "invoice status updated"})
	})

	r.DELETE("/invoices/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := database.DeleteInvoice(c.Request.Context(), pool, id); err != nil {
			log.Printf("deleting invoice %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete invoice"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "invoice deleted"})
	})

	r.POST("/cashbook", func(c *gin.Context) {
		var entry models.CashbookEntry
		if err := c.ShouldBindJSON(&entry); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cashbook payload"})
			return
		}
		if err := database.CreateCashbookEntry(c.Request.Context(), pool, &entry); err != nil {
			log.Printf("creating cashbook entry: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create cashbook entry"})
			return
		}
		c.JSON(http.StatusCreated, entry)
	})

	r.GET("/cashbook/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		entry, err := database.GetCashbookEntryByID(c.Request.Context(), pool, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "cashbook entry not found"})
			return
		}
		c.JSON(http.StatusOK, entry)
	})

	r.GET("/users/:id/cashbook", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		entries, err := database.ListCashbookEntriesByUserID(c.Request.Context(), pool, id)
		if err != nil {
			log.Printf("listing cashbook for user %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list cashbook entries"})
			return
		}
		c.JSON(http.StatusOK, entries)
	})

	r.PUT("/cashbook/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var entry models.CashbookEntry
		if err := c.ShouldBindJSON(&entry); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cashbook payload"})
			return
		}
		entry.ID = id
		if err := database.UpdateCashbookEntry(c.Request.Context(), pool, &entry); err != nil {
			log.Printf("updating cashbook entry %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update cashbook entry"})
			return
		}
		c.JSON(http.StatusOK, entry)
	})

	r.DELETE("/cashbook/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := database.DeleteCashbookEntry(c.Request.Context(), pool, id); err != nil {
			log.Printf("deleting cashbook entry %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete cashbook entry"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cashbook entry deleted"})
	})

	r.GET("/users/:id/reminders", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit <= 0 {
			limit = 50
		}
		events, err := database.ListReminderEventsByUserID(c.Request.Context(), pool, id, limit)
		if err != nil {
			log.Printf("listing reminder events for user %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list reminder history"})
			return
		}
		c.JSON(http.StatusOK, events)
	})

	r.GET("/users/:id/dashboard", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		summary, err := database.GetComplianceSummary(c.Request.Context(), pool, id)
		if err != nil {
			log.Printf("building dashboard for user %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build dashboard"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	r.GET("/scheduler/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, scheduler.Status())
	})

	r.POST("/scheduler/run/:task", func(c *gin.Context) {
		stats, err := scheduler.RunNow(c.Request.Context(), notify.TaskName(c.Param("task")))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	r.POST("/notifications/test", func(c *gin.Context) {
		var req struct {
			UserID  int    `json:"user_id"`
			Email   string `json:"email"`
			Phone   string `json:"phone"`
			Subject string `json:"subject" binding:"required"`
			Body    string `json:"body" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test message payload"})
			return
		}
		if req.Email == "" && req.Phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email or phone is required"})
			return
		}
		msg, err := drip.EnqueueTestMessage(c.Request.Context(), req.UserID, req.Email, req.Phone, req.Subject, req.Body)
		if err != nil {
			log.Printf("queueing test message: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue test message"})
			return
		}
		c.JSON(http.StatusAccepted, msg)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("shutting down")
	scheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"peer-review-system/handlers"
	"peer-review-system/middleware"
	"peer-review-system/models"
	"peer-review-system/services"
	"peer-review-system/utils"
	"peer-review-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 100 * 1024 * 1024, // submissions can carry attachments
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.ReviewerUser{},
		&models.Submission{},
		&models.ReviewAssignment{},
		&models.XpTransaction{},
		&models.Notification{},
		&models.AdminAuditLog{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Attachment storage is optional: without R2 config, intake still works
	// but rejects uploads.
	if err := utils.InitR2(); err != nil {
		log.Printf("⚠️  Attachment storage disabled: %v", err)
	}

	policy := services.LoadReviewPolicy()
	if err := policy.Validate(); err != nil {
		log.Fatal("invalid review policy: ", err)
	}

	auditService := services.NewAuditService(db)
	notificationService := services.NewNotificationService(db)
	ledgerService := services.NewLedgerService(db)
	poolService := services.NewReviewerPoolService(db, policy, auditService, notificationService)
	monitorService := services.NewDeadlineMonitorService(db, policy, ledgerService, auditService, notificationService, poolService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Reviewer profile sync from the profile service ---
	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	serviceToken := os.Getenv("REVIEW_SERVICE_TOKEN")
	if profileServiceURL == "" {
		log.Println("⚠️  PROFILE_SERVICE_URL not set — reviewer sync worker disabled")
	} else {
		syncWorker := workers.NewReviewerSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", serviceToken)
		syncWorker.Start(ctx)
	}

	sched, err := services.StartDeadlineScheduler(monitorService)
	if err != nil {
		log.Fatal("failed to start deadline scheduler: ", err)
	}
	defer func() { _ = sched.Shutdown() }()

	handlers.SetupSubmissionRoutes(app, db, poolService)
	handlers.SetupReviewRoutes(app, poolService, monitorService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ Deadline sweep every %v (reminder tolerance %v)", policy.SweepInterval, policy.ReminderTolerance)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}

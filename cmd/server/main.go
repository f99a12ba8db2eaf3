package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/hfiuc/facility-portal/internal/auth"
	"github.com/hfiuc/facility-portal/internal/config"
	"github.com/hfiuc/facility-portal/internal/database"
	"github.com/hfiuc/facility-portal/internal/handler"
	"github.com/hfiuc/facility-portal/internal/mail"
	"github.com/hfiuc/facility-portal/internal/queue"
	"github.com/hfiuc/facility-portal/internal/repository"
	"github.com/hfiuc/facility-portal/internal/router"
	"github.com/hfiuc/facility-portal/internal/service"
)

func main() {
	_ = godotenv.Load(".env") // Optional in production, env vars win
	cfg := config.Load()      // Load environment config

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: a nil client disables caching, rate limiting and
	// the visit counter but the portal keeps working.
	rdb := config.NewRedisClient()

	// Repositories.
	bookings := repository.NewBookingRepo(db, cfg.LockWaitSec)
	audit := repository.NewAuditRepo(db)
	tokens := repository.NewTokenRepo(db)
	users := repository.NewUserRepo(db)
	refresh := repository.NewRefreshTokenRepo(db)
	announcements := repository.NewAnnouncementRepo(db)
	repairs := repository.NewRepairRepo(db)
	lostFound := repository.NewLostFoundRepo(db)
	classrooms := repository.NewClassroomRepo(db)
	errorLog := repository.NewErrorLogRepo(db)

	// Privileged-email snapshot, refreshed lazily on lookup.
	privileged := auth.NewEmailSet(users.ListPrivilegedEmails, cfg.AuthCacheTTL)

	// Booking workflow over the SQL store.
	store := service.NewSQLStore(bookings, audit)
	svc := service.NewBookingService(store, privileged, service.QueueNotifier{}, service.Config{
		RestrictedRooms:  cfg.RestrictedRooms,
		CleaningStartMin: cfg.CleaningStartMin,
		CleaningEndMin:   cfg.CleaningEndMin,
		Location:         cfg.BookingTZ,
	})

	// Mail worker: drains the notify queue and sends the emails.  Runs in
	// the same process; the broker keeps messages if we are down.
	mailer := mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPAccount, cfg.SMTPPassword, cfg.ApprovalBaseURL)
	go func() {
		if err := queue.StartNotifyConsumer(mailer); err != nil {
			log.Printf("notify consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterAll(e, router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, refresh),
		Bookings:      handler.NewBookingHandler(svc, bookings, audit, tokens),
		Announcements: handler.NewAnnouncementHandler(announcements),
		Repairs:       handler.NewRepairHandler(repairs),
		LostFound:     handler.NewLostFoundHandler(lostFound),
		Classrooms:    handler.NewClassroomHandler(classrooms),
		Misc:          handler.NewMiscHandler(rdb, errorLog),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}

// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sponsorgrid/sponsorgrid/internal/auth"
	"github.com/sponsorgrid/sponsorgrid/internal/config"
	"github.com/sponsorgrid/sponsorgrid/internal/email"
	"github.com/sponsorgrid/sponsorgrid/internal/email/mailer"
	"github.com/sponsorgrid/sponsorgrid/internal/handler"
	"github.com/sponsorgrid/sponsorgrid/internal/middleware"
	"github.com/sponsorgrid/sponsorgrid/internal/repository"
	"github.com/sponsorgrid/sponsorgrid/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}))
	slog.SetDefault(slogger)

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := setupDatabase(cfg)
	if err != nil {
		return fmt.Errorf("setting up database: %w", err)
	}

	// Initialize repositories
	workspaceRepo := repository.NewWorkspaceRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// Identity-provider token verification; issuance is external.
	verifier := auth.NewTokenVerifier(cfg.JWT.Secret)

	// Initialize email service
	emailService, err := email.NewEmailService(cfg, email.Provider(cfg.Email.Provider))
	if err != nil {
		return fmt.Errorf("initializing email service: %w", err)
	}
	invitationMailer := mailer.NewInvitationMailer(emailService, cfg.BaseURL)

	// Event bus for push-based read views
	bus := service.NewEventBus()

	// Initialize services
	workspaceService := service.NewWorkspaceService(workspaceRepo, membershipRepo, invitationRepo, bus)
	membershipService := service.NewMembershipService(membershipRepo, workspaceRepo, bus)
	invitationService := service.NewInvitationService(
		invitationRepo,
		membershipRepo,
		workspaceRepo,
		invitationMailer,
		bus,
		cfg.Invitations.Validity,
		cfg.Invitations.Retention,
	)

	// Recurring invitation maintenance
	sweeper := service.NewSweeper(invitationService, cfg.Invitations.SweepEvery)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("starting sweeper: %w", err)
	}
	defer sweeper.Stop()

	// Initialize handlers
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService, membershipService)
	invitationHandler := handler.NewInvitationHandler(invitationService, membershipService, workspaceService)
	eventsHandler := handler.NewEventsHandler(bus, membershipService)

	// Create router
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// API routes, all authenticated
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(verifier))

		r.Route("/workspaces", func(r chi.Router) {
			r.Get("/", workspaceHandler.ListWorkspaces)
			r.Post("/", workspaceHandler.CreateWorkspace)

			r.Route("/{workspaceID}", func(r chi.Router) {
				r.Get("/", workspaceHandler.GetWorkspace)
				r.Patch("/", workspaceHandler.UpdateWorkspace)
				r.Delete("/", workspaceHandler.DeleteWorkspace)
				r.Post("/leave", workspaceHandler.LeaveWorkspace)
				r.Get("/events", eventsHandler.StreamWorkspaceEvents)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", workspaceHandler.ListMembers)
					r.Put("/{userID}/role", workspaceHandler.SetMemberRole)
					r.Delete("/{userID}", workspaceHandler.RemoveMember)
				})

				r.Route("/invitations", func(r chi.Router) {
					r.Get("/", invitationHandler.ListWorkspaceInvitations)
					r.Post("/", invitationHandler.CreateInvitation)
				})
			})
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Get("/", invitationHandler.ListMyInvitations)
			r.Post("/{invitationID}/accept", invitationHandler.AcceptInvitation)
			r.Post("/{invitationID}/decline", invitationHandler.DeclineInvitation)
			r.Post("/{invitationID}/resend", invitationHandler.ResendInvitation)
			r.Delete("/{invitationID}", invitationHandler.CancelInvitation)
		})
	})

	// Create server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server error channel
	serverErrors := make(chan error, 1)

	// Start server
	go func() {
		slogger.Info("server starting", "port", cfg.Server.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Shutdown channel
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)

	// Wait for shutdown or error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slogger.Info("shutdown started", "signal", sig)

		// Give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			// If shutdown times out, forcefully close
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func setupDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
		cfg.Database.SearchPath,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

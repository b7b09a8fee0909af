package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/config"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/db"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/handlers"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/repositories"
	api "github.com/SanjithGanapathi/Felicity-Hackathon-DASS/routes"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/services"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/storage"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const schedulerInterval = 1 * time.Minute // How often ended events get swept

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	organizerRepo := repositories.NewPostgresOrganizerRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	orderRepo := repositories.NewPostgresMerchOrderRepository(dbConn)
	resetRepo := repositories.NewPostgresResetRequestRepository(dbConn)
	logger.Info("repositories initialized")

	emailService := services.NewEmailService(cfg)
	ticketService := services.NewTicketService()

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	participantService := services.NewParticipantService(userRepo, organizerRepo)
	organizerService := services.NewOrganizerService(organizerRepo, userRepo, resetRepo, emailService, logger)
	eventService := services.NewEventService(eventRepo, organizerRepo, registrationRepo, teamRepo, orderRepo, cloudflareUploader, logger)
	registrationService := services.NewRegistrationService(eventRepo, registrationRepo, userRepo, ticketService, emailService, logger)
	teamService := services.NewTeamService(eventRepo, teamRepo, registrationRepo, userRepo, ticketService, emailService, logger)
	merchService := services.NewMerchService(eventRepo, orderRepo, registrationRepo, userRepo, ticketService, emailService, logger)
	adminService := services.NewAdminService(userRepo, organizerRepo, eventRepo, registrationRepo, resetRepo)
	logger.Info("services initialized")

	if err := seedAdminAccount(context.Background(), userRepo, cfg); err != nil {
		logger.Error("failed to seed admin account", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("event completion scheduler started", slog.Duration("interval", schedulerInterval))

		for {
			completed, err := eventService.AutoCompleteEnded(context.Background())
			if err != nil {
				logger.Error("scheduler: event completion sweep failed", slog.Any("error", err))
			} else if completed > 0 {
				logger.Info("scheduler: events auto-completed", slog.Int("count", completed))
			}
			<-ticker.C
		}
	}()

	h := api.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Participant:  handlers.NewParticipantHandler(participantService, registrationService, merchService),
		Event:        handlers.NewEventHandler(eventService, organizerService),
		Registration: handlers.NewRegistrationHandler(registrationService, eventService, organizerService),
		Team:         handlers.NewTeamHandler(teamService, eventService, organizerService),
		Merch:        handlers.NewMerchHandler(merchService, organizerService),
		Organizer:    handlers.NewOrganizerHandler(organizerService),
		Admin:        handlers.NewAdminHandler(adminService),
	}
	router := api.InitRoutes(h, cfg.JWTSecretKey)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}

// seedAdminAccount creates the bootstrap admin from ADMIN_EMAIL and
// ADMIN_PASSWORD. A no-op when the variables are unset or the account
// already exists.
func seedAdminAccount(ctx context.Context, userRepo repositories.UserRepository, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		FirstName:    "Platform",
		LastName:     "Admin",
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	return nil
}

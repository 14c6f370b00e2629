package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orgmeet/internal/auth"
	"orgmeet/internal/config"
	"orgmeet/internal/db"
	"orgmeet/internal/entities"
	"orgmeet/internal/httpserver"
	"orgmeet/internal/logging"
	"orgmeet/internal/meetings"
	"orgmeet/internal/org"
	"orgmeet/internal/storage"
	"orgmeet/internal/users"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	authSvc := auth.NewService(auth.NewAdminStore(dbConn), auth.NewEntityUserStore(dbConn), issuer, logger)
	if err := authSvc.SeedAdminsFromFile(ctx, cfg.AdminSeedPath); err != nil {
		log.Fatalf("seed admins: %v", err)
	}

	files, err := storage.New(ctx, storage.Options{
		Endpoint: cfg.S3Endpoint,
		Region:   cfg.S3Region,
		Bucket:   cfg.S3Bucket,
		User:     cfg.S3User,
		Password: cfg.S3Password,
		TTL:      cfg.PresignTTL,
	})
	if err != nil {
		log.Fatalf("attachment storage: %v", err)
	}

	handler := httpserver.NewRouter(httpserver.Deps{
		Logger:      logger,
		Auth:        authSvc,
		Entities:    entities.NewStore(dbConn),
		Departments: org.NewStore(dbConn, org.Departments),
		Sectors:     org.NewStore(dbConn, org.Sectors),
		Positions:   org.NewStore(dbConn, org.Positions),
		Users:       users.NewStore(dbConn),
		Meetings:    meetings.NewStore(dbConn),
		Files:       files,
		CORSOrigin:  cfg.CORSOrigin,
	})
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

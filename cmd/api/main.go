package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/NiceGuyIT/psa-sub001/internal/audit"
	"github.com/NiceGuyIT/psa-sub001/internal/auth"
	"github.com/NiceGuyIT/psa-sub001/internal/config"
	"github.com/NiceGuyIT/psa-sub001/internal/httpapi"
	"github.com/NiceGuyIT/psa-sub001/internal/obs"
	"github.com/NiceGuyIT/psa-sub001/internal/tenant"
	"github.com/NiceGuyIT/psa-sub001/internal/user"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var db *sql.DB
	if cfg.DatabaseDSN != "" {
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	codec, err := auth.NewCodec(cfg.AuthSecret)
	if err != nil {
		log.Fatalf("auth codec: %v", err)
	}

	deps := httpapi.Deps{
		Codec:         codec,
		ReadyProbe:    httpapi.ReadyProbe{DB: db},
		TokenLifetime: cfg.TokenLifetime,
	}
	if db != nil {
		deps.Tenants = tenant.NewPGStore(db)
		deps.Users = user.NewPGStore(db)
		recorder, err := audit.NewRecorder(audit.NewPGStore(db))
		if err != nil {
			log.Fatalf("audit recorder: %v", err)
		}
		deps.Recorder = recorder
	}

	api := httpapi.New(deps, version)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting psa-api %s (%s) on %s", version, cfg.Environment, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

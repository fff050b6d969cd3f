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

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
	"elogia.app/internal/httpapi"
	"elogia.app/internal/obs"
	pgstore "elogia.app/internal/store/pg"
	"elogia.app/internal/stream"
)

var version = "0.3.0"

func main() {
	obs.Init()

	// The signing secret has no default on purpose. Refusing to start
	// beats issuing tokens signed with a known value.
	secret := os.Getenv("ELOGIA_AUTH_SECRET")
	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	var (
		store engage.Store
		db    *sql.DB
	)
	if dsn := os.Getenv("ELOGIA_PG_DSN"); dsn != "" {
		pg, err := pgstore.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		store = pg
		db = pg.DB()
	} else {
		log.Println("ELOGIA_PG_DSN not set, using in-memory store")
		store = engage.NewInMemory()
	}

	perms, err := auth.NewService(store.Permissions(), store.Teams())
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	scopes, err := engage.NewScopeResolver(store)
	if err != nil {
		log.Fatalf("scope resolver: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, store, tokens, perms, scopes, stream.New())

	addr := os.Getenv("ELOGIA_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting elogia-api %s on %s", version, srv.Addr)

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

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"image-drop/internal/db"
	"image-drop/internal/server"
)

func main() {
	addr := getenvDefault("IMD_ADDR", ":8080")

	// Database
	dsn := getenvDefault("DATABASE_URL", "")
	maxConns, err := strconv.Atoi(getenvDefault("IMD_DB_MAX_CONNS", "0"))
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "bad IMD_DB_MAX_CONNS", err)
		os.Exit(1)
	}
	dbConn, err := server.OpenDB(dsn, maxConns)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	log.Printf("service=backend msg=%q", "running_migrations")
	if err := db.RunMigrations(dbConn); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=backend msg=%q", "migrations_complete")

	// Authentication transport: stateless bearer tokens by default, opt-in
	// server-side sessions via IMD_AUTH_MODE=session.
	var auth server.Authenticator
	switch mode := getenvDefault("IMD_AUTH_MODE", "token"); mode {
	case "token":
		secret := getenvDefault("IMD_JWT_SECRET", "")
		if secret == "" {
			log.Printf("service=backend msg=%q", "missing IMD_JWT_SECRET")
			os.Exit(1)
		}
		auth = server.NewBearerAuth(secret, 24*time.Hour)
	case "session":
		auth = server.NewSessionAuth(getenvDefault("IMD_SESSION_COOKIE", ""))
	default:
		log.Printf("service=backend msg=%q mode=%s", "unknown IMD_AUTH_MODE", mode)
		os.Exit(1)
	}

	// Blob storage: MinIO by default, flat local directory via IMD_STORAGE=fs.
	var blobs server.BlobStore
	switch storage := getenvDefault("IMD_STORAGE", "minio"); storage {
	case "minio":
		blobs, err = server.NewMinioStore(
			getenvDefault("IMD_S3_ENDPOINT", ""),
			getenvDefault("IMD_S3_ACCESS_KEY", ""),
			getenvDefault("IMD_S3_SECRET_KEY", ""),
			getenvDefault("IMD_BUCKET", ""),
		)
	case "fs":
		blobs, err = server.NewFSStore(getenvDefault("IMD_UPLOAD_DIR", "uploads"))
	default:
		log.Printf("service=backend msg=%q storage=%s", "unknown IMD_STORAGE", storage)
		os.Exit(1)
	}
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "storage_init_failed", err)
		os.Exit(1)
	}

	maxUpload, err := strconv.ParseInt(getenvDefault("IMD_MAX_UPLOAD_BYTES", "0"), 10, 64)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "bad IMD_MAX_UPLOAD_BYTES", err)
		os.Exit(1)
	}

	srv := server.New(server.Config{
		Addr:           addr,
		DB:             dbConn,
		Auth:           auth,
		Blobs:          blobs,
		CORSOrigin:     getenvDefault("IMD_CORS_ORIGIN", ""),
		MaxUploadBytes: maxUpload,
	})

	// Start the HTTP server in a background goroutine so we can listen for
	// OS signals while the server runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s", "starting", addr)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		// Give the server 5 seconds to finish in-flight requests.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

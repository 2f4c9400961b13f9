package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/msomdec/member-login/internal/domain"
	"github.com/msomdec/member-login/internal/handler"
	"github.com/msomdec/member-login/internal/repository/postgres"
	"github.com/msomdec/member-login/internal/repository/sqlite"
	"github.com/msomdec/member-login/internal/security"
	"github.com/msomdec/member-login/internal/service"
)

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	port := envOrDefault("PORT", "8080")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if len(jwtSecret) < 32 {
		slog.Error("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
		os.Exit(1)
	}

	// Default to secure cookies; disable only for local development.
	cookieSecure := os.Getenv("COOKIE_SECURE") != "false"

	bcryptCost := envInt("BCRYPT_COST", 12, 4, 14)
	security.SetDummyCost(bcryptCost)
	loginRate := envFloat("LOGIN_RATE", 0.2)
	loginBurst := envFloat("LOGIN_BURST", 5)

	db, members, pinger := openDatabase()
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authService := service.NewAuthService(members, jwtSecret, bcryptCost)
	loginLimiter := service.NewTokenBucket(ctx, loginRate, loginBurst)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, loginLimiter, pinger, cookieSecure)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openDatabase connects to the backend named by DATABASE_DRIVER.
func openDatabase() (domain.Database, domain.MemberRepository, handler.Pinger) {
	switch driver := envOrDefault("DATABASE_DRIVER", "sqlite"); driver {
	case "sqlite":
		dbPath := envOrDefault("DATABASE_PATH", "members.db")
		db, err := sqlite.New(dbPath)
		if err != nil {
			slog.Error("failed to open database", "driver", driver, "error", err)
			os.Exit(1)
		}
		slog.Info("database opened", "driver", driver, "path", dbPath)
		return db, db.Members(), db.SqlDB
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			slog.Error("DATABASE_URL is required when DATABASE_DRIVER=postgres")
			os.Exit(1)
		}
		db, err := postgres.New(dsn)
		if err != nil {
			slog.Error("failed to open database", "driver", driver, "error", err)
			os.Exit(1)
		}
		slog.Info("database opened", "driver", driver)
		return db, db.Members(), db.SqlDB
	default:
		slog.Error("unsupported DATABASE_DRIVER", "driver", driver)
		os.Exit(1)
		return nil, nil, nil
	}
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envInt(key string, defaultVal, lo, hi int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		slog.Error("invalid integer setting", "key", key, "error", err)
		os.Exit(1)
	}
	if parsed < lo || parsed > hi {
		slog.Error("setting out of range", "key", key, "value", parsed, "min", lo, "max", hi)
		os.Exit(1)
	}
	return parsed
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil || parsed < 0 {
		slog.Error("invalid non-negative number setting", "key", key, "value", v)
		os.Exit(1)
	}
	return parsed
}

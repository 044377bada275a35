package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "leadengine/internal/config"
	router "leadengine/internal/http"
	"leadengine/internal/http/handlers"
	"leadengine/internal/ratelimit"
	"leadengine/internal/repositories"
	"leadengine/internal/services"
	"leadengine/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code once every deferred close has run.
func run() int {
	env := intconfig.LoadEnv()
	utils.SetupLogger(utils.LogConfig{Level: env.LogLevel, Format: env.LogFormat})
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	if env.JWTSecret == "" || env.AdminPasswordHash == "" {
		slog.Warn("JWT_SECRET or ADMIN_PASSWORD_HASH not set; admin login is disabled")
	}

	db := intconfig.ConnectDB(env)
	defer intconfig.CloseDB()

	limiter := ratelimit.New()
	security := services.NewSecurityLogger(repositories.SecurityLogRepository{DB: db}, env.SecurityLogBuffer)
	defer security.Close()

	handlers.Configure(handlers.Deps{
		DB:       db,
		Limiter:  limiter,
		Security: security,
		Env:      env,
	})

	r := router.NewRouter(env, limiter, security)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	if err := serve(srv, quit); err != nil {
		slog.Error("server failed", "err", err)
		return 1
	}
	slog.Info("server stopped")
	return 0
}

// serve runs srv until it fails or a signal arrives on quit, then shuts it
// down.
func serve(srv *http.Server, quit <-chan os.Signal) error {
	errs := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-quit:
	}

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

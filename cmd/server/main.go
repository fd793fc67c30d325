package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/config"
	"github.com/serroba/shortlink/internal/container"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		container.ServerPackages(injector, options)

		logger, err := do.Invoke[*zap.Logger](injector)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
			os.Exit(1)
		}

		var server *http.Server

		hooks.OnStart(func() {
			cfg := do.MustInvoke[*config.Config](injector)

			router, err := do.Invoke[*chi.Mux](injector)
			if err != nil {
				logger.Fatal("failed to build server", zap.Error(err))
			}

			server = &http.Server{
				Addr:              cfg.HTTP.Addr(),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting", zap.String("addr", server.Addr))

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
			_ = logger.Sync()
		})
	})

	cli.Run()
}

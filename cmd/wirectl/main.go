package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/edgewire/internal/auth"
	"github.com/danmuck/edgewire/internal/config"
	"github.com/danmuck/edgewire/internal/logging"
	"github.com/danmuck/edgewire/internal/node"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const defaultConfigPath = "cmd/wirectl/config.toml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "node config path")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "wirectl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	logCfg := logging.Resolve(logging.ProfileRuntime, cfg.LogLevel)
	logCfg.App = "wirectl"
	logging.Apply(logCfg)

	n, err := node.New(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer n.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.Run(gctx)
	})
	if cfg.AdminAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           n.HTTPRouter(cfg.CorsOrigins, adminGuard(cfg)),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logging.Infof("wirectl: admin listening on %s", cfg.AdminAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

func adminGuard(cfg config.NodeConfig) auth.Validator {
	if cfg.AdminToken == "" {
		return nil
	}
	return auth.StaticToken{Token: cfg.AdminToken}
}

// loadConfig falls back to defaults only when the default path is absent.
func loadConfig(path string) (config.NodeConfig, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logging.Warnf("wirectl: %s not found, using defaults", path)
			return config.DefaultNodeConfig(), nil
		}
	}
	return config.LoadNodeConfig(path)
}

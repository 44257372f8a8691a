package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"exppro-backend/cmd/app/internal/controller"
	"exppro-backend/internal/config"
	"exppro-backend/internal/db"
	"exppro-backend/pkg/middleware"
	"exppro-backend/utilities"
)

const version = "1.0.0"

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "exppro",
		Short:         "Video experiment platform API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.xml", "path to the XML configuration file")
	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the HTTP API (default)", RunE: runServe},
		migrateCmd(),
		createSuperuserCmd(),
		seedCmd(),
	)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, sets up logging and connects the database.
// The returned closer flushes the log file.
func bootstrap() (*app, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logCloser, err := utilities.SetupLogging(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	gdb, err := db.InitDBFromConfig(cfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	a, err := newApp(cfg, gdb)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, err
	}
	closeAll := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = logCloser.Close()
	}
	return a, closeAll, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	printStartUpBanner()

	a, closeAll, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeAll()
	cfg := a.cfg

	if cfg.DB.Initialize {
		if err := db.Migrate(a.db); err != nil {
			return err
		}
		slog.Info("database migrated")
	}

	if strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router.
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if cfg.RequestDump {
		r.Use(middleware.RequestDumpMiddleware())
	}
	r.MaxMultipartMemory = 32 << 20

	// CORS configuration.
	r.Use(cors.New(corsConfig(cfg.Context.AllowedOrigins)))

	opts := controller.Options{
		BasePath:       cfg.Context.Path,
		MediaRoot:      a.media.Root(),
		MediaURL:       cfg.Media.URL,
		MaxUploadBytes: cfg.Media.MaxUploadMB << 20,
		Ping: func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if cfg.RateLimit.Enabled {
		opts.AuthLimiter = middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst).Middleware()
	}
	controller.RegisterRoutes(r, a.services(), opts)

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	if cfg.Context.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.Context.MaxConnections)
	}

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.Context.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Context.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", listener.Addr().String(), "base_path", cfg.Context.Path, "max_connections", cfg.Context.MaxConnections)
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func corsConfig(allowed string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	var origins []string
	for _, o := range strings.Split(allowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

func printStartUpBanner() {
	myFigure := figure.NewFigure("EXPPRO", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("EXPPRO API (v%s)\n\n", version)
}

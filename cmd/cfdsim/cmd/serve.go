package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rustyeddy/cfdsim/api"
	"github.com/rustyeddy/cfdsim/logging"
	"github.com/rustyeddy/cfdsim/metrics"
	"github.com/rustyeddy/cfdsim/session"
	"github.com/rustyeddy/cfdsim/stream"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a live session behind the HTTP API",
	Long: `Start the candle and regime schedules and serve the session.

Routes:
  GET    /api/v1/snapshot?limit=N
  GET    /api/v1/candles | quote | account | positions | trades
  POST   /api/v1/positions        {"side":"buy","lots":1.5}
  DELETE /api/v1/positions/{id}
  GET    /api/v1/stream           websocket event stream
  GET    /metrics                 Prometheus metrics

Example:
  cfdsim serve -c session.yaml --addr :9090`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}

	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	prom := metrics.NewPrometheus()
	bus := stream.NewBus()
	sess, err := session.Open(cfg,
		session.WithLogger(log.Named("session")),
		session.WithPublisher(bus),
		session.WithMetrics(prom.Metrics))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sess.Start(); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: api.NewRouter(api.RouterDeps{
			Broker:  sess,
			Bus:     bus,
			Metrics: prom.Handler(),
			Origin:  cfg.HTTP.Origin,
			Log:     log.Named("api"),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	return sess.Close(shutdownCtx)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

const (
	shutdownTimeout = 30 * time.Second
	amqpAttempts    = 5
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web client",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	base, stop := context.WithCancel(parent)
	defer stop()

	sess, err := cli.OpenSession(base, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Error("Failed to close session storage", log.FieldError, err)
		}
	}()

	var (
		broker    *amqp.Client
		publisher *amqp.SessionPublisher
	)
	if cfg.AMQPURL != "" {
		broker = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		publisher = amqp.NewSessionPublisher(broker, logger)
		unsubscribe := sess.Store.Subscribe(publisher.Listen)
		defer unsubscribe()
	}

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:           cfg.Addr(),
		CacheSize:      cfg.CacheSize,
		CacheTTL:       cfg.CacheTTL,
		LoginRateLimit: cfg.LoginRateLimit,
		TrustedProxies: cfg.TrustedProxies,
		StoragePing:    sess.Storage.Ping,
	}, sess.Store, cli.NewAPIClient(cfg, sess.Store, logger), logger)
	if err != nil {
		return fmt.Errorf("configure server: %w", err)
	}

	ctx, done := cli.GracefulShutdown(base, logger, shutdownTimeout, func(sctx context.Context) {
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	published := make(chan struct{})
	if publisher != nil {
		go func() {
			publisher.Run(ctx)
			close(published)
		}()
		go func() {
			if err := broker.Connect(ctx, amqpAttempts); err != nil {
				logger.Warn("AMQP broker unavailable, session events will be retried on publish", log.FieldError, err)
			}
		}()
	} else {
		close(published)
	}

	// The guard shows its placeholder until the stored token is read.
	go sess.Store.Initialize(ctx)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting fintrack web client",
			"addr", srv.Addr,
			"api", cfg.APIBaseURL,
			log.FieldBackend, cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err = <-serveErr:
		logger.Error("Server error", log.FieldError, err, "addr", srv.Addr)
		stop()
	case <-ctx.Done():
	}
	<-done
	<-published

	if broker != nil {
		if cerr := broker.Close(); cerr != nil {
			logger.Warn("Failed to close AMQP connection", log.FieldError, cerr)
		}
	}
	logger.Info("Server stopped gracefully")
	return err
}

// Package bot orchestrates the relay process: the main bot's startup hook,
// the HTTP front door and the housekeeping scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/botrelay/internal/telegram"
)

const (
	defaultShutdownTimeout   = 10 * time.Second
	defaultStartupAttempts   = 5
	defaultStartupRetryDelay = time.Second
)

// RelayOptions configures a Relay. Scheduler is optional.
type RelayOptions struct {
	Logger          *slog.Logger
	MainClient      telegram.Client
	MainWebhookURL  string
	WebhookSecret   string
	Addr            string
	Handler         http.Handler
	ShutdownTimeout time.Duration
	Scheduler       *Scheduler

	// StartupAttempts bounds how often the main webhook registration is tried
	// before Run gives up. Rejected tokens are never retried.
	StartupAttempts   uint
	StartupRetryDelay time.Duration
}

// Relay represents the running relay and manages its components' lifecycle.
type Relay struct {
	opts   RelayOptions
	logger *slog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewRelay creates a Relay.
func NewRelay(opts RelayOptions) *Relay {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.StartupAttempts == 0 {
		opts.StartupAttempts = defaultStartupAttempts
	}
	if opts.StartupRetryDelay <= 0 {
		opts.StartupRetryDelay = defaultStartupRetryDelay
	}
	return &Relay{
		opts:   opts,
		logger: logger.With("component", "relay_orchestrator"),
	}
}

// Addr returns the address the HTTP server is listening on, or nil before it listens.
func (r *Relay) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addr
}

// Run registers the main bot's webhook, then serves HTTP and runs the
// scheduler until ctx is cancelled or a component fails.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("Starting relay orchestrator...")

	if err := r.registerMainWebhook(ctx); err != nil {
		return err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", r.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.opts.Addr, err)
	}
	r.mu.Lock()
	r.addr = ln.Addr()
	r.mu.Unlock()

	srv := &http.Server{
		Handler:           r.opts.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("HTTP server failed", "error", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		r.logger.Info("Shutdown signal received, stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), r.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("Error stopping HTTP server", "error", err)
		}
		return nil
	})

	if r.opts.Scheduler != nil {
		g.Go(func() error {
			r.logger.Info("Starting scheduler...")
			if err := r.opts.Scheduler.Start(gCtx); err != nil {
				r.logger.Error("Failed to start scheduler", "error", err)
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			r.logger.Info("Shutdown signal received, stopping scheduler...")

			if err := r.opts.Scheduler.Stop(); err != nil {
				r.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	r.logger.Info("Relay orchestrator running. Waiting for shutdown signal or error...")
	err = g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("Relay orchestrator stopped due to error", "error", err)
		return err
	}

	r.logger.Info("Relay orchestrator stopped gracefully.")
	return nil
}

// registerMainWebhook points the main bot at the fixed webhook path. It runs
// once per process start; transient failures are retried with backoff.
func (r *Relay) registerMainWebhook(ctx context.Context) error {
	err := retry.Do(
		func() error {
			_, err := r.opts.MainClient.SetWebhook(ctx, &tgbot.SetWebhookParams{
				URL:         r.opts.MainWebhookURL,
				SecretToken: r.opts.WebhookSecret,
			})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.opts.StartupAttempts),
		retry.Delay(r.opts.StartupRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, tgbot.ErrorUnauthorized)
		}),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("Retrying main bot webhook registration",
				"attempt", n+1, "max_attempts", r.opts.StartupAttempts, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to set main bot webhook: %w", err)
	}

	r.logger.Info("Main bot webhook set", "url", r.opts.MainWebhookURL)
	return nil
}

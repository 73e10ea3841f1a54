// Package registration verifies sub-bot tokens and points their webhooks at the relay.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/database"
	"github.com/edgard/botrelay/internal/metrics"
	"github.com/edgard/botrelay/internal/telegram"
	"github.com/edgard/botrelay/internal/token"
)

// Webhook paths served by the relay. SubBotPath's {token} segment is the literal bot token.
const (
	MainBotPath = "/webhook/main"
	SubBotPath  = "/webhook/bot/{token}"
)

// Sources of a registration attempt.
const (
	SourceChat = "chat"
	SourceHTTP = "http"
)

var (
	// ErrMalformedCredential means the token failed the structural check; no network call was made.
	ErrMalformedCredential = errors.New("malformed bot token")
	// ErrInvalidCredential means the Bot API rejected the token as unauthenticated.
	ErrInvalidCredential = errors.New("invalid bot token")
)

// Registration steps, in execution order.
const (
	StepDeleteWebhook = "delete_webhook"
	StepSetWebhook    = "set_webhook"
	StepSetCommands   = "set_commands"
)

// StepError reports which registration step failed. Earlier steps are not rolled back.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("registration step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Options configures a Service.
type Options struct {
	BaseURL       string
	WebhookSecret string
	Commands      []models.BotCommand
	Factory       telegram.ClientFactory
	// Store and Metrics are optional.
	Store   database.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Service runs the validate → verify → register pipeline.
type Service struct {
	baseURL       string
	webhookSecret string
	commands      []models.BotCommand
	factory       telegram.ClientFactory
	store         database.Store
	metrics       *metrics.Metrics
	logger        *slog.Logger
	now           func() time.Time
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		webhookSecret: opts.WebhookSecret,
		commands:      opts.Commands,
		factory:       opts.Factory,
		store:         opts.Store,
		metrics:       opts.Metrics,
		logger:        logger.With("component", "registration"),
		now:           time.Now,
	}
}

// MainBotURL is the webhook URL registered for the main bot.
func (s *Service) MainBotURL() string {
	return s.baseURL + MainBotPath
}

// SubBotURL is the webhook URL registered for the sub-bot owning tok.
func (s *Service) SubBotURL(tok string) string {
	return s.baseURL + strings.Replace(SubBotPath, "{token}", tok, 1)
}

// Verify makes exactly one getMe call. A 401 becomes ErrInvalidCredential;
// any other failure is returned wrapped and may be retried by the caller.
func (s *Service) Verify(ctx context.Context, client telegram.Client) (*models.User, error) {
	user, err := client.GetMe(ctx)
	if err != nil {
		if errors.Is(err, bot.ErrorUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
		}
		return nil, fmt.Errorf("failed to verify bot token: %w", err)
	}
	return user, nil
}

// Register clears the bot's webhook and pending updates, points the webhook at
// the relay and publishes the command menu. Re-registering a token overwrites
// its previous webhook.
func (s *Service) Register(ctx context.Context, client telegram.Client, tok string) error {
	if _, err := client.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
		return &StepError{Step: StepDeleteWebhook, Err: err}
	}

	if _, err := client.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         s.SubBotURL(tok),
		SecretToken: s.webhookSecret,
	}); err != nil {
		return &StepError{Step: StepSetWebhook, Err: err}
	}

	if _, err := client.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: s.commands}); err != nil {
		return &StepError{Step: StepSetCommands, Err: err}
	}
	return nil
}

// Add runs the whole pipeline for tok and returns the verified bot identity.
func (s *Service) Add(ctx context.Context, tok, source string) (*models.User, error) {
	botID, ok := token.BotID(tok)
	if !ok {
		s.metrics.Registration(source, database.OutcomeInvalid)
		return nil, ErrMalformedCredential
	}
	log := s.logger.With("bot_id", botID, "source", source)

	client, err := s.factory.ForToken(tok)
	if err != nil {
		err = token.RedactError(err, tok)
		s.audit(ctx, botID, "", source, database.OutcomeFailed, err)
		return nil, fmt.Errorf("failed to build client: %w", err)
	}

	user, err := s.Verify(ctx, client)
	if err != nil {
		err = token.RedactError(err, tok)
		outcome := database.OutcomeFailed
		if errors.Is(err, ErrInvalidCredential) {
			outcome = database.OutcomeInvalid
		}
		log.WarnContext(ctx, "Bot token verification failed", "error", err)
		s.audit(ctx, botID, "", source, outcome, err)
		return nil, err
	}

	if err := s.Register(ctx, client, tok); err != nil {
		err = token.RedactError(err, tok)
		log.ErrorContext(ctx, "Webhook registration failed", "username", user.Username, "error", err)
		s.audit(ctx, botID, user.Username, source, database.OutcomeFailed, err)
		return nil, err
	}

	log.InfoContext(ctx, "Sub-bot registered", "username", user.Username)
	s.audit(ctx, botID, user.Username, source, database.OutcomeAdded, nil)
	return user, nil
}

// audit records the attempt. Failures here are logged and never change the outcome.
func (s *Service) audit(ctx context.Context, botID int64, username, source, outcome string, cause error) {
	s.metrics.Registration(source, outcome)
	if s.store == nil {
		return
	}

	reg := &database.Registration{
		BotID:     botID,
		Username:  username,
		Source:    source,
		Outcome:   outcome,
		CreatedAt: s.now(),
	}
	if cause != nil {
		reg.Detail = cause.Error()
	}
	if err := s.store.RecordRegistration(ctx, reg); err != nil {
		s.logger.WarnContext(ctx, "Failed to record registration attempt", "bot_id", botID, "error", err)
	}
}

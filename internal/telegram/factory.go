package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-telegram/bot"

	"github.com/edgard/botrelay/internal/token"
)

// Factory creates go-telegram/bot instances wired to the shared session.
type Factory struct {
	session   *http.Client
	serverURL string
	logger    *slog.Logger
}

// NewFactory returns a Factory. An empty serverURL keeps the library default (api.telegram.org).
func NewFactory(session *http.Client, serverURL string, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		session:   session,
		serverURL: serverURL,
		logger:    logger.With("component", "telegram_factory"),
	}
}

// New creates a bot instance for tok. Construction never calls the Bot API;
// callers that need the identity call GetMe themselves.
func (f *Factory) New(tok string, opts ...bot.Option) (*bot.Bot, error) {
	if tok == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}

	base := []bot.Option{bot.WithSkipGetMe()}
	if f.session != nil {
		base = append(base, bot.WithHTTPClient(f.session.Timeout, f.session))
	}
	if f.serverURL != "" {
		base = append(base, bot.WithServerURL(f.serverURL))
	}

	b, err := bot.New(tok, append(base, opts...)...)
	if err != nil {
		f.logger.Error("Failed to create Telegram bot instance", "token", token.Redact(tok), "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	f.logger.Debug("Telegram bot instance created", "token", token.Redact(tok))
	return b, nil
}

// ForToken implements ClientFactory.
func (f *Factory) ForToken(tok string) (Client, error) {
	b, err := f.New(tok)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Package telegram builds Bot API clients that share a single HTTP session.
package telegram

import (
	"context"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Client is the subset of the Bot API the relay needs.
// *bot.Bot satisfies it; tests substitute fakes.
type Client interface {
	GetMe(ctx context.Context) (*models.User, error)
	DeleteWebhook(ctx context.Context, params *bot.DeleteWebhookParams) (bool, error)
	SetWebhook(ctx context.Context, params *bot.SetWebhookParams) (bool, error)
	SetMyCommands(ctx context.Context, params *bot.SetMyCommandsParams) (bool, error)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

var _ Client = (*bot.Bot)(nil)

// ClientFactory returns a client bound to a bot token.
type ClientFactory interface {
	ForToken(token string) (Client, error)
}

// NewSession returns the HTTP client shared by the main bot and every sub-bot client.
// http.Client is safe for concurrent use, so one keep-alive pool serves all of them.
func NewSession(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 32

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

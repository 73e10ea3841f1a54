package telegramtest

import (
	"context"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/telegram"
)

// Client is an in-memory telegram.Client that records what it was asked to do.
type Client struct {
	Me *models.User

	GetMeErr         error
	DeleteWebhookErr error
	SetWebhookErr    error
	SetCommandsErr   error
	SendMessageErr   error

	mu       sync.Mutex
	methods  []string
	webhooks []*bot.SetWebhookParams
	deletes  []*bot.DeleteWebhookParams
	commands []*bot.SetMyCommandsParams
	sent     []*bot.SendMessageParams
}

var _ telegram.Client = (*Client)(nil)

func (c *Client) record(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.methods = append(c.methods, method)
}

// GetMe implements telegram.Client.
func (c *Client) GetMe(context.Context) (*models.User, error) {
	c.record("getMe")
	if c.GetMeErr != nil {
		return nil, c.GetMeErr
	}
	if c.Me == nil {
		return &models.User{ID: 1, IsBot: true, FirstName: "Test", Username: "TestBot"}, nil
	}
	return c.Me, nil
}

// DeleteWebhook implements telegram.Client.
func (c *Client) DeleteWebhook(_ context.Context, params *bot.DeleteWebhookParams) (bool, error) {
	c.record("deleteWebhook")
	c.mu.Lock()
	c.deletes = append(c.deletes, params)
	c.mu.Unlock()
	return c.DeleteWebhookErr == nil, c.DeleteWebhookErr
}

// SetWebhook implements telegram.Client.
func (c *Client) SetWebhook(_ context.Context, params *bot.SetWebhookParams) (bool, error) {
	c.record("setWebhook")
	c.mu.Lock()
	c.webhooks = append(c.webhooks, params)
	c.mu.Unlock()
	return c.SetWebhookErr == nil, c.SetWebhookErr
}

// SetMyCommands implements telegram.Client.
func (c *Client) SetMyCommands(_ context.Context, params *bot.SetMyCommandsParams) (bool, error) {
	c.record("setMyCommands")
	c.mu.Lock()
	c.commands = append(c.commands, params)
	c.mu.Unlock()
	return c.SetCommandsErr == nil, c.SetCommandsErr
}

// SendMessage implements telegram.Client.
func (c *Client) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	c.record("sendMessage")
	c.mu.Lock()
	c.sent = append(c.sent, params)
	c.mu.Unlock()
	if c.SendMessageErr != nil {
		return nil, c.SendMessageErr
	}
	return &models.Message{ID: len(c.sent), Text: params.Text}, nil
}

// Methods returns the called method names in order.
func (c *Client) Methods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.methods...)
}

// Sent returns the messages passed to SendMessage.
func (c *Client) Sent() []*bot.SendMessageParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*bot.SendMessageParams(nil), c.sent...)
}

// Webhooks returns the parameters passed to SetWebhook.
func (c *Client) Webhooks() []*bot.SetWebhookParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*bot.SetWebhookParams(nil), c.webhooks...)
}

// Deletes returns the parameters passed to DeleteWebhook.
func (c *Client) Deletes() []*bot.DeleteWebhookParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*bot.DeleteWebhookParams(nil), c.deletes...)
}

// Commands returns the parameters passed to SetMyCommands.
func (c *Client) Commands() []*bot.SetMyCommandsParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*bot.SetMyCommandsParams(nil), c.commands...)
}

// Factory hands out Clients keyed by token, creating them on first use.
type Factory struct {
	// New, when set, builds the client for a token that has none yet.
	New func(token string) *Client
	Err error

	mu      sync.Mutex
	clients map[string]*Client
	tokens  []string
}

var _ telegram.ClientFactory = (*Factory)(nil)

// ForToken implements telegram.ClientFactory.
func (f *Factory) ForToken(tok string) (telegram.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tokens = append(f.tokens, tok)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.clients == nil {
		f.clients = make(map[string]*Client)
	}
	c, ok := f.clients[tok]
	if !ok {
		if f.New != nil {
			c = f.New(tok)
		} else {
			c = &Client{}
		}
		f.clients[tok] = c
	}
	return c, nil
}

// Client returns the client created for tok, or nil.
func (f *Factory) Client(tok string) *Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients[tok]
}

// Tokens returns every token ForToken was called with, in order.
func (f *Factory) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

// Package handlers contains the message rules shared by the main bot and every sub-bot.
package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/config"
)

// Registrar adds a sub-bot given its token.
type Registrar interface {
	Add(ctx context.Context, token, source string) (*models.User, error)
}

// HandlerDeps provides dependencies for the message handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Messages  config.MessagesConfig
	Registrar Registrar
}

package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/dispatch"
	"github.com/edgard/botrelay/internal/telegram"
)

// NewEchoHandler returns the catch-all handler that repeats a message back to its chat.
func NewEchoHandler(deps HandlerDeps) dispatch.HandlerFunc {
	return echoHandler{deps}.Handle
}

type echoHandler struct {
	deps HandlerDeps
}

// Handle sends the message text back unchanged. The original entities are passed
// along so formatting survives without a parse mode.
func (h echoHandler) Handle(ctx context.Context, client telegram.Client, update *models.Update) error {
	if update.Message == nil || update.Message.Text == "" {
		return nil
	}
	msg := update.Message

	h.deps.Logger.DebugContext(ctx, "Echoing message", "handler", "echo", "chat_id", msg.Chat.ID)
	return answer(ctx, client, msg, msg.Text, msg.Entities)
}

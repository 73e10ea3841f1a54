package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/dispatch"
	"github.com/edgard/botrelay/internal/registration"
	"github.com/edgard/botrelay/internal/telegram"
)

// NewAddHandler returns the handler for "/add <token>".
func NewAddHandler(deps HandlerDeps) dispatch.HandlerFunc {
	return addHandler{deps}.Handle
}

type addHandler struct {
	deps HandlerDeps
}

// Handle registers the sub-bot named by the command argument and reports the result
// in the chat. Rejected tokens get the invalid-token reply; any other failure is
// returned so the webhook request fails.
func (h addHandler) Handle(ctx context.Context, client telegram.Client, update *models.Update) error {
	log := h.deps.Logger.With("handler", "add")

	if update.Message == nil {
		log.WarnContext(ctx, "Add handler received update without message", "update_id", update.ID)
		return nil
	}
	msg := update.Message

	cmd, ok := dispatch.ParseCommand(msg.Text)
	if !ok {
		log.WarnContext(ctx, "Add handler received a non-command message", "update_id", update.ID)
		return nil
	}

	log.InfoContext(ctx, "Handling /add command", "chat_id", msg.Chat.ID)

	user, err := h.deps.Registrar.Add(ctx, cmd.Args, registration.SourceChat)
	switch {
	case errors.Is(err, registration.ErrInvalidCredential), errors.Is(err, registration.ErrMalformedCredential):
		log.InfoContext(ctx, "Rejected bot token", "chat_id", msg.Chat.ID, "error", err)
		return answer(ctx, client, msg, h.deps.Messages.InvalidToken, nil)
	case err != nil:
		return fmt.Errorf("failed to add bot: %w", err)
	}

	return answer(ctx, client, msg, fmt.Sprintf(h.deps.Messages.BotAdded, user.Username), nil)
}

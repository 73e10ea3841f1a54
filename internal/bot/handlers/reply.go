package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/telegram"
)

// answer sends text to the chat (and forum topic) the message came from.
func answer(ctx context.Context, client telegram.Client, msg *models.Message, text string, entities []models.MessageEntity) error {
	params := &bot.SendMessageParams{
		ChatID:   msg.Chat.ID,
		Text:     text,
		Entities: entities,
	}
	if msg.IsTopicMessage {
		params.MessageThreadID = msg.MessageThreadID
	}

	if _, err := client.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", msg.Chat.ID, err)
	}
	return nil
}

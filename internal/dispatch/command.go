package dispatch

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/telegram"
)

// Command is a parsed "/name@mention args" message.
type Command struct {
	Name    string
	Mention string
	Args    string
}

// ParseCommand splits a command message. Args is everything after the first
// run of whitespace following the command word; trailing whitespace is kept.
func ParseCommand(text string) (Command, bool) {
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}

	word, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		word = text[:i]
		rest = strings.TrimLeftFunc(text[i:], unicode.IsSpace)
	}

	name, mention, _ := strings.Cut(word[1:], "@")
	if name == "" {
		return Command{}, false
	}
	return Command{Name: name, Mention: mention, Args: rest}, true
}

// MessageText returns the text of the update's message, if any.
func MessageText(update *models.Update) (string, bool) {
	if update == nil || update.Message == nil {
		return "", false
	}
	return update.Message.Text, true
}

// MatchCommand matches messages carrying the named command whose arguments pass argsOK.
// A nil argsOK accepts any arguments. A command addressed to another bot
// ("/add@OtherBot") does not match; the receiving bot's username is only
// fetched when a mention is present.
func MatchCommand(name string, argsOK func(args string) bool) MatchFunc {
	return func(ctx context.Context, client telegram.Client, update *models.Update) (bool, error) {
		text, ok := MessageText(update)
		if !ok {
			return false, nil
		}
		cmd, ok := ParseCommand(text)
		if !ok || cmd.Name != name {
			return false, nil
		}
		if argsOK != nil && !argsOK(cmd.Args) {
			return false, nil
		}
		if cmd.Mention == "" {
			return true, nil
		}

		me, err := client.GetMe(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to resolve bot username: %w", err)
		}
		return strings.EqualFold(cmd.Mention, me.Username), nil
	}
}

// MatchText matches any message with non-empty text.
func MatchText() MatchFunc {
	return func(_ context.Context, _ telegram.Client, update *models.Update) (bool, error) {
		text, ok := MessageText(update)
		return ok && text != "", nil
	}
}

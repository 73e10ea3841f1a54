// Package token checks the shape of Telegram bot tokens without talking to the Bot API.
package token

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// IsValid reports whether candidate looks like a bot token: a numeric bot id,
// a colon and a non-empty secret, with no whitespace anywhere.
// It only checks structure; use the Bot API to learn whether the token is live.
func IsValid(candidate string) bool {
	if strings.IndexFunc(candidate, unicode.IsSpace) >= 0 {
		return false
	}

	id, secret, found := strings.Cut(candidate, ":")
	if !found || id == "" || secret == "" {
		return false
	}

	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BotID returns the numeric bot id encoded in the token prefix.
func BotID(candidate string) (int64, bool) {
	if !IsValid(candidate) {
		return 0, false
	}
	id, _, _ := strings.Cut(candidate, ":")
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Redact hides the secret part of a token so it can be written to logs.
func Redact(candidate string) string {
	id, _, found := strings.Cut(candidate, ":")
	if !found {
		return "***"
	}
	return id + ":***"
}

// tokenPattern finds token-shaped words: standalone, or inside a Bot API
// request path ("/bot<token>/method").
var tokenPattern = regexp.MustCompile(`(^|\s|/bot)(\d+:[^\s/"]+)`)

// RedactText masks every token-shaped word in free text, such as a message
// body or an error message. Anything shaped like "<digits>:<text>" is
// masked, so "10:30" becomes "10:***".
func RedactText(text string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := tokenPattern.FindStringSubmatch(match)
		return sub[1] + Redact(sub[2])
	})
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

// RedactError masks every occurrence of tok in err's message. Transport errors
// embed the request URL, which carries the token. errors.Is and errors.As
// still see the original error.
func RedactError(err error, tok string) error {
	if err == nil || tok == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, tok) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, tok, Redact(tok)), err: err}
}

// ScrubError is RedactError for callers that do not know which token may be
// embedded in err: every token-shaped word in the message is masked.
func ScrubError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	scrubbed := RedactText(msg)
	if scrubbed == msg {
		return err
	}
	return &redactedError{msg: scrubbed, err: err}
}

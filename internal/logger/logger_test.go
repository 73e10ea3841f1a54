package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/telegram"
	"github.com/edgard/botrelay/internal/telegram/telegramtest"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range testCases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in     string
		maxLen int
		want   string
	}{
		{in: "short", maxLen: 10, want: "short"},
		{in: "exactly10!", maxLen: 10, want: "exactly10!"},
		{in: "this is too long", maxLen: 10, want: "this is..."},
		{in: "anything", maxLen: 2, want: "..."},
		{in: "привет мир", maxLen: 6, want: "при..."},
	}
	for _, tc := range testCases {
		if got := truncateString(tc.in, tc.maxLen); got != tc.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}

func TestMiddlewareLogsOutcome(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := newLogger(&buf, "info", true)

	boom := errors.New("boom")
	handler := Middleware(log)(func(context.Context, telegram.Client, *models.Update) error {
		return boom
	})

	update := &models.Update{
		ID: 7,
		Message: &models.Message{
			ID:   3,
			Chat: models.Chat{ID: 42},
			From: &models.User{ID: 99},
			Text: "hello",
		},
	}

	if err := handler(context.Background(), &telegramtest.Client{}, update); !errors.Is(err, boom) {
		t.Fatalf("middleware error = %v, want %v", err, boom)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1 (debug start line filtered): %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry["chat_id"] != float64(42) || entry["user_id"] != float64(99) {
		t.Errorf("entry = %v, want chat_id 42 and user_id 99", entry)
	}
	if entry["update_type"] != "message" {
		t.Errorf("update_type = %v, want message", entry["update_type"])
	}
}

func TestMiddlewareRedactsTokens(t *testing.T) {
	t.Parallel()

	const secret = "AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"

	var buf bytes.Buffer
	log := newLogger(&buf, "debug", false)

	cause := errors.New(`Post "https://api.telegram.org/bot1234567890:` + secret + `/sendMessage": EOF`)
	handler := Middleware(log)(func(context.Context, telegram.Client, *models.Update) error {
		return cause
	})

	update := &models.Update{
		ID:      8,
		Message: &models.Message{ID: 4, Chat: models.Chat{ID: 42}, Text: "/add 1234567890:" + secret},
	}
	if err := handler(context.Background(), &telegramtest.Client{}, update); !errors.Is(err, cause) {
		t.Fatalf("middleware error = %v, want %v", err, cause)
	}

	if out := buf.String(); strings.Contains(out, secret) {
		t.Errorf("log output contains the token secret: %q", out)
	}
}

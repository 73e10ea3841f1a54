package token_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/edgard/botrelay/internal/token"
)

func TestIsValid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		candidate string
		want      bool
	}{
		{name: "typical token", candidate: "123456:ABC-validtoken", want: true},
		{name: "secret with colon", candidate: "42:abc:def", want: true},
		{name: "short secret", candidate: "1:x", want: true},
		{name: "empty", candidate: "", want: false},
		{name: "plain text", candidate: "not-a-token", want: false},
		{name: "missing separator", candidate: "123456ABC", want: false},
		{name: "empty id", candidate: ":secret", want: false},
		{name: "empty secret", candidate: "123456:", want: false},
		{name: "letters in id", candidate: "12a456:secret", want: false},
		{name: "negative id", candidate: "-123:secret", want: false},
		{name: "leading space", candidate: " 123:secret", want: false},
		{name: "space inside", candidate: "123:sec ret", want: false},
		{name: "trailing newline", candidate: "123:secret\n", want: false},
		{name: "tab", candidate: "123:\tsecret", want: false},
		{name: "non-ascii digits", candidate: "١٢٣:secret", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := token.IsValid(tc.candidate); got != tc.want {
				t.Errorf("IsValid(%q) = %v, want %v", tc.candidate, got, tc.want)
			}
		})
	}
}

func TestBotID(t *testing.T) {
	t.Parallel()

	id, ok := token.BotID("123456:ABC-validtoken")
	if !ok || id != 123456 {
		t.Errorf("BotID() = %d, %v, want 123456, true", id, ok)
	}

	if _, ok := token.BotID("not-a-token"); ok {
		t.Error("BotID() should reject malformed tokens")
	}

	if _, ok := token.BotID("99999999999999999999999:overflow"); ok {
		t.Error("BotID() should reject ids that overflow int64")
	}
}

func TestRedact(t *testing.T) {
	t.Parallel()

	if got := token.Redact("123456:ABC-validtoken"); got != "123456:***" {
		t.Errorf("Redact() = %q, want %q", got, "123456:***")
	}
	if got := token.Redact("garbage"); got != "***" {
		t.Errorf("Redact() = %q, want %q", got, "***")
	}
}

func TestRedactError(t *testing.T) {
	t.Parallel()

	tok := "123456:ABC-secret"
	cause := errors.New(`Post "https://api.telegram.org/bot` + tok + `/getMe": dial tcp: timeout`)

	err := token.RedactError(cause, tok)
	if strings.Contains(err.Error(), "ABC-secret") {
		t.Errorf("Error() = %q, still contains the secret", err.Error())
	}
	if !strings.Contains(err.Error(), "bot123456:***/getMe") {
		t.Errorf("Error() = %q, want redacted token in place", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("redacted error should unwrap to the cause")
	}

	plain := errors.New("unauthorized")
	if got := token.RedactError(plain, tok); got != plain {
		t.Errorf("RedactError() = %v, want the original error when nothing to redact", got)
	}
	if token.RedactError(nil, tok) != nil {
		t.Error("RedactError(nil) should be nil")
	}
}

func TestRedactText(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "add command", in: "/add 1234567890:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw", want: "/add 1234567890:***"},
		{name: "add with mention", in: "/add@HelperBot 123:abc", want: "/add@HelperBot 123:***"},
		{name: "bare token", in: "123:abc", want: "123:***"},
		{name: "two tokens", in: "1:a 2:b", want: "1:*** 2:***"},
		{name: "request url", in: `Post "https://api.telegram.org/bot123:abc/getMe": timeout`, want: `Post "https://api.telegram.org/bot123:***/getMe": timeout`},
		{name: "plain text", in: "hello world", want: "hello world"},
		{name: "word with colon", in: "note:this", want: "note:this"},
		{name: "empty", in: "", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := token.RedactText(tc.in); got != tc.want {
				t.Errorf("RedactText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestScrubError(t *testing.T) {
	t.Parallel()

	cause := errors.New(`error do request for method getMe, Post "https://api.telegram.org/bot42:SeCrEt_value/getMe": EOF`)
	err := token.ScrubError(cause)
	if strings.Contains(err.Error(), "SeCrEt_value") {
		t.Errorf("Error() = %q, still contains the secret", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("scrubbed error should unwrap to the cause")
	}

	plain := errors.New("boom")
	if got := token.ScrubError(plain); got != plain {
		t.Errorf("ScrubError() = %v, want the original error when nothing to redact", got)
	}
	if token.ScrubError(nil) != nil {
		t.Error("ScrubError(nil) should be nil")
	}
}

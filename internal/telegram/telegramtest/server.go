// Package telegramtest provides a fake Bot API server that records every call.
package telegramtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"
	"sync"
	"testing"
)

// UnauthorizedBody is the payload the Bot API returns for a revoked or unknown token.
const UnauthorizedBody = `{"ok":false,"error_code":401,"description":"Unauthorized"}`

// Call is one recorded Bot API request.
type Call struct {
	Token  string
	Method string
	Form   url.Values
}

type response struct {
	status int
	body   string
}

// Server fakes api.telegram.org. Point a client at it with bot.WithServerURL(s.URL).
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	calls     []Call
	responses map[string]response
}

var defaultResponses = map[string]string{
	"getMe":       `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Test","username":"TestBot"}}`,
	"sendMessage": `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`,
}

// NewServer starts a fake Bot API server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{responses: make(map[string]response)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle overrides the response for a Bot API method.
func (s *Server) Handle(method string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[method] = response{status: status, body: body}
}

// Calls returns a copy of the recorded requests in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Methods returns the recorded method names in arrival order.
func (s *Server) Methods() []string {
	calls := s.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Method)
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	tok := strings.TrimPrefix(path.Dir(r.URL.Path), "/bot")

	form := parseParams(r)

	s.mu.Lock()
	s.calls = append(s.calls, Call{Token: tok, Method: method, Form: form})
	resp, ok := s.responses[method]
	s.mu.Unlock()

	if !ok {
		body, found := defaultResponses[method]
		if !found {
			body = `{"ok":true,"result":true}`
		}
		resp = response{status: http.StatusOK, body: body}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

// parseParams flattens multipart, urlencoded or JSON request parameters.
func parseParams(r *http.Request) url.Values {
	form := url.Values{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			for k, v := range body {
				if s, ok := v.(string); ok {
					form.Set(k, s)
					continue
				}
				raw, _ := json.Marshal(v)
				form.Set(k, string(raw))
			}
		}
		return form
	}

	if err := r.ParseMultipartForm(1 << 20); err == nil && r.MultipartForm != nil {
		for k, v := range r.MultipartForm.Value {
			form[k] = v
		}
		return form
	}
	if err := r.ParseForm(); err == nil {
		for k, v := range r.PostForm {
			form[k] = v
		}
	}
	return form
}

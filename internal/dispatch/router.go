// Package dispatch routes Telegram updates through an ordered list of rules.
// The same Router serves every bot; the client it replies through is supplied per call.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/telegram"
)

// HandlerFunc handles one update using the client of the bot that received it.
type HandlerFunc func(ctx context.Context, client telegram.Client, update *models.Update) error

// MatchFunc decides whether a rule applies to an update delivered to client.
// An error aborts dispatch of the update.
type MatchFunc func(ctx context.Context, client telegram.Client, update *models.Update) (bool, error)

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// Rule pairs a predicate with the handler it guards.
type Rule struct {
	Name    string
	Match   MatchFunc
	Handler HandlerFunc
}

// Router evaluates rules in order; the first match handles the update.
type Router struct {
	rules       []Rule
	middlewares []Middleware
	logger      *slog.Logger
}

// NewRouter creates a Router with the given rules, in evaluation order.
func NewRouter(logger *slog.Logger, rules ...Rule) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		rules:  rules,
		logger: logger.With("component", "dispatch_router"),
	}
}

// Use appends middleware. The first one added is the outermost.
func (r *Router) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

// Rules returns the rule names in evaluation order.
func (r *Router) Rules() []string {
	names := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		names = append(names, rule.Name)
	}
	return names
}

// Dispatch runs the first matching rule against update. Updates no rule
// matches are dropped without error. Handler errors are returned unchanged.
func (r *Router) Dispatch(ctx context.Context, client telegram.Client, update *models.Update) error {
	if update == nil {
		return nil
	}
	return applyMiddleware(r.route, r.middlewares)(ctx, client, update)
}

func (r *Router) route(ctx context.Context, client telegram.Client, update *models.Update) error {
	for _, rule := range r.rules {
		if rule.Match == nil {
			continue
		}
		matched, err := rule.Match(ctx, client, update)
		if err != nil {
			return fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		if !matched {
			continue
		}
		r.logger.DebugContext(ctx, "Rule matched", "rule", rule.Name, "update_id", update.ID)
		return rule.Handler(ctx, client, update)
	}

	r.logger.DebugContext(ctx, "No rule matched update", "update_id", update.ID)
	return nil
}

// applyMiddleware wraps a handler function with a slice of middleware.
// Middleware are applied in reverse order so the first one in the slice is the outermost.
func applyMiddleware(handler HandlerFunc, mw []Middleware) HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

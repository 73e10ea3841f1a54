package handlers

import (
	"github.com/edgard/botrelay/internal/dispatch"
	"github.com/edgard/botrelay/internal/logger"
	"github.com/edgard/botrelay/internal/token"
)

// Rule names, in evaluation order.
const (
	RuleAdd  = "add"
	RuleEcho = "echo"
)

// RegisterAllRules returns the rules every bot runs, in evaluation order.
// "/add" only matches when its argument looks like a token, so anything
// else, including "/add not-a-token", falls through to echo.
func RegisterAllRules(deps HandlerDeps) []dispatch.Rule {
	return []dispatch.Rule{
		{
			Name:    RuleAdd,
			Match:   dispatch.MatchCommand("add", token.IsValid),
			Handler: NewAddHandler(deps),
		},
		{
			Name:    RuleEcho,
			Match:   dispatch.MatchText(),
			Handler: NewEchoHandler(deps),
		},
	}
}

// NewRouter builds the dispatch router shared by the main bot and all sub-bots.
func NewRouter(deps HandlerDeps) *dispatch.Router {
	router := dispatch.NewRouter(deps.Logger, RegisterAllRules(deps)...)
	router.Use(logger.Middleware(deps.Logger))
	return router
}

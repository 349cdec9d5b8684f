package router

import (
	"context"
	"log/slog"
	"strings"

	"github.com/concierge-labs/concierge/pkg/agent"
	"github.com/concierge-labs/concierge/pkg/errorsx"
	"github.com/concierge-labs/concierge/pkg/logging"
)

// Envelope is the single response shape every routed request resolves to.
type Envelope struct {
	Status    agent.Status `json:"status"`
	Result    string       `json:"result,omitempty"`
	ErrorKind string       `json:"error_kind,omitempty"`
	Message   string       `json:"message,omitempty"`
	HandlerID string       `json:"handler_id"`
	SessionID string       `json:"session_id"`
}

// Router selects one handler per request via ordered keyword predicates and
// normalizes the outcome. It holds no per-request state of its own.
type Router struct {
	rules     []Rule
	defaultID string
	handlers  map[string]*agent.Handler
	logger    *slog.Logger
}

// New builds a Router. Handlers are keyed by their configured id; defaultID
// is used when no rule matches.
func New(rules []Rule, defaultID string, handlers []*agent.Handler, logger *slog.Logger) *Router {
	byID := make(map[string]*agent.Handler, len(handlers))
	for _, h := range handlers {
		if h != nil {
			byID[h.ID()] = h
		}
	}
	return &Router{
		rules:     rules,
		defaultID: defaultID,
		handlers:  byID,
		logger:    logging.Component(logger, "router"),
	}
}

// Select returns the handler id the rules pick for the input.
func (r *Router) Select(input string) string {
	lower := strings.ToLower(input)
	for _, rule := range r.rules {
		if rule.Match != nil && rule.Match(lower) {
			return rule.HandlerID
		}
	}
	return r.defaultID
}

// Route classifies the input, runs the selected handler and wraps the outcome.
// It never panics and never raises: any fault becomes a routing envelope.
// userID scopes user-owned resources for the duration of the session.
func (r *Router) Route(ctx context.Context, userID, input string) (env Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("routing panicked", slog.Any("panic", rec))
			env = Envelope{
				Status:    agent.StatusFailed,
				ErrorKind: string(errorsx.KindRouting),
				Message:   "internal routing failure",
			}
		}
	}()

	handlerID := r.Select(input)
	r.logger.Info("routing input", slog.String("handler", handlerID))

	handler, ok := r.handlers[handlerID]
	if !ok {
		r.logger.Error("no handler configured", slog.String("handler", handlerID))
		return Envelope{
			Status:    agent.StatusFailed,
			ErrorKind: string(errorsx.KindRouting),
			Message:   "no handler configured for " + handlerID,
			HandlerID: handlerID,
		}
	}

	session := agent.NewSession(handlerID, userID, input)
	handler.Run(ctx, session)

	env = Envelope{
		Status:    session.Status,
		Result:    session.Result,
		HandlerID: handlerID,
		SessionID: session.ID,
	}
	if session.Status == agent.StatusFailed {
		env.ErrorKind = string(errorsx.KindOf(session.Err))
		if session.Err != nil {
			env.Message = session.Err.Error()
		}
	}
	return env
}

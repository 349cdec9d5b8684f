package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/concierge-labs/concierge/pkg/errorsx"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

const defaultMaxSteps = 6

// Config describes one handler: its identity, its instruction text, the tool
// subset it may use and the step bound. Built once at process start,
// immutable afterwards.
type Config struct {
	ID           string
	Instructions string
	Tools        []string
	MaxSteps     int
	StepTimeout  time.Duration
}

// Handler runs a bounded tool-use session: it interleaves reasoning steps
// with tool invocations until a terminal answer or the step limit.
type Handler struct {
	cfg      Config
	registry *tooling.Registry
	reasoner Reasoner
	allowed  map[string]bool
	logger   *slog.Logger
}

// New creates a Handler from its configuration and shared dependencies.
func New(cfg Config, registry *tooling.Registry, reasoner Reasoner, logger *slog.Logger) (*Handler, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, errors.New("handler requires an id")
	}
	if registry == nil {
		return nil, errors.New("handler requires a tool registry")
	}
	if reasoner == nil {
		return nil, errors.New("handler requires a reasoner")
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]bool, len(cfg.Tools))
	for _, name := range cfg.Tools {
		allowed[strings.ToLower(strings.TrimSpace(name))] = true
	}
	return &Handler{
		cfg:      cfg,
		registry: registry,
		reasoner: reasoner,
		allowed:  allowed,
		logger:   logger.With(slog.String("handler", cfg.ID)),
	}, nil
}

// ID returns the handler's identity.
func (h *Handler) ID() string { return h.cfg.ID }

// Run drives the session to completion. It never panics and never returns an
// error: every fault is recorded on the session itself.
func (h *Handler) Run(ctx context.Context, session *Session) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("handler panicked", slog.Any("panic", rec))
			session.fail(errorsx.E(errorsx.KindRouting, "handler %s panicked: %v", h.cfg.ID, rec), session.LastOutput())
		}
	}()

	specs := h.registry.SpecsFor(h.cfg.Tools)

	for step := 0; step < h.cfg.MaxSteps; step++ {
		decision, err := h.decide(ctx, specs, session)
		if err != nil {
			h.logger.Error("reasoning step failed", slog.String("error", err.Error()))
			session.fail(errorsx.Wrap(err, errorsx.KindExternalService), session.LastOutput())
			return
		}

		if decision.Terminal {
			session.succeed(decision.Answer)
			return
		}

		session.Transcript = append(session.Transcript, h.invoke(ctx, session, decision))
	}

	err := errorsx.E(errorsx.KindStepLimitExceeded,
		"handler %s gave up after %d steps without a final answer", h.cfg.ID, h.cfg.MaxSteps)
	h.logger.Warn("step limit exceeded", slog.Int("max_steps", h.cfg.MaxSteps))
	session.fail(err, session.LastOutput())
}

func (h *Handler) decide(ctx context.Context, specs []tooling.ToolSpec, session *Session) (Decision, error) {
	stepCtx, cancel := h.stepContext(ctx)
	defer cancel()
	return h.reasoner.Decide(stepCtx, h.cfg.Instructions, specs, session.Input, session.Transcript)
}

// invoke runs one tool call and renders its outcome as a transcript step.
// A disallowed or failing tool is a failed step, not a failed session: the
// reasoner sees the failure text and may pick another tool.
func (h *Handler) invoke(ctx context.Context, session *Session, decision Decision) Step {
	step := Step{Tool: decision.ToolName, Arguments: decision.Arguments}

	if !h.allowed[strings.ToLower(decision.ToolName)] {
		err := errorsx.E(errorsx.KindToolNotAllowed,
			"tool %s is not available to handler %s", decision.ToolName, h.cfg.ID)
		h.logger.Warn("tool not allowed", slog.String("tool", decision.ToolName))
		step.Failed = true
		step.Output = err.Error()
		return step
	}

	stepCtx, cancel := h.stepContext(ctx)
	defer cancel()

	resp, err := h.registry.Invoke(stepCtx, decision.ToolName, tooling.ToolRequest{
		SessionID: session.ID,
		UserID:    session.UserID,
		Arguments: decision.Arguments,
	})
	if err != nil {
		h.logger.Warn("tool failed",
			slog.String("tool", decision.ToolName),
			slog.String("kind", string(errorsx.KindOf(err))),
			slog.String("error", err.Error()))
		step.Failed = true
		step.Output = err.Error()
		return step
	}

	h.logger.Info("tool succeeded", slog.String("tool", decision.ToolName))
	step.Output = resp.Content
	return step
}

func (h *Handler) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.cfg.StepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.cfg.StepTimeout)
}

// Describe summarizes the handler for logs and diagnostics.
func (h *Handler) Describe() string {
	return fmt.Sprintf("%s (tools: %s, max steps: %d)", h.cfg.ID, strings.Join(h.cfg.Tools, ", "), h.cfg.MaxSteps)
}

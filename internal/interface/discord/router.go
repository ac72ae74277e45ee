// Package discord routes incoming platform commands to their handlers and
// turns handler results into replies.
package discord

import (
	"context"
	"log/slog"
	"sync"

	"github.com/B-Eddie/WOSSIB/internal/interface/discord/handler"
	"github.com/B-Eddie/WOSSIB/internal/interface/discord/presenter"
)

// CommandHandler is the interface all command handlers implement.
type CommandHandler interface {
	// Name is the command name the handler answers to.
	Name() string

	// Handle executes the command. A returned error is translated into a
	// user-facing error reply by the router.
	Handle(ctx context.Context, cmd handler.Command) (*presenter.Reply, error)
}

// Router dispatches parsed commands to registered handlers.
type Router struct {
	mu        sync.RWMutex
	handlers  map[string]CommandHandler
	presenter *presenter.Presenter
	logger    *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(p *presenter.Presenter, logger *slog.Logger) *Router {
	if p == nil {
		p = presenter.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handlers:  make(map[string]CommandHandler),
		presenter: p,
		logger:    logger,
	}
}

// Register adds handlers, keyed by their command names.
func (r *Router) Register(handlers ...CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range handlers {
		r.handlers[h.Name()] = h
	}
}

// Commands returns the registered command names.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch routes one command and always produces a reply: handler errors
// become user-facing error replies, and unknown commands a short hint.
func (r *Router) Dispatch(ctx context.Context, cmd handler.Command) *presenter.Reply {
	r.mu.RLock()
	h, ok := r.handlers[cmd.Name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("unknown command", "command", cmd.Name, "caller", cmd.CallerID)
		return &presenter.Reply{
			Content:   "Unknown command: " + cmd.Name,
			Ephemeral: true,
		}
	}

	reply, err := h.Handle(ctx, cmd)
	if err != nil {
		r.logger.Info("command rejected",
			"command", cmd.Name,
			"caller", cmd.CallerID,
			"error", err,
		)
		return r.presenter.Error(err)
	}
	return reply
}

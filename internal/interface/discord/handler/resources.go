package handler

import (
	"context"
	"time"

	"github.com/B-Eddie/WOSSIB/internal/domain/resource"
	"github.com/B-Eddie/WOSSIB/internal/interface/discord/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY RESOURCE COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// AddResourceHandler handles /add-resource.
type AddResourceHandler struct {
	Registry  *resource.Registry
	Presenter *presenter.Presenter
	Now       func() time.Time
}

func (h *AddResourceHandler) Name() string { return "add-resource" }

func (h *AddResourceHandler) Handle(ctx context.Context, cmd Command) (*presenter.Reply, error) {
	url, err := cmd.Options.Require("url")
	if err != nil {
		return nil, err
	}
	subject, err := cmd.Options.Require("subject")
	if err != nil {
		return nil, err
	}
	description := cmd.Options.String("description", "")

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	entry, err := h.Registry.Add(ctx, subject, url, description, cmd.CallerID, now())
	if err != nil {
		return nil, err
	}
	return h.Presenter.ResourceAdded(entry), nil
}

// RefreshResourcesHandler handles /refresh-resources: re-reads the durable
// mirror and posts the full per-subject overview.
type RefreshResourcesHandler struct {
	Registry  *resource.Registry
	Presenter *presenter.Presenter
}

func (h *RefreshResourcesHandler) Name() string { return "refresh-resources" }

func (h *RefreshResourcesHandler) Handle(ctx context.Context, _ Command) (*presenter.Reply, error) {
	h.Registry.Restore(ctx)
	return h.Presenter.ResourceOverview(h.Registry.All()), nil
}

package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/B-Eddie/WOSSIB/internal/domain/focus"
)

// ══════════════════════════════════════════════════════════════════════════════
// FOCUS CAPABILITY GRANTER
// ══════════════════════════════════════════════════════════════════════════════

// RoleGranter implements focus.CapabilityGranter by assigning a guild role
// for the lifetime of a session. The capability handle is the role ID, so
// revocation works even if the mode-to-role mapping changes mid-session.
type RoleGranter struct {
	client  *Client
	guildID string
	roles   map[focus.Mode]string
	logger  *slog.Logger
}

// NewRoleGranter builds a granter for one guild. roles maps each focus mode
// to the role granted for it; modes without an entry fall back to the deep
// focus role.
func NewRoleGranter(client *Client, guildID string, roles map[focus.Mode]string, logger *slog.Logger) *RoleGranter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleGranter{
		client:  client,
		guildID: guildID,
		roles:   roles,
		logger:  logger,
	}
}

func (g *RoleGranter) roleFor(mode focus.Mode) (string, error) {
	if id, ok := g.roles[mode]; ok && id != "" {
		return id, nil
	}
	if id, ok := g.roles[focus.ModeDeep]; ok && id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no role configured for focus mode %q", mode)
}

func (g *RoleGranter) Grant(ctx context.Context, owner focus.OwnerID, mode focus.Mode) (focus.CapabilityHandle, error) {
	roleID, err := g.roleFor(mode)
	if err != nil {
		return "", err
	}
	if err := g.client.AddMemberRole(ctx, g.guildID, owner.String(), roleID); err != nil {
		return "", err
	}
	g.logger.Debug("focus role granted", "owner", owner.String(), "role", roleID)
	return focus.CapabilityHandle(roleID), nil
}

func (g *RoleGranter) Revoke(ctx context.Context, owner focus.OwnerID, handle focus.CapabilityHandle) error {
	return g.client.RemoveMemberRole(ctx, g.guildID, owner.String(), string(handle))
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN GATE
// ══════════════════════════════════════════════════════════════════════════════

// AdminGate implements focus.AdminChecker by checking the caller's guild
// roles against a configured admin role set.
type AdminGate struct {
	client     *Client
	guildID    string
	adminRoles map[string]struct{}
}

// NewAdminGate builds the gate for one guild.
func NewAdminGate(client *Client, guildID string, adminRoleIDs []string) *AdminGate {
	roles := make(map[string]struct{}, len(adminRoleIDs))
	for _, id := range adminRoleIDs {
		if id != "" {
			roles[id] = struct{}{}
		}
	}
	return &AdminGate{
		client:     client,
		guildID:    guildID,
		adminRoles: roles,
	}
}

func (g *AdminGate) IsAdmin(ctx context.Context, caller focus.OwnerID) (bool, error) {
	member, err := g.client.GetGuildMember(ctx, g.guildID, caller.String())
	if err != nil {
		return false, fmt.Errorf("resolve member roles: %w", err)
	}
	for _, role := range member.Roles {
		if _, ok := g.adminRoles[role]; ok {
			return true, nil
		}
	}
	return false, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SWEEP NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// Notifier delivers the post-sweep direct message to session owners.
type Notifier struct {
	client *Client
}

// NewNotifier wraps the client for sweep notifications.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

// NotifyExpired tells the owner their focus session ended. Callers treat
// failures as best-effort and only log them.
func (n *Notifier) NotifyExpired(ctx context.Context, report *focus.TerminationReport) error {
	text := fmt.Sprintf(
		"Your %d-minute focus session is over (ran %d minutes). Welcome back!",
		report.PlannedMinutes, report.ActualMinutes,
	)
	return n.client.SendDirectMessage(ctx, report.Owner.String(), text)
}

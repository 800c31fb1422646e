package policy

import (
	"context"

	"github.com/diewo77/go-ppat/gate"
	"github.com/diewo77/go-ppat/internal/models"
)

// DeletePolicy decides deletes before any write happens:
// a profile tagged no-delete-rights is denied, the super admin is allowed
// (except deleting their own user), everyone else is denied.
// Other actions are left to the permission table.
type DeletePolicy struct{}

func NewDeletePolicy() *DeletePolicy { return &DeletePolicy{} }

func (p *DeletePolicy) Can(_ context.Context, userID uint, profile gate.Profile, action gate.Action, resource any) bool {
	if action != gate.ActionDelete {
		return true
	}
	if profile == nil || profile.HasTag(TagNoDeleteRights) {
		return false
	}
	if !profile.HasPermission(gate.PermissionSuperAdmin) {
		return false
	}
	if u, ok := resource.(*models.User); ok && u.ID == userID {
		return false
	}
	return true
}

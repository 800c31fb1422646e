package policy

import (
	"github.com/diewo77/go-ppat/gate"
	"github.com/diewo77/go-ppat/internal/models"
)

// Resource types used in permissions.
const (
	ResourceClient    = "client"
	ResourceOrder     = "order"
	ResourceOrderFile = "order_file"
	ResourcePayment   = "payment"
	ResourceExpense   = "expense"
	ResourceSchedule  = "schedule"
	ResourceUser      = "user"
	ResourceCompany   = "company"
	ResourceReport    = "report"
	ResourceActivity  = "activity"
	ResourceBackup    = "backup"
)

// TagNoDeleteRights denies every delete regardless of permissions.
const TagNoDeleteRights gate.Tag = "no-delete-rights"

var (
	readOnly = []gate.Action{gate.ActionList, gate.ActionView}
	editable = []gate.Action{gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate}
)

func perms(groups ...[]gate.Permission) []gate.Permission {
	var out []gate.Permission
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Deletes are only reachable through *:*, i.e. the super admin.
var profiles = map[models.Role]*gate.StaticProfile{
	models.RoleSuperAdmin: gate.NewStaticProfile(string(models.RoleSuperAdmin), gate.PermissionSuperAdmin),

	models.RoleAdmin: gate.NewStaticProfile(string(models.RoleAdmin), perms(
		gate.Permissions(ResourceClient, editable...),
		gate.Permissions(ResourceOrder, editable...),
		gate.Permissions(ResourcePayment, gate.ActionList, gate.ActionView, gate.ActionCreate),
		gate.Permissions(ResourceOrderFile, gate.ActionView, gate.ActionCreate),
		gate.Permissions(ResourceExpense, editable...),
		gate.Permissions(ResourceSchedule, editable...),
		gate.Permissions(ResourceUser, readOnly...),
		gate.Permissions(ResourceCompany, gate.ActionView, gate.ActionUpdate),
		gate.Permissions(ResourceReport, gate.ActionReport),
		gate.Permissions(ResourceActivity, gate.ActionList),
		gate.Permissions(ResourceBackup, gate.ActionBackup),
	)...),

	models.RoleStaff: gate.NewStaticProfile(string(models.RoleStaff), perms(
		gate.Permissions(ResourceClient, editable...),
		gate.Permissions(ResourceOrder, editable...),
		gate.Permissions(ResourcePayment, gate.ActionList, gate.ActionView, gate.ActionCreate),
		gate.Permissions(ResourceOrderFile, gate.ActionView, gate.ActionCreate),
		gate.Permissions(ResourceExpense, gate.ActionList, gate.ActionView, gate.ActionCreate),
		gate.Permissions(ResourceSchedule, editable...),
		gate.Permissions(ResourceCompany, gate.ActionView),
	)...),

	models.RoleBos: gate.NewStaticProfile(string(models.RoleBos), perms(
		gate.Permissions(ResourceClient, readOnly...),
		gate.Permissions(ResourceOrder, readOnly...),
		gate.Permissions(ResourcePayment, readOnly...),
		gate.Permissions(ResourceOrderFile, gate.ActionView),
		gate.Permissions(ResourceExpense, readOnly...),
		gate.Permissions(ResourceSchedule, readOnly...),
		gate.Permissions(ResourceUser, readOnly...),
		gate.Permissions(ResourceCompany, gate.ActionView),
		gate.Permissions(ResourceReport, gate.ActionReport),
		gate.Permissions(ResourceActivity, gate.ActionList),
	)...).WithTags(TagNoDeleteRights),
}

// ProfileFor returns the static profile of a role, or nil for an unknown role.
func ProfileFor(role models.Role) gate.Profile {
	p, ok := profiles[role]
	if !ok {
		return nil
	}
	return p
}

// PermissionsFor lists the permissions granted to a role.
func PermissionsFor(role models.Role) []gate.Permission {
	p, ok := profiles[role]
	if !ok {
		return nil
	}
	return p.Permissions()
}

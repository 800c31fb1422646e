package gate

import "strings"

// Permission represents an allowed action on a resource type.
// Format: "resource:action" (e.g., "order:create", "payment:delete").
type Permission string

// Wildcards for super permissions
const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// NewPermission creates a permission from resource type and action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Permissions expands one resource type into a permission per action.
func Permissions(resourceType string, actions ...Action) []Permission {
	out := make([]Permission, len(actions))
	for i, a := range actions {
		out[i] = NewPermission(resourceType, a)
	}
	return out
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether p grants the requested permission.
// "*:*" matches everything and "order:*" matches every order action.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == WildcardAll
}

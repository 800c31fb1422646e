// Package gate provides a small Gate/Policy authorization layer.
// A Gate resolves the acting user to a Profile (permissions plus tags), checks the
// "resource:action" permission and then runs any policy registered for the resource
// type. It has no dependency on domain models.
//
// The user type is generic:
//   - Gate[uint] for user ID based auth
//   - Gate[*User] for full user struct based auth
package gate

import "context"

// Gate is the central authorization checkpoint.
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

// New creates a gate backed by the given profile resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{
		resolver: resolver,
		policies: make(map[string]Policy[U]),
	}
}

// Register adds a policy for a resource type, replacing any existing one.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize checks, in order:
//  1. the user is set (non-zero), else ErrUnauthenticated
//  2. the user's profile grants resource:action, else ErrForbidden
//  3. the registered policy for resourceType, if any, allows it, else ErrForbidden
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthenticated
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return ErrForbidden
	}
	if !profile.HasPermission(NewPermission(resourceType, action)) {
		return ErrForbidden
	}
	if p, ok := g.policies[resourceType]; ok {
		if !p.Can(ctx, user, profile, action, resource) {
			return ErrForbidden
		}
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// CanProfile checks only the profile permission, skipping policies.
// Route middleware uses it before the target resource is loaded.
func (g *Gate[U]) CanProfile(ctx context.Context, user U, action Action, resourceType string) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(NewPermission(resourceType, action))
}

// Profile exposes the resolved profile of a user (nil when none).
func (g *Gate[U]) Profile(ctx context.Context, user U) (Profile, error) {
	return g.resolver.Resolve(ctx, user)
}

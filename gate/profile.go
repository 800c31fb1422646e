package gate

import (
	"context"
	"sort"
)

// Tag marks a profile with a capability restriction that overrides permissions,
// e.g. a role that must never delete anything.
type Tag string

// Profile is the resolved set of permissions and tags of a user.
type Profile interface {
	Name() string
	HasPermission(permission Permission) bool
	HasTag(tag Tag) bool
}

// ProfileResolver resolves a user to their profile.
// A nil profile with a nil error means the user has no access at all.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// ResolverFunc adapts a function to ProfileResolver.
type ResolverFunc[U any] func(ctx context.Context, user U) (Profile, error)

func (f ResolverFunc[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	return f(ctx, user)
}

// StaticProfile is an immutable in-memory profile. Static permission tables are
// built from these.
type StaticProfile struct {
	name        string
	permissions []Permission
	tags        map[Tag]bool
}

// NewStaticProfile creates a profile with the given permissions.
func NewStaticProfile(name string, permissions ...Permission) *StaticProfile {
	return &StaticProfile{
		name:        name,
		permissions: permissions,
		tags:        map[Tag]bool{},
	}
}

// WithTags returns a copy of the profile carrying the given tags.
func (p *StaticProfile) WithTags(tags ...Tag) *StaticProfile {
	cp := &StaticProfile{name: p.name, permissions: p.permissions, tags: make(map[Tag]bool, len(p.tags)+len(tags))}
	for t := range p.tags {
		cp.tags[t] = true
	}
	for _, t := range tags {
		cp.tags[t] = true
	}
	return cp
}

func (p *StaticProfile) Name() string { return p.name }

func (p *StaticProfile) HasTag(tag Tag) bool { return p.tags[tag] }

// Permissions returns the granted permissions sorted for stable output.
func (p *StaticProfile) Permissions() []Permission {
	perms := make([]Permission, len(p.permissions))
	copy(perms, p.permissions)
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// HasPermission checks the requested permission with wildcard matching.
func (p *StaticProfile) HasPermission(requested Permission) bool {
	for _, perm := range p.permissions {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// StaticResolver is a simple in-memory resolver for testing.
type StaticResolver[U comparable] struct {
	profiles map[U]Profile
}

// NewStaticResolver creates an empty resolver.
func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

// Set assigns a profile to a user.
func (r *StaticResolver[U]) Set(user U, profile Profile) {
	r.profiles[user] = profile
}

// Resolve returns the profile for the given user, or nil if none was set.
func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	if profile, ok := r.profiles[user]; ok {
		return profile, nil
	}
	return nil, nil
}

package gate

import "context"

// Policy adds resource-specific rules on top of profile permissions.
// It runs after the profile check passed; resource may be nil for list/create.
type Policy[U any] interface {
	Can(ctx context.Context, user U, profile Profile, action Action, resource any) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc[U any] func(ctx context.Context, user U, profile Profile, action Action, resource any) bool

func (f PolicyFunc[U]) Can(ctx context.Context, user U, profile Profile, action Action, resource any) bool {
	return f(ctx, user, profile, action, resource)
}

package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/gate"
	"github.com/diewo77/go-ppat/httpx"
	"gorm.io/gorm"
)

// AuthGate holds the configured Gate with caching.
// Use this as a central authorization point in your application.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate creates a gate resolving roles from the database, with the delete
// policy registered on every resource that can be deleted.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cachedResolver := gate.NewCachedResolver[uint](NewDBRoleResolver(db), cacheTTL)
	g := gate.New[uint](cachedResolver)

	deletes := NewDeletePolicy()
	for _, res := range []string{
		ResourceClient, ResourceExpense, ResourceSchedule, ResourceUser,
		ResourcePayment, ResourceOrderFile, ResourceCompany,
	} {
		g.Register(res, deletes)
	}

	return &AuthGate{Gate: g, CacheResolver: cachedResolver}
}

// Authorize checks if the current user can perform an action on a resource.
// Returns nil if authorized, gate.ErrUnauthenticated or gate.ErrForbidden otherwise.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthenticated
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
}

// Can is a convenience method that returns bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// CanProfile checks only profile permissions (no policy check).
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, userID, action, resourceType)
}

// Profile returns the current user's profile, or nil.
func (ag *AuthGate) Profile(ctx context.Context) gate.Profile {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil
	}
	p, err := ag.Gate.Profile(ctx, userID)
	if err != nil {
		return nil
	}
	return p
}

// InvalidateUser clears the cache for a specific user.
// Call this when a user's role changes or the user is deleted.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// RequirePermission returns middleware that checks profile permission.
// Blocks access if user doesn't have the required permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.CanProfile(r.Context(), action, resourceType) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

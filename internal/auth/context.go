package auth

import "context"

type contextKey struct{}

// AuthContext is the signed-in user as resolved for one request.
// HouseholdID is 0 when the user has not joined or created a household.
type AuthContext struct {
	UserID      int64
	HouseholdID int64
	Email       string
	Name        string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func HouseholdID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.HouseholdID
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

// InHousehold reports whether the request's user belongs to a household.
func InHousehold(ctx context.Context) bool {
	return HouseholdID(ctx) != 0
}

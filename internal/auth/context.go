package auth

import (
	"context"
	"slices"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

type UserContext struct {
	UserID    string
	Role      string
	StoreID   string // Assigned store for staff, empty otherwise
	Languages []string
}

type ctxKey struct{}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// GetUser reads the user placed by ContextInterceptor, falling back to raw metadata.
func GetUser(ctx context.Context) UserContext {
	if u, ok := ctx.Value(ctxKey{}).(UserContext); ok {
		return u
	}
	return fromMetadata(ctx)
}

// HasRole reports whether the caller holds one of roles.
func HasRole(ctx context.Context, roles ...string) bool {
	return slices.Contains(roles, GetUser(ctx).Role)
}

// ContextInterceptor is installed on the gRPC server; the gateway forwards identity as metadata.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(WithUser(ctx, fromMetadata(ctx)), req)
	}
}

func fromMetadata(ctx context.Context) UserContext {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return UserContext{Role: RoleCustomer}
	}

	u := UserContext{
		UserID:  first(md, "x-user-id"),
		Role:    strings.ToLower(first(md, "x-user-role")),
		StoreID: first(md, "x-store-id"),
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	if lang := first(md, "accept-language"); lang != "" {
		u.Languages = []string{lang}
	}
	return u
}

func first(md metadata.MD, key string) string {
	if val := md.Get(key); len(val) > 0 {
		return val[0]
	}
	return ""
}

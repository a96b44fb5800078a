// Package transport maps use case results onto gRPC statuses shared by every handler.
package transport

import (
	"context"
	"errors"
	"strings"

	"github.com/fekuna/omnipos-aisle-service/internal/apperr"
	"github.com/fekuna/omnipos-aisle-service/internal/auth"
	"github.com/fekuna/omnipos-aisle-service/pkg/i18n"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Status converts err to a gRPC status error with a message in the caller's language.
// Errors of unknown kind are logged and reported as Internal without their text.
func Status(ctx context.Context, log logger.ZapLogger, err error) error {
	if err == nil {
		return nil
	}
	langs := auth.GetUser(ctx).Languages

	var cv *apperr.ConstraintViolationError
	var iq *apperr.InvalidQuantityError
	var nf *apperr.NotFoundError
	switch {
	case errors.As(err, &cv):
		return status.Error(codes.FailedPrecondition, i18n.T(i18n.MsgConstraintViolation, map[string]any{
			"Product":    cv.ProductName,
			"Aisle":      cv.Aisle,
			"Allowed":    strings.Join(cv.AllowedCategories, ", "),
			"Categories": strings.Join(cv.ProductCategories, ", "),
		}, langs...))
	case errors.As(err, &iq):
		return status.Error(codes.InvalidArgument, i18n.T(i18n.MsgInvalidQuantity, map[string]any{
			"Requested": iq.Requested,
			"Limit":     iq.Limit,
		}, langs...))
	case errors.As(err, &nf):
		return status.Error(codes.NotFound, i18n.T(i18n.MsgNotFound, map[string]any{
			"Entity": nf.Entity,
			"ID":     nf.ID,
		}, langs...))
	case errors.Is(err, apperr.ErrEmptyQuery):
		return status.Error(codes.InvalidArgument, i18n.T(i18n.MsgEmptyQuery, nil, langs...))
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	if _, ok := status.FromError(err); ok {
		return err
	}
	log.Error("request failed", zap.Error(err))
	return status.Error(codes.Internal, i18n.T(i18n.MsgInternal, nil, langs...))
}

// Forbidden is returned when the caller's role may not perform an operation.
func Forbidden(ctx context.Context) error {
	return status.Error(codes.PermissionDenied, i18n.T(i18n.MsgForbidden, nil, auth.GetUser(ctx).Languages...))
}

// RequireRole fails with Forbidden unless the caller holds one of roles.
// Staff are further limited to the store they are assigned to, when one is set.
func RequireRole(ctx context.Context, storeID string, roles ...string) error {
	if !auth.HasRole(ctx, roles...) {
		return Forbidden(ctx)
	}
	u := auth.GetUser(ctx)
	if u.Role == auth.RoleStaff && u.StoreID != "" && u.StoreID != storeID {
		return Forbidden(ctx)
	}
	return nil
}
